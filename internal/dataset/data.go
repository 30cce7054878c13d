package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var embeddedData []byte

const dateLayout = "2006-01-02"

// Data is the fixed input the clinic generator turns into records. Every
// date is expressed as a day offset from AnchorDate so that two runs over the
// same Data produce the same field values. Money is in integer cents.
type Data struct {
	AnchorDate          string            `yaml:"anchor_date"`
	Roles               []Role            `yaml:"roles"`
	Admin               Person            `yaml:"admin"`
	Dentists            []Dentist         `yaml:"dentists"`
	Receptionists       []Receptionist    `yaml:"receptionists"`
	Patients            []Patient         `yaml:"patients"`
	TimeSlots           SlotRange         `yaml:"time_slots"`
	AppointmentStatuses []Catalog         `yaml:"appointment_statuses"`
	AppointmentTypes    []AppointmentType `yaml:"appointment_types"`
	PaymentTypes        []Catalog         `yaml:"payment_types"`
	InvoiceStatuses     []Catalog         `yaml:"invoice_statuses"`
	Services            []Service         `yaml:"services"`
	Bundles             []Bundle          `yaml:"bundles"`
	Appointments        []Appointment     `yaml:"appointments"`
	ClinicalRecords     []ClinicalRecord  `yaml:"clinical_records"`
	Odontograms         []Odontogram      `yaml:"odontograms"`
	TreatmentPlans      []TreatmentPlan   `yaml:"treatment_plans"`
	SupplyCategories    []SupplyCategory  `yaml:"supply_categories"`
	Suppliers           []Supplier        `yaml:"suppliers"`
	Supplies            []Supply          `yaml:"supplies"`
	InventoryAlerts     []InventoryAlert  `yaml:"inventory_alerts"`

	anchor time.Time
}

type Role struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Person is everything needed to create a users row and its login.
type Person struct {
	FirstName     string `yaml:"first_name"`
	LastName      string `yaml:"last_name"`
	Email         string `yaml:"email"`
	Sex           string `yaml:"sex"`
	Phone         string `yaml:"phone"`
	Secret        string `yaml:"secret"`
	Notifications bool   `yaml:"notifications"`
}

type Dentist struct {
	Person     `yaml:",inline"`
	Specialty  string `yaml:"specialty"`
	License    string `yaml:"license"`
	Experience string `yaml:"experience"`
}

type Receptionist struct {
	Person `yaml:",inline"`
	Skills string `yaml:"skills"`
}

type Patient struct {
	Person     `yaml:",inline"`
	NationalID string `yaml:"national_id"`
	BirthDate  string `yaml:"birth_date"`
	Address    string `yaml:"address"`
}

// SlotRange expands to one time slot every StepMinutes from From up to, but
// excluding, Until.
type SlotRange struct {
	From        string `yaml:"from"`
	Until       string `yaml:"until"`
	StepMinutes int    `yaml:"step_minutes"`
}

type Catalog struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type AppointmentType struct {
	Key             string `yaml:"key"`
	Name            string `yaml:"name"`
	WebBooking      bool   `yaml:"web_booking"`
	NeedsApproval   bool   `yaml:"needs_approval"`
	Emergency       bool   `yaml:"emergency"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

type Service struct {
	Key             string `yaml:"key"`
	Name            string `yaml:"name"`
	PriceCents      int64  `yaml:"price_cents"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

type Bundle struct {
	Key         string       `yaml:"key"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	PriceKind   string       `yaml:"price_kind"`
	PriceValue  int64        `yaml:"price_value"`
	Items       []BundleItem `yaml:"items"`
}

type BundleItem struct {
	Service  string `yaml:"service"`
	Quantity int    `yaml:"quantity"`
}

type Appointment struct {
	Patient      string `yaml:"patient"`
	Dentist      string `yaml:"dentist"`
	Receptionist string `yaml:"receptionist"`
	Slot         string `yaml:"slot"`
	Type         string `yaml:"type"`
	Status       string `yaml:"status"`
	DayOffset    int    `yaml:"day_offset"`
	Reason       string `yaml:"reason"`
	Diagnosis    string `yaml:"diagnosis"`
	Treatment    string `yaml:"treatment"`
	FeeCents     int64  `yaml:"fee_cents"`
	Notes        string `yaml:"notes"`
	CancelReason string `yaml:"cancel_reason"`
}

type ClinicalRecord struct {
	Patient      string `yaml:"patient"`
	Reason       string `yaml:"reason"`
	Diagnosis    string `yaml:"diagnosis"`
	Treatment    string `yaml:"treatment"`
	Allergies    string `yaml:"allergies"`
	Conditions   string `yaml:"conditions"`
	OralExam     string `yaml:"oral_exam"`
	Prescription string `yaml:"prescription"`
}

type Odontogram struct {
	Patient  string         `yaml:"patient"`
	Dentist  string         `yaml:"dentist"`
	Notes    string         `yaml:"notes"`
	Findings []ToothFinding `yaml:"findings"`
}

type ToothFinding struct {
	Tooth     int      `yaml:"tooth"`
	Condition string   `yaml:"condition"`
	Surfaces  []string `yaml:"surfaces"`
	Notes     string   `yaml:"notes"`
}

type TreatmentPlan struct {
	Patient       string        `yaml:"patient"`
	Dentist       string        `yaml:"dentist"`
	Description   string        `yaml:"description"`
	Diagnosis     string        `yaml:"diagnosis"`
	Status        string        `yaml:"status"`
	EstimatedDays int           `yaml:"estimated_days"`
	Budget        Budget        `yaml:"budget"`
	Procedures    []Procedure   `yaml:"procedures"`
	Payments      []PlanPayment `yaml:"payments"`
}

type Budget struct {
	SubtotalCents int64        `yaml:"subtotal_cents"`
	DiscountCents int64        `yaml:"discount_cents"`
	TaxCents      int64        `yaml:"tax_cents"`
	TotalCents    int64        `yaml:"total_cents"`
	Status        string       `yaml:"status"`
	ValidDays     int          `yaml:"valid_days"`
	Items         []BudgetItem `yaml:"items"`
}

type BudgetItem struct {
	Service        string `yaml:"service"`
	Quantity       int    `yaml:"quantity"`
	UnitPriceCents int64  `yaml:"unit_price_cents"`
	DiscountCents  int64  `yaml:"discount_cents"`
	TotalCents     int64  `yaml:"total_cents"`
	Tooth          int    `yaml:"tooth"`
}

type Procedure struct {
	Service     string `yaml:"service"`
	Dentist     string `yaml:"dentist"`
	Tooth       int    `yaml:"tooth"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	DayOffset   int    `yaml:"day_offset"`
	CostCents   int64  `yaml:"cost_cents"`
}

type PlanPayment struct {
	AmountCents int64  `yaml:"amount_cents"`
	Method      string `yaml:"method"`
	Status      string `yaml:"status"`
	Receipt     string `yaml:"receipt"`
	RecordedBy  string `yaml:"recorded_by"`
}

type SupplyCategory struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Supplier struct {
	Key          string `yaml:"key"`
	Name         string `yaml:"name"`
	TaxID        string `yaml:"tax_id"`
	Address      string `yaml:"address"`
	Phone        string `yaml:"phone"`
	Email        string `yaml:"email"`
	ContactName  string `yaml:"contact_name"`
	ContactPhone string `yaml:"contact_phone"`
}

type Supply struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Category      string `yaml:"category"`
	Supplier      string `yaml:"supplier"`
	Stock         int    `yaml:"stock"`
	MinStock      int    `yaml:"min_stock"`
	MaxStock      int    `yaml:"max_stock"`
	Unit          string `yaml:"unit"`
	PurchaseCents int64  `yaml:"purchase_cents"`
	SaleCents     int64  `yaml:"sale_cents"`
	ExpiresOn     string `yaml:"expires_on"`
}

type InventoryAlert struct {
	Supply   string `yaml:"supply"`
	Kind     string `yaml:"kind"`
	Message  string `yaml:"message"`
	Priority string `yaml:"priority"`
}

// Load reads fixture data from path, or the embedded data set when path is
// empty.
func Load(path string) (*Data, error) {
	if path == "" {
		return Parse(embeddedData)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal fixture data: %w", err)
	}
	if err := d.check(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Default returns the embedded data set.
func Default() *Data {
	d, err := Parse(embeddedData)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Data) check() error {
	if d.AnchorDate == "" {
		return errors.New("anchor_date is required")
	}
	anchor, err := time.Parse(dateLayout, d.AnchorDate)
	if err != nil {
		return fmt.Errorf("anchor_date: %w", err)
	}
	d.anchor = anchor

	if d.Admin.Email == "" || d.Admin.Secret == "" {
		return errors.New("admin email and secret are required")
	}
	if d.TimeSlots.StepMinutes <= 0 {
		return errors.New("time_slots.step_minutes must be positive")
	}
	if _, err := d.slots(); err != nil {
		return err
	}
	for _, p := range d.Patients {
		if _, err := time.Parse(dateLayout, p.BirthDate); err != nil {
			return fmt.Errorf("patient %s birth_date: %w", p.Email, err)
		}
	}
	return nil
}

// Day returns the anchor date shifted by offset days, formatted as a date.
func (d *Data) Day(offset int) string {
	return d.anchor.AddDate(0, 0, offset).Format(dateLayout)
}

func (d *Data) slots() ([]string, error) {
	from, err := time.Parse("15:04", d.TimeSlots.From)
	if err != nil {
		return nil, fmt.Errorf("time_slots.from: %w", err)
	}
	until, err := time.Parse("15:04", d.TimeSlots.Until)
	if err != nil {
		return nil, fmt.Errorf("time_slots.until: %w", err)
	}
	var out []string
	step := time.Duration(d.TimeSlots.StepMinutes) * time.Minute
	for t := from; t.Before(until); t = t.Add(step) {
		out = append(out, t.Format("15:04"))
	}
	return out, nil
}
