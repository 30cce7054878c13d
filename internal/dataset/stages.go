package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

type stages struct {
	data *Data
}

// refs resolves handles and keeps the first failure so a stage can build a
// whole field set before checking for errors.
type refs struct {
	h   domain.HandleView
	err error
}

func (r *refs) id(name, kind string) any {
	if r.err != nil {
		return nil
	}
	id, err := r.h.ID(name, kind)
	if err != nil {
		r.err = err
		return nil
	}
	return id
}

func (r *refs) optional(name, kind string) any {
	if name == "" {
		return nil
	}
	return r.id(name, kind)
}

func ordinal(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i+1)
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func amount(cents int64) any {
	if cents == 0 {
		return nil
	}
	return cents
}

func (s *stages) userRoles(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.Roles))
	for _, r := range s.data.Roles {
		out = append(out, domain.Draft{
			Name:   "role_" + r.Key,
			Fields: domain.Fields{"code": r.Key, "name": r.Name, "description": r.Description},
		})
	}
	return out, nil
}

func (s *stages) users(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	add := func(name, role string, p Person) {
		out = append(out, domain.Draft{
			Name: name,
			Fields: domain.Fields{
				"role_id":       r.id("role_"+role, UserRoles),
				"first_name":    p.FirstName,
				"last_name":     p.LastName,
				"email":         p.Email,
				"sex":           p.Sex,
				"phone":         p.Phone,
				"notifications": p.Notifications,
			},
			Login: &domain.Login{Role: role, Email: p.Email, Secret: p.Secret},
		})
	}

	add("admin", "admin", s.data.Admin)
	for i, d := range s.data.Dentists {
		add(ordinal("dentist", i), "dentist", d.Person)
	}
	for i, rc := range s.data.Receptionists {
		add(ordinal("receptionist", i), "receptionist", rc.Person)
	}
	for i, p := range s.data.Patients {
		add(ordinal("patient", i), "patient", p.Person)
	}
	return out, r.err
}

// authCredentials issues one credential per login created by the users
// stage. Digests go to the store as secrets; the plain token is kept on the
// handle for the report.
func (s *stages) authCredentials(ctx context.Context, in domain.StageInput) ([]domain.Draft, error) {
	logins := in.Handles.Logins()
	out := make([]domain.Draft, 0, len(logins))
	for _, h := range logins {
		user, ok := h.Records[Users]
		if !ok {
			return nil, &domain.MissingHandleError{Name: h.Name, Kind: Users}
		}
		cred, err := in.Identity.IssueCredential(ctx, user.ID, h.Login.Secret)
		if err != nil {
			return nil, fmt.Errorf("credential for %s: %w", h.Name, err)
		}
		out = append(out, domain.Draft{
			Name:    h.Name,
			Fields:  domain.Fields{"user_id": cred.SubjectID},
			Secrets: domain.Fields{"password_hash": cred.SecretDigest, "token_digest": cred.TokenDigest},
			Token:   cred.Token,
		})
	}
	return out, nil
}

func (s *stages) patients(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Patients))
	for i, p := range s.data.Patients {
		name := ordinal("patient", i)
		out = append(out, domain.Draft{
			Name: name,
			Fields: domain.Fields{
				"user_id":     r.id(name, Users),
				"national_id": p.NationalID,
				"birth_date":  p.BirthDate,
				"address":     p.Address,
			},
		})
	}
	return out, r.err
}

func (s *stages) dentists(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Dentists))
	for i, d := range s.data.Dentists {
		name := ordinal("dentist", i)
		out = append(out, domain.Draft{
			Name: name,
			Fields: domain.Fields{
				"user_id":    r.id(name, Users),
				"specialty":  d.Specialty,
				"license":    d.License,
				"experience": d.Experience,
			},
		})
	}
	return out, r.err
}

func (s *stages) receptionists(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Receptionists))
	for i, rc := range s.data.Receptionists {
		name := ordinal("receptionist", i)
		out = append(out, domain.Draft{
			Name:   name,
			Fields: domain.Fields{"user_id": r.id(name, Users), "skills": rc.Skills},
		})
	}
	return out, r.err
}

func (s *stages) timeSlots(context.Context, domain.StageInput) ([]domain.Draft, error) {
	slots, err := s.data.slots()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Draft, 0, len(slots))
	for _, t := range slots {
		out = append(out, domain.Draft{Name: "slot_" + t, Fields: domain.Fields{"starts_at": t}})
	}
	return out, nil
}

func catalog(prefix string, items []Catalog) domain.StageFunc {
	return func(context.Context, domain.StageInput) ([]domain.Draft, error) {
		out := make([]domain.Draft, 0, len(items))
		for _, c := range items {
			out = append(out, domain.Draft{
				Name:   prefix + c.Key,
				Fields: domain.Fields{"code": c.Key, "name": c.Name},
			})
		}
		return out, nil
	}
}

func (s *stages) appointmentTypes(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.AppointmentTypes))
	for _, t := range s.data.AppointmentTypes {
		out = append(out, domain.Draft{
			Name: "appointment_type_" + t.Key,
			Fields: domain.Fields{
				"code":             t.Key,
				"name":             t.Name,
				"web_booking":      t.WebBooking,
				"needs_approval":   t.NeedsApproval,
				"emergency":        t.Emergency,
				"duration_minutes": t.DurationMinutes,
			},
		})
	}
	return out, nil
}

func (s *stages) services(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.Services))
	for _, sv := range s.data.Services {
		out = append(out, domain.Draft{
			Name: "service_" + sv.Key,
			Fields: domain.Fields{
				"code":             sv.Key,
				"name":             sv.Name,
				"description":      "Servicio de " + strings.ToLower(sv.Name),
				"price_cents":      sv.PriceCents,
				"duration_minutes": sv.DurationMinutes,
				"active":           true,
			},
		})
	}
	return out, nil
}

func (s *stages) serviceBundles(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.Bundles))
	for _, b := range s.data.Bundles {
		out = append(out, domain.Draft{
			Name: "bundle_" + b.Key,
			Fields: domain.Fields{
				"code":        b.Key,
				"name":        b.Name,
				"description": b.Description,
				"price_kind":  b.PriceKind,
				"price_value": b.PriceValue,
				"active":      true,
			},
		})
	}
	return out, nil
}

func (s *stages) serviceBundleItems(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	for _, b := range s.data.Bundles {
		for j, item := range b.Items {
			out = append(out, domain.Draft{
				Name: fmt.Sprintf("bundle_%s_item_%d", b.Key, j+1),
				Fields: domain.Fields{
					"bundle_id":  r.id("bundle_"+b.Key, ServiceBundles),
					"service_id": r.id("service_"+item.Service, Services),
					"quantity":   item.Quantity,
					"position":   j + 1,
				},
			})
		}
	}
	return out, r.err
}

func (s *stages) appointments(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Appointments))
	for i, a := range s.data.Appointments {
		out = append(out, domain.Draft{
			Name: ordinal("appointment", i),
			Fields: domain.Fields{
				"patient_id":            r.id(a.Patient, Patients),
				"dentist_id":            r.id(a.Dentist, Dentists),
				"receptionist_id":       r.optional(a.Receptionist, Receptionists),
				"time_slot_id":          r.id("slot_"+a.Slot, TimeSlots),
				"appointment_type_id":   r.id("appointment_type_"+a.Type, AppointmentTypes),
				"appointment_status_id": r.id("appointment_status_"+a.Status, AppointmentStatuses),
				"day":                   s.data.Day(a.DayOffset),
				"reason":                a.Reason,
				"diagnosis":             text(a.Diagnosis),
				"treatment":             text(a.Treatment),
				"fee_cents":             amount(a.FeeCents),
				"notes":                 text(a.Notes),
				"cancel_reason":         text(a.CancelReason),
			},
		})
	}
	return out, r.err
}

func (s *stages) clinicalRecords(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.ClinicalRecords))
	for i, c := range s.data.ClinicalRecords {
		out = append(out, domain.Draft{
			Name: ordinal("clinical_record", i),
			Fields: domain.Fields{
				"patient_id":   r.id(c.Patient, Patients),
				"reason":       c.Reason,
				"diagnosis":    c.Diagnosis,
				"treatment":    c.Treatment,
				"allergies":    text(c.Allergies),
				"conditions":   text(c.Conditions),
				"oral_exam":    text(c.OralExam),
				"prescription": text(c.Prescription),
			},
		})
	}
	return out, r.err
}

func (s *stages) odontograms(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Odontograms))
	for i, o := range s.data.Odontograms {
		out = append(out, domain.Draft{
			Name: ordinal("odontogram", i),
			Fields: domain.Fields{
				"patient_id": r.id(o.Patient, Patients),
				"dentist_id": r.id(o.Dentist, Dentists),
				"notes":      text(o.Notes),
			},
		})
	}
	return out, r.err
}

func (s *stages) toothFindings(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	for i, o := range s.data.Odontograms {
		chart := ordinal("odontogram", i)
		for _, f := range o.Findings {
			out = append(out, domain.Draft{
				Name: fmt.Sprintf("%s_tooth_%d", chart, f.Tooth),
				Fields: domain.Fields{
					"odontogram_id": r.id(chart, Odontograms),
					"tooth":         f.Tooth,
					"condition":     f.Condition,
					"surfaces":      strings.Join(f.Surfaces, ","),
					"notes":         text(f.Notes),
				},
			})
		}
	}
	return out, r.err
}

func (s *stages) treatmentPlans(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.TreatmentPlans))
	for i, p := range s.data.TreatmentPlans {
		out = append(out, domain.Draft{
			Name: ordinal("plan", i),
			Fields: domain.Fields{
				"patient_id":     r.id(p.Patient, Patients),
				"dentist_id":     r.id(p.Dentist, Dentists),
				"description":    p.Description,
				"diagnosis":      p.Diagnosis,
				"status":         p.Status,
				"estimated_days": p.EstimatedDays,
			},
		})
	}
	return out, r.err
}

// budgets are filed under the plan's handle name: every plan has exactly one.
func (s *stages) budgets(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.TreatmentPlans))
	for i, p := range s.data.TreatmentPlans {
		name := ordinal("plan", i)
		var validUntil any
		if p.Budget.ValidDays > 0 {
			validUntil = s.data.Day(p.Budget.ValidDays)
		}
		out = append(out, domain.Draft{
			Name: name,
			Fields: domain.Fields{
				"treatment_plan_id": r.id(name, TreatmentPlans),
				"subtotal_cents":    p.Budget.SubtotalCents,
				"discount_cents":    p.Budget.DiscountCents,
				"tax_cents":         p.Budget.TaxCents,
				"total_cents":       p.Budget.TotalCents,
				"status":            p.Budget.Status,
				"valid_until":       validUntil,
			},
		})
	}
	return out, r.err
}

func (s *stages) budgetItems(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	for i, p := range s.data.TreatmentPlans {
		plan := ordinal("plan", i)
		for j, item := range p.Budget.Items {
			var tooth any
			if item.Tooth > 0 {
				tooth = item.Tooth
			}
			out = append(out, domain.Draft{
				Name: fmt.Sprintf("%s_item_%d", plan, j+1),
				Fields: domain.Fields{
					"budget_id":        r.id(plan, Budgets),
					"service_id":       r.id("service_"+item.Service, Services),
					"quantity":         item.Quantity,
					"unit_price_cents": item.UnitPriceCents,
					"discount_cents":   item.DiscountCents,
					"total_cents":      item.TotalCents,
					"tooth":            tooth,
				},
			})
		}
	}
	return out, r.err
}

func (s *stages) procedures(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	for i, p := range s.data.TreatmentPlans {
		plan := ordinal("plan", i)
		for j, pr := range p.Procedures {
			out = append(out, domain.Draft{
				Name: fmt.Sprintf("%s_procedure_%d", plan, j+1),
				Fields: domain.Fields{
					"treatment_plan_id": r.id(plan, TreatmentPlans),
					"service_id":        r.id("service_"+pr.Service, Services),
					"dentist_id":        r.id(pr.Dentist, Dentists),
					"tooth":             pr.Tooth,
					"description":       pr.Description,
					"status":            pr.Status,
					"planned_on":        s.data.Day(pr.DayOffset),
					"cost_cents":        pr.CostCents,
				},
			})
		}
	}
	return out, r.err
}

func (s *stages) planPayments(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	var out []domain.Draft
	for i, p := range s.data.TreatmentPlans {
		plan := ordinal("plan", i)
		for j, pay := range p.Payments {
			out = append(out, domain.Draft{
				Name: fmt.Sprintf("%s_payment_%d", plan, j+1),
				Fields: domain.Fields{
					"treatment_plan_id": r.id(plan, TreatmentPlans),
					"budget_id":         r.id(plan, Budgets),
					"amount_cents":      pay.AmountCents,
					"method":            pay.Method,
					"status":            pay.Status,
					"receipt":           pay.Receipt,
					"recorded_by":       pay.RecordedBy,
				},
			})
		}
	}
	return out, r.err
}

func (s *stages) supplyCategories(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.SupplyCategories))
	for _, c := range s.data.SupplyCategories {
		out = append(out, domain.Draft{
			Name:   "supply_category_" + c.Key,
			Fields: domain.Fields{"code": c.Key, "name": c.Name, "description": c.Description},
		})
	}
	return out, nil
}

func (s *stages) suppliers(context.Context, domain.StageInput) ([]domain.Draft, error) {
	out := make([]domain.Draft, 0, len(s.data.Suppliers))
	for _, sp := range s.data.Suppliers {
		out = append(out, domain.Draft{
			Name: "supplier_" + sp.Key,
			Fields: domain.Fields{
				"code":          sp.Key,
				"name":          sp.Name,
				"tax_id":        sp.TaxID,
				"address":       sp.Address,
				"phone":         sp.Phone,
				"email":         sp.Email,
				"contact_name":  sp.ContactName,
				"contact_phone": sp.ContactPhone,
			},
		})
	}
	return out, nil
}

func (s *stages) supplies(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.Supplies))
	for _, sp := range s.data.Supplies {
		out = append(out, domain.Draft{
			Name: "supply_" + sp.Code,
			Fields: domain.Fields{
				"code":           sp.Code,
				"name":           sp.Name,
				"description":    sp.Description,
				"category_id":    r.id("supply_category_"+sp.Category, SupplyCategories),
				"supplier_id":    r.id("supplier_"+sp.Supplier, Suppliers),
				"stock":          sp.Stock,
				"min_stock":      sp.MinStock,
				"max_stock":      sp.MaxStock,
				"unit":           sp.Unit,
				"purchase_cents": sp.PurchaseCents,
				"sale_cents":     amount(sp.SaleCents),
				"expires_on":     text(sp.ExpiresOn),
			},
		})
	}
	return out, r.err
}

func (s *stages) inventoryAlerts(_ context.Context, in domain.StageInput) ([]domain.Draft, error) {
	r := &refs{h: in.Handles}
	out := make([]domain.Draft, 0, len(s.data.InventoryAlerts))
	for i, a := range s.data.InventoryAlerts {
		out = append(out, domain.Draft{
			Name: ordinal("inventory_alert", i),
			Fields: domain.Fields{
				"supply_id": r.id("supply_"+a.Supply, Supplies),
				"kind":      a.Kind,
				"message":   a.Message,
				"priority":  a.Priority,
			},
		})
	}
	return out, r.err
}
