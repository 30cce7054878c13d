// Package dataset defines the dental clinic fixture: the entity graph of its
// tables and the generator stages that fill them from Data.
package dataset

import "github.com/atvirokodosprendimai/clinicseed/internal/domain"

const (
	UserRoles           = "user_roles"
	Users               = "users"
	AuthCredentials     = "auth_credentials"
	Patients            = "patients"
	Dentists            = "dentists"
	Receptionists       = "receptionists"
	UserLockouts        = "user_lockouts"
	AuditEntries        = "audit_entries"
	TimeSlots           = "time_slots"
	AppointmentStatuses = "appointment_statuses"
	AppointmentTypes    = "appointment_types"
	PaymentTypes        = "payment_types"
	InvoiceStatuses     = "invoice_statuses"
	Services            = "services"
	ServiceBundles      = "service_bundles"
	ServiceBundleItems  = "service_bundle_items"
	Appointments        = "appointments"
	OnlinePayments      = "online_payments"
	Invoices            = "invoices"
	InvoiceItems        = "invoice_items"
	Payments            = "payments"
	ClinicalRecords     = "clinical_records"
	Odontograms         = "odontograms"
	ToothFindings       = "tooth_findings"
	DentalTreatments    = "dental_treatments"
	InformedConsents    = "informed_consents"
	ClinicalDocuments   = "clinical_documents"
	TreatmentPlans      = "treatment_plans"
	Budgets             = "budgets"
	BudgetItems         = "budget_items"
	Procedures          = "procedures"
	PlanPayments        = "plan_payments"
	TreatmentSessions   = "treatment_sessions"
	SupplyCategories    = "supply_categories"
	Suppliers           = "suppliers"
	Supplies            = "supplies"
	InventoryAlerts     = "inventory_alerts"
	InventoryMovements  = "inventory_movements"
)

// Graph returns a fresh, unvalidated graph of the clinic tables. Kind names
// are table names.
func Graph() *domain.EntityGraph {
	g := domain.NewEntityGraph()

	g.MustRegister(UserRoles, nil, nil)
	g.MustRegister(Users, []string{UserRoles}, nil)
	g.MustRegister(AuthCredentials, []string{Users}, nil)
	g.MustRegister(Patients, []string{Users}, nil)
	g.MustRegister(Dentists, []string{Users}, nil)
	g.MustRegister(Receptionists, []string{Users}, nil)
	g.MustRegister(UserLockouts, []string{Users}, nil)
	g.MustRegister(AuditEntries, []string{Users}, nil)

	g.MustRegister(TimeSlots, nil, nil)
	g.MustRegister(AppointmentStatuses, nil, nil)
	g.MustRegister(AppointmentTypes, nil, nil)
	g.MustRegister(PaymentTypes, nil, nil)
	g.MustRegister(InvoiceStatuses, nil, nil)

	g.MustRegister(Services, nil, nil)
	g.MustRegister(ServiceBundles, nil, nil)
	g.MustRegister(ServiceBundleItems, []string{ServiceBundles, Services}, nil)

	// Online payments hold a PROTECT reference to their appointment.
	g.MustRegister(Appointments,
		[]string{Patients, Dentists, Receptionists, TimeSlots, AppointmentTypes, AppointmentStatuses},
		[]string{OnlinePayments})
	g.MustRegister(OnlinePayments, []string{Appointments}, nil)

	g.MustRegister(Invoices, []string{Patients, InvoiceStatuses}, nil)
	g.MustRegister(InvoiceItems, []string{Invoices, Services}, nil)
	g.MustRegister(Payments, []string{Invoices, PaymentTypes}, nil)

	g.MustRegister(ClinicalRecords, []string{Patients}, nil)
	g.MustRegister(Odontograms, []string{Patients, Dentists}, nil)
	g.MustRegister(ToothFindings, []string{Odontograms}, nil)
	g.MustRegister(DentalTreatments, []string{Patients, Dentists}, nil)
	g.MustRegister(InformedConsents, []string{Patients, Dentists}, nil)
	g.MustRegister(ClinicalDocuments, []string{Patients}, nil)

	g.MustRegister(TreatmentPlans, []string{Patients, Dentists}, nil)
	g.MustRegister(Budgets, []string{TreatmentPlans}, nil)
	g.MustRegister(BudgetItems, []string{Budgets, Services}, nil)
	g.MustRegister(Procedures, []string{TreatmentPlans, Services, Dentists}, nil)
	g.MustRegister(PlanPayments, []string{TreatmentPlans, Budgets}, nil)
	g.MustRegister(TreatmentSessions, []string{TreatmentPlans, Procedures}, nil)

	g.MustRegister(SupplyCategories, nil, nil)
	g.MustRegister(Suppliers, nil, nil)
	g.MustRegister(Supplies, []string{SupplyCategories, Suppliers}, nil)
	g.MustRegister(InventoryAlerts, []string{Supplies}, nil)
	g.MustRegister(InventoryMovements, []string{Supplies}, nil)

	return g
}

// Generator returns the stages that build the clinic from data. Kinds with
// no stage (lockouts, audit entries, online payments, billing, treatment
// sessions, inventory movements and clinical paperwork) are emptied on every
// rebuild and left empty.
func Generator(data *Data) domain.Stages {
	s := &stages{data: data}
	return domain.Stages{
		UserRoles:           s.userRoles,
		Users:               s.users,
		AuthCredentials:     s.authCredentials,
		Patients:            s.patients,
		Dentists:            s.dentists,
		Receptionists:       s.receptionists,
		TimeSlots:           s.timeSlots,
		AppointmentStatuses: catalog("appointment_status_", data.AppointmentStatuses),
		AppointmentTypes:    s.appointmentTypes,
		PaymentTypes:        catalog("payment_type_", data.PaymentTypes),
		InvoiceStatuses:     catalog("invoice_status_", data.InvoiceStatuses),
		Services:            s.services,
		ServiceBundles:      s.serviceBundles,
		ServiceBundleItems:  s.serviceBundleItems,
		Appointments:        s.appointments,
		ClinicalRecords:     s.clinicalRecords,
		Odontograms:         s.odontograms,
		ToothFindings:       s.toothFindings,
		TreatmentPlans:      s.treatmentPlans,
		Budgets:             s.budgets,
		BudgetItems:         s.budgetItems,
		Procedures:          s.procedures,
		PlanPayments:        s.planPayments,
		SupplyCategories:    s.supplyCategories,
		Suppliers:           s.suppliers,
		Supplies:            s.supplies,
		InventoryAlerts:     s.inventoryAlerts,
	}
}
