package dataset

import (
	"context"
	"go/format"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/memory"
	"github.com/atvirokodosprendimai/clinicseed/internal/application"
	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClinicGraphValidates(t *testing.T) {
	g := Graph()
	require.NoError(t, g.Validate())
	require.Len(t, g.Kinds(), 38)

	deletion, err := domain.DeletionPlan(g)
	require.NoError(t, err)
	pos := map[string]int{}
	for i, k := range deletion {
		pos[k] = i
	}
	require.Less(t, pos[OnlinePayments], pos[Appointments])
	require.Less(t, pos[Appointments], pos[Patients])
	require.Less(t, pos[Patients], pos[Users])
	require.Less(t, pos[Users], pos[UserRoles])
	require.Less(t, pos[PlanPayments], pos[Budgets])
	require.Less(t, pos[InventoryAlerts], pos[Supplies])
	require.Less(t, pos[TreatmentSessions], pos[Procedures])
	require.Less(t, pos[TreatmentSessions], pos[TreatmentPlans])
	require.Less(t, pos[InventoryMovements], pos[Supplies])
	for _, k := range []string{DentalTreatments, InformedConsents, ClinicalDocuments} {
		require.Less(t, pos[k], pos[Patients], k)
	}
	require.Less(t, pos[DentalTreatments], pos[Dentists])
	require.Less(t, pos[InformedConsents], pos[Dentists])

	stages := Generator(Default())
	for _, k := range []string{TreatmentSessions, InventoryMovements, DentalTreatments, InformedConsents, ClinicalDocuments} {
		_, ok := stages.Stage(k)
		require.False(t, ok, "%s is delete-only", k)
	}
}

func TestEmbeddedDataLoads(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "admin@clinica.com", d.Admin.Email)
	require.Len(t, d.Patients, 5)
	require.Equal(t, "2025-01-12", d.Day(-3))

	slots, err := d.slots()
	require.NoError(t, err)
	require.Len(t, slots, 20)
	require.Equal(t, "08:00", slots[0])
	require.Equal(t, "17:30", slots[len(slots)-1])
}

func TestLoadOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	content := `anchor_date: "2024-06-01"
admin: {email: root@example.com, secret: s3cret}
time_slots: {from: "09:00", until: "10:00", step_minutes: 15}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "2024-06-02", d.Day(1))
	slots, err := d.slots()
	require.NoError(t, err)
	require.Equal(t, []string{"09:00", "09:15", "09:30", "09:45"}, slots)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Parse([]byte(":\tbad yaml:"))
	require.Error(t, err)

	_, err = Parse([]byte(`anchor_date: "15/01/2025"`))
	require.ErrorContains(t, err, "anchor_date")

	_, err = Parse([]byte(`anchor_date: "2025-01-15"
admin: {email: a@b.c, secret: x}
time_slots: {from: "08:00", until: "09:00", step_minutes: 0}
`))
	require.ErrorContains(t, err, "step_minutes")
}

func newClinicService(t *testing.T) (*application.FixtureService, *memory.Store, *application.TokenIdentity) {
	t.Helper()
	g := Graph()
	store := memory.New(g)
	identity := application.NewTokenIdentity(bcrypt.MinCost)
	svc := application.NewFixtureService(g, store, Generator(Default()), identity,
		application.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return svc, store, identity
}

func TestClinicRebuild(t *testing.T) {
	svc, store, identity := newClinicService(t)

	report, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	want := map[string]int{
		UserRoles: 4, Users: 10, AuthCredentials: 10, Patients: 5, Dentists: 3,
		Receptionists: 1, UserLockouts: 0, AuditEntries: 0, TimeSlots: 20,
		AppointmentStatuses: 6, AppointmentTypes: 4, PaymentTypes: 4, InvoiceStatuses: 3,
		Services: 10, ServiceBundles: 1, ServiceBundleItems: 2, Appointments: 4,
		OnlinePayments: 0, Invoices: 0, InvoiceItems: 0, Payments: 0,
		ClinicalRecords: 2, Odontograms: 1, ToothFindings: 2, TreatmentPlans: 2,
		Budgets: 2, BudgetItems: 3, Procedures: 1, PlanPayments: 1,
		SupplyCategories: 3, Suppliers: 1, Supplies: 2, InventoryAlerts: 1,
		DentalTreatments: 0, InformedConsents: 0, ClinicalDocuments: 0,
		TreatmentSessions: 0, InventoryMovements: 0,
	}
	for kind, n := range want {
		require.Equal(t, n, report.CreatedCount(kind), kind)
		require.Len(t, store.Rows(kind), n, kind)
	}

	require.Len(t, report.Credentials, 10)
	admin := report.Credentials[0]
	require.Equal(t, "admin", admin.Name)
	require.Equal(t, "admin@clinica.com", admin.Email)
	require.Equal(t, "admin123", admin.Secret)
	require.NotEmpty(t, admin.Token)

	creds := store.Rows(AuthCredentials)
	require.True(t, identity.Verify(creds[0].Fields["password_hash"].(string), "admin123"))
	require.Equal(t, application.HashToken(admin.Token), creds[0].Fields["token_digest"])

	appts := store.Rows(Appointments)
	require.Equal(t, "2025-01-12", appts[0].Fields["day"])
	require.Nil(t, appts[2].Fields["receptionist_id"])
}

func TestClinicRebuildIsRepeatable(t *testing.T) {
	svc, _, _ := newClinicService(t)

	first, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	second, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	for _, c := range first.Created {
		require.Equal(t, int64(c.Count), second.DestroyedCount(c.Kind), c.Kind)
		require.Equal(t, c.Count, second.CreatedCount(c.Kind), c.Kind)
	}
	for i, c := range first.Created {
		for j, rec := range c.Records {
			other := second.Created[i].Records[j]
			require.Equal(t, rec.Name, other.Name)
			require.Len(t, other.Fields, len(rec.Fields))
			for k, v := range rec.Fields {
				if strings.HasSuffix(k, "_id") {
					continue
				}
				require.Equal(t, v, other.Fields[k], "%s.%s", rec.Name, k)
			}
		}
	}
}

func TestStagesFailOnUnknownReference(t *testing.T) {
	d := Default()
	d.Appointments[0].Patient = "patient_42"
	g := Graph()
	store := memory.New(g)
	svc := application.NewFixtureService(g, store, Generator(d), application.NewTokenIdentity(bcrypt.MinCost),
		application.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.Rebuild(context.Background())
	var missing *domain.MissingHandleError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "patient_42", missing.Name)
	require.Empty(t, store.Rows(Users))
}

func TestSourcesAreGofmted(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, name := range files {
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		formatted, err := format.Source(src)
		require.NoError(t, err, name)
		require.Equal(t, string(formatted), string(src), "%s is not gofmt-formatted", name)
	}
}
