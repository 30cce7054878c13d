package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/gormstore"
	"github.com/atvirokodosprendimai/clinicseed/internal/application"
	"github.com/atvirokodosprendimai/clinicseed/internal/dataset"
	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
)

func openTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "clinicseed_test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewFixtureStore(db)
}

func newService(store domain.FixtureStore, generator domain.Generator) *application.FixtureService {
	return application.NewFixtureService(dataset.Graph(), store, generator, application.NewTokenIdentity(bcrypt.MinCost),
		application.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func countsByKind(t *testing.T, svc *application.FixtureService) map[string]int64 {
	t.Helper()
	counts, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.Kind] = c.Count
	}
	return out
}

func TestClinicRebuildsTwice(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newService(store, dataset.Generator(dataset.Default()))

	first, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	for _, d := range first.Destroyed {
		if d.Count != 0 {
			t.Fatalf("fresh database destroyed %d %s", d.Count, d.Kind)
		}
	}
	afterFirst := countsByKind(t, svc)

	second, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	for _, c := range first.Created {
		if got := second.DestroyedCount(c.Kind); got != int64(c.Count) {
			t.Fatalf("%s: destroyed %d on second run, created %d on first", c.Kind, got, c.Count)
		}
	}
	afterSecond := countsByKind(t, svc)
	for kind, n := range afterFirst {
		if afterSecond[kind] != n {
			t.Fatalf("%s: %d rows after second run, %d after first", kind, afterSecond[kind], n)
		}
	}
	if afterSecond[dataset.Users] != 10 || afterSecond[dataset.TimeSlots] != 20 {
		t.Fatalf("unexpected counts: %+v", afterSecond)
	}
}

func TestIssuedCredentialsAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newService(store, dataset.Generator(dataset.Default()))

	report, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	identity := application.NewTokenIdentity(bcrypt.MinCost)
	for _, c := range report.Credentials {
		login, err := identity.Authenticate(ctx, store, c.Email, c.Secret, c.Token)
		if err != nil {
			t.Fatalf("authenticate %s: %v", c.Email, err)
		}
		if login.UserID == 0 {
			t.Fatalf("authenticate %s: no user id", c.Email)
		}
	}
	if _, err := identity.Authenticate(ctx, store, "admin@clinica.com", "nope", ""); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestDeleteInCreationOrderIsRefused(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newService(store, dataset.Generator(dataset.Default()))
	if _, err := svc.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	before := countsByKind(t, svc)

	creation, err := domain.CreationPlan(dataset.Graph().MustValidate())
	if err != nil {
		t.Fatalf("creation plan: %v", err)
	}
	err = store.WithTransaction(ctx, func(tx domain.FixtureTx) error {
		for _, kind := range creation {
			if _, err := tx.DeleteAll(ctx, kind); err != nil {
				return err
			}
		}
		return nil
	})
	var refused *domain.DeletionConstraintError
	if !errors.As(err, &refused) {
		t.Fatalf("expected DeletionConstraintError, got %v", err)
	}
	if refused.Kind != dataset.UserRoles {
		t.Fatalf("refused kind = %q, want %q", refused.Kind, dataset.UserRoles)
	}

	after := countsByKind(t, svc)
	for kind, n := range before {
		if after[kind] != n {
			t.Fatalf("%s changed from %d to %d after rollback", kind, n, after[kind])
		}
	}
}

func TestFailedStageLeavesDatabaseUntouched(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newService(store, dataset.Generator(dataset.Default()))
	if _, err := svc.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	before := countsByKind(t, svc)

	boom := errors.New("inventory feed unavailable")
	stages := dataset.Generator(dataset.Default())
	stages[dataset.InventoryAlerts] = func(context.Context, domain.StageInput) ([]domain.Draft, error) {
		return nil, boom
	}
	broken := newService(store, stages)

	_, err := broken.Rebuild(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("expected stage failure, got %v", err)
	}
	var gen *domain.GenerationError
	if !errors.As(err, &gen) || gen.Stage != dataset.InventoryAlerts {
		t.Fatalf("expected GenerationError for %s, got %v", dataset.InventoryAlerts, err)
	}

	after := countsByKind(t, svc)
	for kind, n := range before {
		if after[kind] != n {
			t.Fatalf("%s changed from %d to %d after failed rebuild", kind, n, after[kind])
		}
	}
}

func TestIsForeignKeyViolationIgnoresOtherErrors(t *testing.T) {
	if IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")) {
		t.Fatalf("plain errors are not sqlite errors")
	}
	if IsForeignKeyViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "clinicseed_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	applied, err := gormstore.Migrate(ctx, db, goose.DialectSQLite3, fsys)
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied %d migrations, want 2", applied)
	}
	applied, err = gormstore.Migrate(ctx, db, goose.DialectSQLite3, fsys)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if applied != 0 {
		t.Fatalf("second run applied %d migrations", applied)
	}
}

func TestRebuildClearsDeleteOnlyKinds(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := newService(store, dataset.Generator(dataset.Default()))

	first, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	firstID := func(kind string) uint {
		for _, c := range first.Created {
			if c.Kind == kind && len(c.IDs) > 0 {
				return c.IDs[0]
			}
		}
		t.Fatalf("first rebuild created no %s", kind)
		return 0
	}

	extra := []struct {
		kind   string
		fields func(invoiceID uint) domain.Fields
	}{
		{dataset.UserLockouts, func(uint) domain.Fields {
			return domain.Fields{"user_id": firstID(dataset.Users), "reason": "too many attempts"}
		}},
		{dataset.AuditEntries, func(uint) domain.Fields {
			return domain.Fields{"user_id": firstID(dataset.Users), "action": "login"}
		}},
		{dataset.OnlinePayments, func(uint) domain.Fields {
			return domain.Fields{"appointment_id": firstID(dataset.Appointments), "amount_cents": 15000, "status": "paid"}
		}},
		{dataset.Invoices, func(uint) domain.Fields {
			return domain.Fields{"patient_id": firstID(dataset.Patients), "invoice_status_id": firstID(dataset.InvoiceStatuses), "total_cents": 15000, "issued_on": "2025-01-15"}
		}},
		{dataset.InvoiceItems, func(invoiceID uint) domain.Fields {
			return domain.Fields{"invoice_id": invoiceID, "service_id": firstID(dataset.Services), "total_cents": 15000}
		}},
		{dataset.Payments, func(invoiceID uint) domain.Fields {
			return domain.Fields{"invoice_id": invoiceID, "payment_type_id": firstID(dataset.PaymentTypes), "amount_cents": 15000}
		}},
		{dataset.DentalTreatments, func(uint) domain.Fields {
			return domain.Fields{"patient_id": firstID(dataset.Patients), "dentist_id": firstID(dataset.Dentists), "description": "Resina", "performed_on": "2025-01-15"}
		}},
		{dataset.InformedConsents, func(uint) domain.Fields {
			return domain.Fields{"patient_id": firstID(dataset.Patients), "dentist_id": firstID(dataset.Dentists), "title": "Extraccion"}
		}},
		{dataset.ClinicalDocuments, func(uint) domain.Fields {
			return domain.Fields{"patient_id": firstID(dataset.Patients), "title": "Radiografia", "path": "docs/rx.png"}
		}},
		{dataset.TreatmentSessions, func(uint) domain.Fields {
			return domain.Fields{"treatment_plan_id": firstID(dataset.TreatmentPlans), "procedure_id": firstID(dataset.Procedures), "session_on": "2025-01-20"}
		}},
		{dataset.InventoryMovements, func(uint) domain.Fields {
			return domain.Fields{"supply_id": firstID(dataset.Supplies), "kind": "out", "quantity": 2}
		}},
	}

	err = store.WithTransaction(ctx, func(tx domain.FixtureTx) error {
		var invoiceID uint
		for _, e := range extra {
			id, err := tx.Create(ctx, e.kind, e.fields(invoiceID))
			if err != nil {
				return fmt.Errorf("%s: %w", e.kind, err)
			}
			if e.kind == dataset.Invoices {
				invoiceID = id
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert rows outside the fixture: %v", err)
	}

	second, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	after := countsByKind(t, svc)
	for _, e := range extra {
		if got := second.DestroyedCount(e.kind); got != 1 {
			t.Fatalf("%s: destroyed %d, want 1", e.kind, got)
		}
		if after[e.kind] != 0 {
			t.Fatalf("%s: %d rows left after rebuild", e.kind, after[e.kind])
		}
	}
}
