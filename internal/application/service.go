package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/google/uuid"
)

// FixtureService destroys and recreates the whole dataset described by an
// entity graph inside one store transaction.
type FixtureService struct {
	graph     *domain.EntityGraph
	store     domain.FixtureStore
	generator domain.Generator
	identity  domain.IdentityService
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

type Option func(*FixtureService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *FixtureService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *FixtureService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *FixtureService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewFixtureService(graph *domain.EntityGraph, store domain.FixtureStore, generator domain.Generator, identity domain.IdentityService, opts ...Option) *FixtureService {
	s := &FixtureService{
		graph:     graph,
		store:     store,
		generator: generator,
		identity:  identity,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan validates the graph and returns the deletion and creation orders.
func (s *FixtureService) Plan() ([]string, []string, error) {
	if err := s.graph.Validate(); err != nil {
		return nil, nil, err
	}
	deletion, err := domain.DeletionPlan(s.graph)
	if err != nil {
		return nil, nil, err
	}
	creation, err := domain.CreationPlan(s.graph)
	if err != nil {
		return nil, nil, err
	}
	return deletion, creation, nil
}

// Rebuild replaces every stored record of every registered kind with a
// freshly generated dataset. Either everything is replaced or nothing is.
func (s *FixtureService) Rebuild(ctx context.Context) (domain.FixtureReport, error) {
	started := s.now()

	deletion, creation, err := s.Plan()
	if err != nil {
		return domain.FixtureReport{}, s.fail(&domain.OrchestrationError{Stage: "validate", Err: err})
	}

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID)
	log.Info("rebuilding fixtures", "kinds", len(creation))

	var report *reportBuilder
	err = s.store.WithTransaction(ctx, func(tx domain.FixtureTx) error {
		report = newReportBuilder(runID, started)

		for _, kind := range deletion {
			n, err := tx.DeleteAll(ctx, kind)
			if err != nil {
				return &domain.OrchestrationError{Stage: "delete " + kind, Err: err}
			}
			log.Debug("deleted records", "kind", kind, "count", n)
			report.destroyed(kind, n)
		}

		handles := domain.NewHandleMap()
		for _, kind := range creation {
			records, err := s.createKind(ctx, tx, kind, handles)
			if err != nil {
				return &domain.OrchestrationError{
					Stage: "create " + kind,
					Err:   &domain.GenerationError{Stage: kind, Err: err},
				}
			}
			if len(records) > 0 {
				log.Debug("created records", "kind", kind, "count", len(records))
			}
			report.created(kind, records)
		}

		report.credentials(handles)
		return nil
	})
	if err != nil {
		var orch *domain.OrchestrationError
		if !errors.As(err, &orch) {
			orch = &domain.OrchestrationError{Stage: "commit", Err: err}
		}
		return domain.FixtureReport{}, s.fail(orch)
	}

	finished := s.now()
	out := report.finish(finished)
	s.metrics.observeCommit(out, finished.Sub(started))
	log.Info("fixtures committed", "created", createdTotal(out), "credentials", len(out.Credentials))
	return out, nil
}

// Status returns the current record count of every kind, in deletion order.
func (s *FixtureService) Status(ctx context.Context) ([]domain.KindCount, error) {
	deletion, _, err := s.Plan()
	if err != nil {
		return nil, err
	}
	out := make([]domain.KindCount, 0, len(deletion))
	for _, kind := range deletion {
		n, err := s.store.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", kind, err)
		}
		out = append(out, domain.KindCount{Kind: kind, Count: n})
	}
	return out, nil
}

func (s *FixtureService) createKind(ctx context.Context, tx domain.FixtureTx, kind string, handles *domain.HandleMap) ([]domain.FixtureRecord, error) {
	stage, ok := s.generator.Stage(kind)
	if !ok {
		return nil, nil
	}

	drafts, err := stage(ctx, domain.StageInput{Kind: kind, Handles: handles.View(), Identity: s.identity})
	if err != nil {
		return nil, err
	}

	records := make([]domain.FixtureRecord, 0, len(drafts))
	for i, d := range drafts {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", kind, i+1)
		}
		id, err := tx.Create(ctx, kind, mergeFields(d.Fields, d.Secrets))
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", name, err)
		}
		rec := domain.FixtureRecord{Kind: kind, Name: name, ID: id, Fields: mergeFields(d.Fields, nil)}
		if err := handles.Put(rec, d.Login, d.Token); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *FixtureService) fail(err *domain.OrchestrationError) error {
	s.metrics.observeFailure()
	s.logger.Error("rebuild failed", "stage", err.Stage, "error", err.Err)
	return err
}

func mergeFields(fields, secrets domain.Fields) domain.Fields {
	out := make(domain.Fields, len(fields)+len(secrets))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range secrets {
		out[k] = v
	}
	return out
}

func createdTotal(r domain.FixtureReport) int {
	total := 0
	for _, c := range r.Created {
		total += c.Count
	}
	return total
}
