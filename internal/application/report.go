package application

import (
	"time"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

type reportBuilder struct {
	report domain.FixtureReport
}

func newReportBuilder(runID string, started time.Time) *reportBuilder {
	return &reportBuilder{report: domain.FixtureReport{
		RunID:       runID,
		StartedAt:   started,
		Destroyed:   []domain.KindCount{},
		Created:     []domain.KindCreated{},
		Credentials: []domain.IssuedLogin{},
	}}
}

func (b *reportBuilder) destroyed(kind string, n int64) {
	b.report.Destroyed = append(b.report.Destroyed, domain.KindCount{Kind: kind, Count: n})
}

func (b *reportBuilder) created(kind string, records []domain.FixtureRecord) {
	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if records == nil {
		records = []domain.FixtureRecord{}
	}
	b.report.Created = append(b.report.Created, domain.KindCreated{
		Kind:    kind,
		Count:   len(records),
		IDs:     ids,
		Records: records,
	})
}

func (b *reportBuilder) credentials(handles *domain.HandleMap) {
	for _, h := range handles.Logins() {
		b.report.Credentials = append(b.report.Credentials, domain.IssuedLogin{
			Name:   h.Name,
			Role:   h.Login.Role,
			Email:  h.Login.Email,
			Secret: h.Login.Secret,
			Token:  h.Token,
		})
	}
}

func (b *reportBuilder) finish(at time.Time) domain.FixtureReport {
	b.report.FinishedAt = at
	return b.report
}
