package domain

import "context"

// FixtureStore is the data store the orchestrator rebuilds. WithTransaction
// commits when fn returns nil and rolls back every write made through tx
// otherwise.
type FixtureStore interface {
	WithTransaction(ctx context.Context, fn func(tx FixtureTx) error) error
	Count(ctx context.Context, kind string) (int64, error)
}

// FixtureTx is the write surface available inside one transaction.
type FixtureTx interface {
	DeleteAll(ctx context.Context, kind string) (int64, error)
	Create(ctx context.Context, kind string, fields Fields) (uint, error)
}

type IdentityService interface {
	IssueCredential(ctx context.Context, subjectID uint, secret string) (Credential, error)
}

// HandleView is the read-only side of a HandleMap handed to stages.
type HandleView interface {
	Get(name string) (Handle, bool)
	Record(name, kind string) (FixtureRecord, error)
	ID(name, kind string) (uint, error)
	Names(kind string) []string
	Logins() []Handle
}

type StageInput struct {
	Kind     string
	Handles  HandleView
	Identity IdentityService
}

// StageFunc synthesizes the records of one kind. It must resolve every
// reference to an earlier record through in.Handles.
type StageFunc func(ctx context.Context, in StageInput) ([]Draft, error)

type Generator interface {
	Stage(kind string) (StageFunc, bool)
}

// Stages is a Generator backed by a fixed kind -> stage table.
type Stages map[string]StageFunc

func (s Stages) Stage(kind string) (StageFunc, bool) {
	fn, ok := s[kind]
	return fn, ok
}

// LoginDirectory looks up persisted logins by email. It returns
// ErrLoginNotFound when no user has that email.
type LoginDirectory interface {
	FindLogin(ctx context.Context, email string) (StoredLogin, error)
}
