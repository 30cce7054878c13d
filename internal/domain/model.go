package domain

import "time"

// Fields maps column name to value. Values are plain scalars (string, int64,
// bool, nil) so two runs over the same input compare equal.
type Fields map[string]any

type FixtureRecord struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	ID     uint   `json:"id"`
	Fields Fields `json:"fields"`
}

// Draft is one record a generator stage asks to create. Secrets are written
// to the store next to Fields but never appear in records or reports.
type Draft struct {
	Name    string
	Fields  Fields
	Secrets Fields
	Login   *Login
	Token   string
}

// Login is what a person needs to sign in to the seeded dataset.
type Login struct {
	Role   string `json:"role"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// Credential is issued by the identity service for one subject.
type Credential struct {
	SubjectID    uint
	Token        string
	TokenDigest  string
	SecretDigest string
}

type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

type KindCreated struct {
	Kind    string          `json:"kind"`
	Count   int             `json:"count"`
	IDs     []uint          `json:"ids"`
	Records []FixtureRecord `json:"records"`
}

type IssuedLogin struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Token  string `json:"token,omitempty"`
}

type FixtureReport struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Destroyed   []KindCount   `json:"destroyed"`
	Created     []KindCreated `json:"created"`
	Credentials []IssuedLogin `json:"credentials"`
}

// CreatedCount returns the number of records created for kind.
func (r FixtureReport) CreatedCount(kind string) int {
	for _, c := range r.Created {
		if c.Kind == kind {
			return c.Count
		}
	}
	return 0
}

// DestroyedCount returns the number of records deleted for kind.
func (r FixtureReport) DestroyedCount(kind string) int64 {
	for _, c := range r.Destroyed {
		if c.Kind == kind {
			return c.Count
		}
	}
	return 0
}

// StoredLogin is a persisted login as read back from the store.
type StoredLogin struct {
	UserID       uint
	Email        string
	PasswordHash string
	TokenDigest  string
}
