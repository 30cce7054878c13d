// Package memory provides an in-memory fixture store used by tests and dry
// runs. References are enforced at kind level: a kind cannot be emptied
// while any kind depending on it still holds records.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

var _ domain.FixtureStore = (*Store)(nil)

type Row struct {
	ID     uint
	Fields domain.Fields
}

type Store struct {
	mu    sync.Mutex
	graph *domain.EntityGraph
	state state
}

type state struct {
	tables map[string]map[uint]domain.Fields
	seq    map[string]uint
}

func New(graph *domain.EntityGraph) *Store {
	return &Store{
		graph: graph,
		state: state{tables: map[string]map[uint]domain.Fields{}, seq: map[string]uint{}},
	}
}

// WithTransaction runs fn against a private copy of the store and swaps it
// in only when fn succeeds.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx domain.FixtureTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &transaction{graph: s.graph, state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) Count(_ context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graph.Kind(kind); !ok {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	return int64(len(s.state.tables[kind])), nil
}

// Rows returns a copy of the committed rows of kind ordered by id.
func (s *Store) Rows(kind string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := s.state.tables[kind]
	out := make([]Row, 0, len(table))
	for id, f := range table {
		out = append(out, Row{ID: id, Fields: cloneFields(f)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot returns a copy of every committed row keyed by kind.
func (s *Store) Snapshot() map[string][]Row {
	out := map[string][]Row{}
	for _, k := range s.graph.Kinds() {
		out[k.Name] = s.Rows(k.Name)
	}
	return out
}

type transaction struct {
	graph *domain.EntityGraph
	state state
}

func (tx *transaction) DeleteAll(ctx context.Context, kind string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, ok := tx.graph.Kind(kind); !ok {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	if !tx.graph.Validated() {
		return 0, errors.New("entity graph is not validated")
	}
	for _, dep := range tx.graph.Dependents(kind) {
		if n := len(tx.state.tables[dep]); n > 0 {
			return 0, &domain.DeletionConstraintError{
				Kind: kind,
				Err:  fmt.Errorf("%d %s records still depend on it", n, dep),
			}
		}
	}
	n := int64(len(tx.state.tables[kind]))
	delete(tx.state.tables, kind)
	return n, nil
}

func (tx *transaction) Create(ctx context.Context, kind string, fields domain.Fields) (uint, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, ok := tx.graph.Kind(kind); !ok {
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	tx.state.seq[kind]++
	id := tx.state.seq[kind]
	if tx.state.tables[kind] == nil {
		tx.state.tables[kind] = map[uint]domain.Fields{}
	}
	tx.state.tables[kind][id] = cloneFields(fields)
	return id, nil
}

func (st state) clone() state {
	out := state{
		tables: make(map[string]map[uint]domain.Fields, len(st.tables)),
		seq:    make(map[string]uint, len(st.seq)),
	}
	for kind, table := range st.tables {
		t := make(map[uint]domain.Fields, len(table))
		for id, f := range table {
			t[id] = cloneFields(f)
		}
		out.tables[kind] = t
	}
	for kind, n := range st.seq {
		out.seq[kind] = n
	}
	return out
}

func cloneFields(f domain.Fields) domain.Fields {
	out := make(domain.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
