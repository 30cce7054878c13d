package domain

import "sort"

// EntityKind is one category of stored record. Name doubles as the storage
// table name.
type EntityKind struct {
	Name                 string
	Predecessors         []string
	ProtectiveDependents []string
	index                int
}

// EntityGraph is the registry of entity kinds and their references. It is
// filled once at startup, validated, and read-only from then on.
type EntityGraph struct {
	kinds     []*EntityKind
	byName    map[string]*EntityKind
	validated bool

	// dependents[k] lists every kind that must be created after k and
	// deleted before it, sorted by declaration order.
	dependents map[string][]string
	// requires[k] is the reverse of dependents.
	requires map[string][]string
}

func NewEntityGraph() *EntityGraph {
	return &EntityGraph{byName: map[string]*EntityKind{}}
}

// Register declares a kind, the kinds it references, and the kinds whose
// existing records forbid deleting it.
func (g *EntityGraph) Register(name string, predecessors, protectiveDependents []string) error {
	if g.validated {
		return &RegistryFrozenError{Kind: name}
	}
	if _, ok := g.byName[name]; ok {
		return &DuplicateKindError{Kind: name}
	}
	k := &EntityKind{
		Name:                 name,
		Predecessors:         append([]string(nil), predecessors...),
		ProtectiveDependents: append([]string(nil), protectiveDependents...),
		index:                len(g.kinds),
	}
	g.kinds = append(g.kinds, k)
	g.byName[name] = k
	return nil
}

// MustRegister is Register for static graph definitions.
func (g *EntityGraph) MustRegister(name string, predecessors, protectiveDependents []string) {
	if err := g.Register(name, predecessors, protectiveDependents); err != nil {
		panic(err)
	}
}

// Validate checks that every edge names a registered kind and that the
// merged reference relation is acyclic. On success the graph is frozen;
// calling Validate again is a no-op.
func (g *EntityGraph) Validate() error {
	if g.validated {
		return nil
	}
	for _, k := range g.kinds {
		for _, ref := range k.Predecessors {
			if _, ok := g.byName[ref]; !ok {
				return &UnknownReferenceError{Kind: k.Name, Reference: ref}
			}
		}
		for _, ref := range k.ProtectiveDependents {
			if _, ok := g.byName[ref]; !ok {
				return &UnknownReferenceError{Kind: k.Name, Reference: ref}
			}
		}
	}

	dependents, requires := g.edges()
	if cycle := findCycle(g.kinds, dependents); cycle != nil {
		return &CyclicDependencyError{Cycle: cycle}
	}

	g.dependents = dependents
	g.requires = requires
	g.validated = true
	return nil
}

func (g *EntityGraph) MustValidate() *EntityGraph {
	if err := g.Validate(); err != nil {
		panic(err)
	}
	return g
}

func (g *EntityGraph) Validated() bool { return g.validated }

// Kinds returns the kinds in declaration order.
func (g *EntityGraph) Kinds() []EntityKind {
	out := make([]EntityKind, 0, len(g.kinds))
	for _, k := range g.kinds {
		out = append(out, *k)
	}
	return out
}

func (g *EntityGraph) Kind(name string) (EntityKind, bool) {
	k, ok := g.byName[name]
	if !ok {
		return EntityKind{}, false
	}
	return *k, true
}

// Dependents lists the kinds whose records reference name or protect it,
// i.e. every kind that has to be emptied before name can be. Nil until the
// graph is validated.
func (g *EntityGraph) Dependents(name string) []string {
	return append([]string(nil), g.dependents[name]...)
}

// Requires lists the kinds that have to exist before name can be created.
// Nil until the graph is validated.
func (g *EntityGraph) Requires(name string) []string {
	return append([]string(nil), g.requires[name]...)
}

// edges merges predecessor and protective references into one relation:
// an edge a -> b means a is created before b and deleted after it.
func (g *EntityGraph) edges() (map[string][]string, map[string][]string) {
	dependents := make(map[string][]string, len(g.kinds))
	requires := make(map[string][]string, len(g.kinds))
	seen := map[[2]string]bool{}
	add := func(from, to string) {
		key := [2]string{from, to}
		if seen[key] {
			return
		}
		seen[key] = true
		dependents[from] = append(dependents[from], to)
		requires[to] = append(requires[to], from)
	}
	for _, k := range g.kinds {
		for _, p := range k.Predecessors {
			add(p, k.Name)
		}
		for _, d := range k.ProtectiveDependents {
			add(k.Name, d)
		}
	}
	byIndex := func(names []string) {
		sort.SliceStable(names, func(i, j int) bool {
			return g.byName[names[i]].index < g.byName[names[j]].index
		})
	}
	for _, v := range dependents {
		byIndex(v)
	}
	for _, v := range requires {
		byIndex(v)
	}
	return dependents, requires
}

// findCycle runs a colored DFS in declaration order and returns the kinds of
// the first cycle found, closing with the starting kind.
func findCycle(kinds []*EntityKind, dependents map[string][]string) []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(kinds))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = grey
		stack = append(stack, name)
		for _, next := range dependents[name] {
			switch color[next] {
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle = append(append([]string(nil), stack[i:]...), next)
						return true
					}
				}
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, k := range kinds {
		if color[k.Name] == white && visit(k.Name) {
			return cycle
		}
	}
	return nil
}
