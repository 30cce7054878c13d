package domain

import "sort"

// Handle collects everything one logical name produced during a run: at
// most one record per kind, plus login details for identity-bearing names.
type Handle struct {
	Name    string
	Records map[string]FixtureRecord
	Login   *Login
	Token   string
	order   int
}

// HandleMap is the run-scoped registry stages use to resolve references to
// records created by earlier stages. Entries are append-only; only the
// coordinator adds to it.
type HandleMap struct {
	handles map[string]*Handle
}

func NewHandleMap() *HandleMap {
	return &HandleMap{handles: map[string]*Handle{}}
}

func (m *HandleMap) Get(name string) (Handle, bool) {
	h, ok := m.handles[name]
	if !ok {
		return Handle{}, false
	}
	return h.clone(), true
}

func (m *HandleMap) Record(name, kind string) (FixtureRecord, error) {
	h, ok := m.handles[name]
	if !ok {
		return FixtureRecord{}, &MissingHandleError{Name: name}
	}
	rec, ok := h.Records[kind]
	if !ok {
		return FixtureRecord{}, &MissingHandleError{Name: name, Kind: kind}
	}
	return rec, nil
}

// ID resolves the identifier of the kind record created under name.
func (m *HandleMap) ID(name, kind string) (uint, error) {
	rec, err := m.Record(name, kind)
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// Names lists, in insertion order, the names holding a record of kind.
func (m *HandleMap) Names(kind string) []string {
	var hs []*Handle
	for _, h := range m.handles {
		if _, ok := h.Records[kind]; ok {
			hs = append(hs, h)
		}
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i].order < hs[j].order })
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Name)
	}
	return out
}

// Logins returns the handles carrying a login, in insertion order.
func (m *HandleMap) Logins() []Handle {
	var out []Handle
	for _, h := range m.handles {
		if h.Login != nil {
			out = append(out, h.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Put adds rec under rec.Name together with the login and token carried by
// the draft that produced it.
func (m *HandleMap) Put(rec FixtureRecord, login *Login, token string) error {
	h, ok := m.handles[rec.Name]
	if !ok {
		h = &Handle{Name: rec.Name, Records: map[string]FixtureRecord{}, order: len(m.handles)}
	}
	if _, dup := h.Records[rec.Kind]; dup {
		return &DuplicateHandleError{Name: rec.Name, Kind: rec.Kind}
	}
	if login != nil && h.Login != nil {
		return &DuplicateHandleError{Name: rec.Name, Kind: "login"}
	}
	if token != "" && h.Token != "" {
		return &DuplicateHandleError{Name: rec.Name, Kind: "token"}
	}

	h.Records[rec.Kind] = rec
	if login != nil {
		l := *login
		h.Login = &l
	}
	if token != "" {
		h.Token = token
	}
	m.handles[rec.Name] = h
	return nil
}

// View returns a read-only window onto m for stages. It tracks later Puts
// but exposes no way to add entries, and records it returns are copies.
func (m *HandleMap) View() HandleView {
	return handleView{m: m}
}

type handleView struct {
	m *HandleMap
}

func (v handleView) Get(name string) (Handle, bool) { return v.m.Get(name) }

func (v handleView) Record(name, kind string) (FixtureRecord, error) {
	rec, err := v.m.Record(name, kind)
	if err != nil {
		return FixtureRecord{}, err
	}
	rec.Fields = rec.Fields.clone()
	return rec, nil
}

func (v handleView) ID(name, kind string) (uint, error) { return v.m.ID(name, kind) }

func (v handleView) Names(kind string) []string { return v.m.Names(kind) }

func (v handleView) Logins() []Handle { return v.m.Logins() }

func (h *Handle) clone() Handle {
	c := *h
	c.Records = make(map[string]FixtureRecord, len(h.Records))
	for k, v := range h.Records {
		v.Fields = v.Fields.clone()
		c.Records[k] = v
	}
	if h.Login != nil {
		l := *h.Login
		c.Login = &l
	}
	return c
}

func (f Fields) clone() Fields {
	if f == nil {
		return nil
	}
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
