package container

import (
	"sort"
)

// contextualGive is what a scoped alias hands out: a type to build, a raw
// value or a factory.
type contextualGive struct {
	id      TypeID
	value   any
	factory Factory
}

// preparer decorates an instance after construction and before caching.
type preparer func(instance any, b *Builder) (any, error)

// lazyLoader registers bindings on first use of any of its ids.
type lazyLoader struct {
	ids  []TypeID
	load func(b *Builder) error
}

// store is the binding store. It holds data only; resolution lives in
// resolver.go. Every method must be called with the container lock held.
type store struct {
	// abstract → concrete
	aliases map[TypeID]TypeID

	// type → parameter overrides (replaced, never merged)
	definitions map[TypeID]*Params

	// types marked shared
	shared map[TypeID]bool

	// type → cached shared instance
	instances map[TypeID]any

	// type → factory used instead of introspection
	delegates map[TypeID]Factory

	// owner → abstract → what to give (scoped aliases)
	contextual map[TypeID]map[TypeID]contextualGive

	// type → decorators
	prepares map[TypeID][]preparer

	// tag → types
	tags map[string][]TypeID

	// type → pending loader
	loaders map[TypeID]*lazyLoader
}

func newStore() *store {
	return &store{
		aliases:     make(map[TypeID]TypeID),
		definitions: make(map[TypeID]*Params),
		shared:      make(map[TypeID]bool),
		instances:   make(map[TypeID]any),
		delegates:   make(map[TypeID]Factory),
		contextual:  make(map[TypeID]map[TypeID]contextualGive),
		prepares:    make(map[TypeID][]preparer),
		tags:        make(map[string][]TypeID),
		loaders:     make(map[TypeID]*lazyLoader),
	}
}

func (s *store) define(id TypeID, params []Param) {
	s.definitions[id] = compileParams(params)
}

func (s *store) definition(id TypeID) *Params {
	if p, ok := s.definitions[id]; ok {
		return p
	}
	return emptyParams
}

func (s *store) alias(abstract, concrete TypeID) error {
	if abstract == "" || concrete == "" {
		return &ConfigError{Op: "alias", Type: abstract, Reason: "empty type id"}
	}
	if abstract == concrete {
		return &ConfigError{Op: "alias", Type: abstract, Reason: "aliased to itself"}
	}
	s.aliases[abstract] = concrete
	return nil
}

func (s *store) share(id TypeID) {
	s.shared[id] = true
}

func (s *store) shareInstance(id TypeID, instance any) error {
	if id == "" {
		return &ConfigError{Op: "share instance", Reason: "empty type id"}
	}
	if instance == nil {
		return &ConfigError{Op: "share instance", Type: id, Reason: "nil instance"}
	}
	s.shared[id] = true
	s.instances[id] = instance
	return nil
}

func (s *store) unshare(id TypeID) {
	delete(s.shared, id)
	delete(s.instances, id)
}

func (s *store) delegate(id TypeID, f Factory) error {
	if id == "" {
		return &ConfigError{Op: "delegate", Reason: "empty type id"}
	}
	if f == nil {
		return &ConfigError{Op: "delegate", Type: id, Reason: "nil factory"}
	}
	s.delegates[id] = f
	return nil
}

func (s *store) give(owner, abstract TypeID, g contextualGive) {
	m, ok := s.contextual[owner]
	if !ok {
		m = make(map[TypeID]contextualGive)
		s.contextual[owner] = m
	}
	m[abstract] = g
}

func (s *store) contextualFor(owner, abstract TypeID) (contextualGive, bool) {
	g, ok := s.contextual[owner][abstract]
	return g, ok
}

func (s *store) prepare(id TypeID, fn preparer) {
	s.prepares[id] = append(s.prepares[id], fn)
}

func (s *store) tag(ids []TypeID, tag string) {
	s.tags[tag] = append(s.tags[tag], ids...)
}

func (s *store) lazy(l *lazyLoader) {
	for _, id := range l.ids {
		s.loaders[id] = l
	}
}

// restoreLoader puts a failed loader back for every id nothing else claimed
// in the meantime.
func (s *store) restoreLoader(l *lazyLoader) {
	for _, id := range l.ids {
		if _, ok := s.loaders[id]; !ok {
			s.loaders[id] = l
		}
	}
}

// takeLoader removes and returns the pending loader for id, if any.
func (s *store) takeLoader(id TypeID) *lazyLoader {
	l, ok := s.loaders[id]
	if !ok {
		return nil
	}
	for _, other := range l.ids {
		if s.loaders[other] == l {
			delete(s.loaders, other)
		}
	}
	return l
}

// forget drops every registration for id.
func (s *store) forget(id TypeID) {
	delete(s.aliases, id)
	delete(s.definitions, id)
	delete(s.shared, id)
	delete(s.instances, id)
	delete(s.delegates, id)
	delete(s.contextual, id)
	delete(s.prepares, id)
	delete(s.loaders, id)
}

// bound reports whether anything is registered for id.
func (s *store) bound(id TypeID) bool {
	if _, ok := s.aliases[id]; ok {
		return true
	}
	if _, ok := s.definitions[id]; ok {
		return true
	}
	if _, ok := s.delegates[id]; ok {
		return true
	}
	if _, ok := s.loaders[id]; ok {
		return true
	}
	return s.shared[id]
}

// ids returns every id that has a registration, sorted.
func (s *store) ids() []TypeID {
	seen := make(map[TypeID]bool)
	for id := range s.aliases {
		seen[id] = true
	}
	for id := range s.definitions {
		seen[id] = true
	}
	for id := range s.shared {
		seen[id] = true
	}
	for id := range s.delegates {
		seen[id] = true
	}
	for id := range s.loaders {
		seen[id] = true
	}
	return sortedIDs(seen)
}

func sortedIDs(set map[TypeID]bool) []TypeID {
	out := make([]TypeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
