package container

import (
	"errors"
	"fmt"
	"slices"
)

// resolution is the state of a single Make call. It only lives while the
// container lock is held.
type resolution struct {
	c *Container

	// constructions, reported to AfterResolving once the call succeeds
	built []resolvedEvent

	// shared entries written by this call, dropped again if it fails
	cached []TypeID

	// callbacks queued by factories and loaders, run after unlock
	after []func()
}

type resolvedEvent struct {
	id       TypeID
	instance any
}

// resolve produces an instance of requested. path holds the types currently
// under construction, outermost first.
func (r *resolution) resolve(requested TypeID, args *Params, path []TypeID) (any, error) {
	s := r.c.store

	if err := r.load(requested, path); err != nil {
		return nil, err
	}

	// 1. shared instance: overrides are ignored
	if inst, ok := s.instances[requested]; ok {
		return inst, nil
	}

	// 2. cycle and depth guards
	if slices.Contains(path, requested) {
		return nil, &CyclicDependencyError{Path: append(slices.Clone(path), requested)}
	}
	if len(path) >= r.c.maxDepth {
		return nil, &DepthExceededError{Limit: r.c.maxDepth, Path: append(slices.Clone(path), requested)}
	}

	// 3. alias chain
	chain := []TypeID{requested}
	id := requested
	for {
		next, ok := s.aliases[id]
		if !ok {
			break
		}
		if slices.Contains(path, next) || slices.Contains(chain, next) {
			cycle := append(slices.Clone(path), chain...)
			return nil, &CyclicDependencyError{Path: append(cycle, next)}
		}
		if err := r.load(next, path); err != nil {
			return nil, err
		}
		chain = append(chain, next)
		id = next
	}
	if len(chain) > 1 {
		if inst, ok := s.instances[id]; ok {
			r.register(chain, inst)
			return inst, nil
		}
	}

	inner := append(slices.Clone(path), chain...)
	def := s.definition(id)

	var (
		inst any
		err  error
	)
	if f, ok := s.delegates[id]; ok {
		// 4. delegate
		b := &Builder{res: r, id: id, call: args, def: def, path: inner}
		inst, err = r.call(id, f, b)
	} else {
		// 5. shape lookup, 6. parameters and construction
		inst, err = r.construct(id, args, def, inner)
	}
	if err != nil {
		return nil, err
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if inst, err = r.prepare(chain[i], inst, inner); err != nil {
			return nil, err
		}
	}

	// 7. shared registration
	r.register(chain, inst)
	r.built = append(r.built, resolvedEvent{id: requested, instance: inst})
	r.c.logger.Debug("container: built",
		"container", r.c.id,
		"type", string(requested),
		"concrete", string(id),
		"depth", len(path),
	)
	return inst, nil
}

func (r *resolution) construct(id TypeID, call, def *Params, path []TypeID) (any, error) {
	shape, err := r.c.introspector.Inspect(id)
	if err != nil {
		return nil, err
	}
	if shape.Abstract {
		return nil, &UnresolvableAbstractTypeError{Type: id}
	}
	args, err := r.arguments(id, shape.Params, call, def, path)
	if err != nil {
		return nil, err
	}
	return shape.New(args)
}

// arguments resolves every parameter of owner in declaration order.
func (r *resolution) arguments(owner TypeID, specs []ParamSpec, call, def *Params, path []TypeID) ([]any, error) {
	positional := mergedPositional(call, def)
	cursor := 0
	args := make([]any, len(specs))
	for i, p := range specs {
		v, ok, err := r.keyed(owner, p, call, path)
		if !ok && err == nil {
			v, ok, err = r.keyed(owner, p, def, path)
		}
		if !ok && err == nil {
			if cursor < len(positional) {
				v, ok = positional[cursor], true
				cursor++
			}
		}
		if !ok && err == nil {
			v, err = r.declared(owner, p, path)
		}
		if err != nil {
			return nil, withParam(err, owner, p)
		}
		args[i] = v
	}
	return args, nil
}

// keyed applies raw, substitution and type-name overrides, in that order.
func (r *resolution) keyed(owner TypeID, p ParamSpec, params *Params, path []TypeID) (any, bool, error) {
	if v, ok := params.rawFor(p); ok {
		return v, true, nil
	}
	if sub, ok := params.substitute[p.Name]; ok {
		if sub.kind == delegatedParam {
			b := &Builder{res: r, id: owner, param: p.Name, call: emptyParams, def: emptyParams, path: path}
			v, err := r.call(owner, sub.factory, b)
			return v, true, err
		}
		v, err := r.resolve(sub.id, emptyParams, path)
		return v, true, err
	}
	if id, ok := params.use[p.Name]; ok {
		v, err := r.resolve(id, emptyParams, path)
		return v, true, err
	}
	return nil, false, nil
}

// declared resolves a parameter from its declared type.
func (r *resolution) declared(owner TypeID, p ParamSpec, path []TypeID) (any, error) {
	if p.Type.ID != "" {
		if g, ok := r.c.store.contextualFor(owner, p.Type.ID); ok {
			switch {
			case g.factory != nil:
				b := &Builder{res: r, id: owner, param: p.Name, call: emptyParams, def: emptyParams, path: path}
				return r.call(owner, g.factory, b)
			case g.id != "":
				return r.resolve(g.id, emptyParams, path)
			default:
				return g.value, nil
			}
		}
	}
	switch p.Type.Kind {
	case Concrete, Abstract:
		return r.resolve(p.Type.ID, emptyParams, path)
	}
	if p.HasDefault {
		return p.Default, nil
	}
	return nil, &MissingRawValueError{Owner: owner, Param: p.Name, Position: p.Position}
}

// call runs a factory. Resolution errors coming back through the Builder
// pass through untouched; anything else becomes a ConstructionError.
func (r *resolution) call(id TypeID, f Factory, b *Builder) (inst any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			inst, err = nil, &ConstructionError{Type: id, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	inst, err = f(b)
	if err != nil {
		if isResolutionError(err) {
			return nil, err
		}
		return nil, &ConstructionError{Type: id, Err: err}
	}
	if inst == nil {
		return nil, &ConstructionError{Type: id, Err: errors.New("factory returned nil")}
	}
	return inst, nil
}

func (r *resolution) prepare(id TypeID, inst any, path []TypeID) (out any, err error) {
	fns := r.c.store.prepares[id]
	if len(fns) == 0 {
		return inst, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, &ConstructionError{Type: id, Err: fmt.Errorf("prepare panic: %v", rec)}
		}
	}()
	b := &Builder{res: r, id: id, call: emptyParams, def: emptyParams, path: path}
	for _, fn := range fns {
		next, err := fn(inst, b)
		if err != nil {
			if isResolutionError(err) {
				return nil, err
			}
			return nil, &ConstructionError{Type: id, Err: err}
		}
		if next != nil {
			inst = next
		}
	}
	return inst, nil
}

// register caches inst under every id of the alias chain marked shared.
func (r *resolution) register(chain []TypeID, inst any) {
	s := r.c.store
	for _, id := range chain {
		if !s.shared[id] {
			continue
		}
		if _, ok := s.instances[id]; ok {
			continue
		}
		s.instances[id] = inst
		r.cached = append(r.cached, id)
	}
}

// rollback drops shared instances cached by a failed call.
func (r *resolution) rollback() {
	for _, id := range r.cached {
		delete(r.c.store.instances, id)
	}
	r.cached = nil
	r.built = nil
}

// load runs a pending lazy loader for id. A loader that fails stays pending
// and runs again on the next request.
func (r *resolution) load(id TypeID, path []TypeID) error {
	l := r.c.store.takeLoader(id)
	if l == nil {
		return nil
	}
	b := &Builder{res: r, id: id, call: emptyParams, def: emptyParams, path: path}
	if err := l.load(b); err != nil {
		r.c.store.restoreLoader(l)
		if isResolutionError(err) {
			return err
		}
		return &ConstructionError{Type: id, Err: err}
	}
	return nil
}

// withParam names the parameter on an abstract-type failure that was raised
// for a directly requested type.
func withParam(err error, owner TypeID, p ParamSpec) error {
	var abs *UnresolvableAbstractTypeError
	if errors.As(err, &abs) && abs.Param == "" {
		return &UnresolvableAbstractTypeError{Type: abs.Type, Owner: owner, Param: p.Name}
	}
	return err
}

func isResolutionError(err error) bool {
	k := Kind(err)
	return k != "" && k != "other"
}

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder is handed to factories, prepare hooks and lazy loaders. It resolves
// within the current Make call, so it is the only safe way to re-enter the
// container from inside a resolution.
type Builder struct {
	res   *resolution
	id    TypeID
	param string
	call  *Params
	def   *Params
	path  []TypeID
}

// Type is the type being built.
func (b *Builder) Type() TypeID { return b.id }

// Param is the parameter being produced, or "" for a whole-type factory.
func (b *Builder) Param() string { return b.param }

// Make resolves id as a dependency of the type being built.
func (b *Builder) Make(id TypeID, params ...Param) (any, error) {
	return b.res.resolve(id, compileParams(params), b.path)
}

// Arg returns a raw override by name, call-site first, then definition.
func (b *Builder) Arg(name string) (any, bool) {
	if v, ok := b.call.raw[name]; ok {
		return v, true
	}
	v, ok := b.def.raw[name]
	return v, ok
}

// Positional returns the unkeyed raw values, call-site laid over definition.
func (b *Builder) Positional() []any {
	return mergedPositional(b.call, b.def)
}

// Args returns the call-site overrides.
func (b *Builder) Args() *Params { return b.call }

// AfterMake queues fn to run once the current Make call has released the
// container lock. Use it for work that needs the *Container itself.
func (b *Builder) AfterMake(fn func()) {
	b.res.after = append(b.res.after, fn)
}

// Define implements Registrar.
func (b *Builder) Define(id TypeID, params ...Param) { b.res.c.store.define(id, params) }

// Alias implements Registrar.
func (b *Builder) Alias(abstract, concrete TypeID) error {
	return b.res.c.store.alias(abstract, concrete)
}

// Share implements Registrar.
func (b *Builder) Share(id TypeID) { b.res.c.store.share(id) }

// ShareInstance implements Registrar.
func (b *Builder) ShareInstance(id TypeID, instance any) error {
	return b.res.c.store.shareInstance(id, instance)
}

// Delegate implements Registrar.
func (b *Builder) Delegate(id TypeID, f Factory) error {
	return b.res.c.store.delegate(id, f)
}
