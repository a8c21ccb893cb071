package container

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxDepth bounds the resolution path when no WithMaxDepth is given.
const DefaultMaxDepth = 256

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a value in place of introspection. It receives a Builder for
// the Make call in progress and must use it, not the Container, to resolve
// further dependencies.
type Factory func(b *Builder) (any, error)

// Registrar is the registration surface shared by *Container and *Builder.
// Service providers register through it.
type Registrar interface {
	Define(id TypeID, params ...Param)
	Alias(abstract, concrete TypeID) error
	Share(id TypeID)
	ShareInstance(id TypeID, instance any) error
	Delegate(id TypeID, f Factory) error
}

var (
	_ Registrar = (*Container)(nil)
	_ Registrar = (*Builder)(nil)
)

// MakeEvent describes one finished Make call.
type MakeEvent struct {
	ID       TypeID
	Err      error
	Duration time.Duration

	// Built counts the instances constructed by the call; 0 means the result
	// came straight from the shared registry.
	Built int
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is a reflective dependency injector.
//
// It supports:
//   - Define / Alias / Share / ShareInstance / Delegate
//   - Make / Resolve (generic), with per-call parameter overrides
//   - scoped aliases (when A needs B, give it C)
//   - Prepare hooks (decorate new instances)
//   - Tags and lazy loaders for deferred providers
//
// A single lock covers every registration and the whole of each Make call,
// so a shared type is never built twice. Factories re-enter through their
// Builder; calling Make on the Container from inside a factory deadlocks.
type Container struct {
	mu sync.Mutex

	id           string
	store        *store
	catalog      *Catalog
	introspector Introspector
	logger       *slog.Logger
	maxDepth     int

	afterResolving []func(TypeID, any)
	afterMake      []func(MakeEvent)
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxDepth bounds how many types may be under construction at once.
func WithMaxDepth(n int) Option {
	return func(c *Container) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithCatalog shares a Catalog between containers.
func WithCatalog(cat *Catalog) Option {
	return func(c *Container) {
		if cat != nil {
			c.catalog = cat
			c.introspector = cat
		}
	}
}

// WithIntrospector replaces the reflective Catalog. Constructor and Register
// fail with a *ConfigError on such a container.
func WithIntrospector(i Introspector) Option {
	return func(c *Container) {
		if i != nil {
			c.catalog = nil
			c.introspector = i
		}
	}
}

// New creates an empty container. The container is shared as its own
// *Container so providers can hold on to it.
func New(opts ...Option) *Container {
	cat := NewCatalog()
	c := &Container{
		id:           uuid.NewString(),
		store:        newStore(),
		catalog:      cat,
		introspector: cat,
		logger:       slog.New(slog.DiscardHandler),
		maxDepth:     DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.seed()
	return c
}

func (c *Container) seed() {
	self := TypeOf[*Container]()
	c.store.shared[self] = true
	c.store.instances[self] = c
}

// ID identifies the container in logs, metrics and snapshots.
func (c *Container) ID() string { return c.id }

// Catalog returns the reflective introspector, or nil when a custom one is set.
func (c *Container) Catalog() *Catalog { return c.catalog }

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// ── Registration ──────────────────────────────────────────────────────────────

// Define replaces the parameter overrides used whenever id is constructed.
//
//	c.Define(container.TypeOf[*Sound](), container.Use("v", "E"))
func (c *Container) Define(id TypeID, params ...Param) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.define(id, params)
}

// Alias makes every request for abstract resolve concrete instead. Aliases
// belong to this container only.
//
//	c.Alias(container.TypeOf[Vowel](), "E")
func (c *Container) Alias(abstract, concrete TypeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.alias(abstract, concrete)
}

// Share marks id shared: the first instance built is reused from then on.
func (c *Container) Share(id TypeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.share(id)
}

// Unshare drops the shared mark and any cached instance.
func (c *Container) Unshare(id TypeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.unshare(id)
}

// ShareInstance registers a pre-built value as the shared instance of id.
//
//	c.ShareInstance(container.TypeOf[*config.Config](), cfg)
func (c *Container) ShareInstance(id TypeID, instance any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.shareInstance(id, instance)
}

// Delegate builds id with f instead of introspecting it.
//
//	c.Delegate(container.TypeOf[*sql.DB](), func(b *container.Builder) (any, error) {
//	    return sql.Open("postgres", dsn)
//	})
func (c *Container) Delegate(id TypeID, f Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.delegate(id, f)
}

// Constructor registers fn as the way to build its result type; names are
// the parameter names, in order.
//
//	c.Constructor(NewSound, "v")
func (c *Container) Constructor(fn any, names ...string) error {
	if c.catalog == nil {
		return &ConfigError{Op: "constructor", Reason: "container has no catalog"}
	}
	return c.catalog.Constructor(fn, names...)
}

// Prepare registers a hook run on every new instance of id before it is
// cached. A non-nil return value replaces the instance.
//
//	c.Prepare(container.TypeOf[Logger](), func(inst any, b *container.Builder) (any, error) {
//	    return &TimestampLogger{Inner: inst.(Logger)}, nil
//	})
func (c *Container) Prepare(id TypeID, fn func(instance any, b *Builder) (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.prepare(id, fn)
}

// Lazy defers load until one of ids is first resolved. load runs once, inside
// that Make call, and registers through the Builder.
func (c *Container) Lazy(ids []TypeID, load func(b *Builder) error) {
	if len(ids) == 0 || load == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.lazy(&lazyLoader{ids: append([]TypeID(nil), ids...), load: load})
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates several types under a named group.
//
//	c.Tag([]container.TypeID{cpu, mem}, "reports")
func (c *Container) Tag(ids []TypeID, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.tag(ids, tag)
}

// Tagged resolves every type registered under tag, in registration order.
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.Lock()
	ids := append([]TypeID(nil), c.store.tags[tag]...)
	c.mu.Unlock()

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		inst, err := c.Make(id)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves id, applying params over any definition for it.
//
//	v, err := c.Make(container.TypeOf[*Sound](), container.Use("v", "U"))
func (c *Container) Make(id TypeID, params ...Param) (any, error) {
	start := time.Now()
	res := &resolution{c: c}

	inst, err := c.run(res, id, compileParams(params))

	c.mu.Lock()
	resolvedHooks := c.afterResolving
	makeHooks := c.afterMake
	c.mu.Unlock()

	if err == nil {
		for _, ev := range res.built {
			for _, cb := range resolvedHooks {
				cb(ev.id, ev.instance)
			}
		}
		for _, fn := range res.after {
			fn()
		}
	}

	ev := MakeEvent{ID: id, Err: err, Duration: time.Since(start), Built: len(res.built)}
	for _, cb := range makeHooks {
		cb(ev)
	}
	if err != nil {
		c.logger.Debug("container: make failed", "container", c.id, "type", string(id), "error", err)
		return nil, err
	}
	c.logger.Debug("container: make",
		"container", c.id,
		"type", string(id),
		"built", ev.Built,
		"duration", ev.Duration,
	)
	return inst, nil
}

func (c *Container) run(res *resolution, id TypeID, args *Params) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, err := res.resolve(id, args, nil)
	if err != nil {
		res.rollback()
		return nil, err
	}
	return inst, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether anything is registered for id.
func (c *Container) Bound(id TypeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.bound(id)
}

// Resolved reports whether id has a shared instance.
func (c *Container) Resolved(id TypeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store.instances[id]
	return ok
}

// Forget removes every registration for id.
func (c *Container) Forget(id TypeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.forget(id)
}

// Flush resets the container. Hooks survive; the catalog is untouched.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = newStore()
	c.seed()
}

// Bindings returns every registered id, sorted.
func (c *Container) Bindings() []TypeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ids()
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired for every instance a successful
// Make call constructed, innermost first. Callbacks run without the lock.
func (c *Container) AfterResolving(cb func(id TypeID, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// AfterMake registers a callback fired once per Make call, failed or not.
func (c *Container) AfterMake(cb func(MakeEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterMake = append(c.afterMake, cb)
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve makes the type T and asserts the result.
//
//	snd, err := container.Resolve[*Sound](c)
func Resolve[T any](c *Container, params ...Param) (T, error) {
	var zero T
	id := TypeOf[T]()
	inst, err := c.Make(id, params...)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, &ConfigError{Op: "resolve", Type: id, Reason: fmt.Sprintf("resolved to %T", inst)}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, params ...Param) T {
	v, err := Resolve[T](c, params...)
	if err != nil {
		panic(err)
	}
	return v
}

// Register makes T known to the container's catalog under its own id and
// any extra names, and returns its id.
//
//	container.Register[*Sound](c)
//	container.Register[*E](c, "E")
func Register[T any](c *Container, names ...TypeID) (TypeID, error) {
	if c.catalog == nil {
		return "", &ConfigError{Op: "register", Type: TypeOf[T](), Reason: "container has no catalog"}
	}
	t := reflect.TypeFor[T]()
	id := c.catalog.Learn(t)[0]
	for _, name := range names {
		if err := c.catalog.Name(name, t); err != nil {
			return "", err
		}
	}
	return id, nil
}
