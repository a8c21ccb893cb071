// Package container provides a reflective dependency injector and a service
// provider system for Go.
//
// # Overview
//
// The container builds object graphs from constructor signatures. Concrete
// dependencies are built recursively, interfaces are satisfied through
// aliases, delegates or shared instances, and plain values come from
// parameter overrides or defaults. Go cannot read parameter names at
// runtime, so constructors are registered with theirs:
//
//	func NewSound(v Vowel) *Sound { return &Sound{v: v} }
//
//	c := container.New()
//	c.Constructor(NewSound, "v")
//	container.Register[*E](c, "E")
//	container.Register[*U](c, "U")
//
// Structs without a constructor are built by field injection; the field
// name with a lower-cased first letter, or an `inject:"name"` tag, is the
// parameter name, and a `default:"..."` tag supplies a default.
//
// # Registration
//
//	// Interface to implementation, for this container only
//	c.Alias(container.TypeOf[Vowel](), "E")
//
//	// Overrides used whenever a type is built
//	c.Define(container.TypeOf[*Mailer](), container.Raw("host", "smtp.local"))
//
//	// One instance per container
//	c.Share(container.TypeOf[*Pool]())
//	c.ShareInstance(container.TypeOf[*config.Config](), cfg)
//
//	// Factory in place of introspection
//	c.Delegate(container.TypeOf[*sql.DB](), func(b *container.Builder) (any, error) {
//	    return sql.Open("postgres", dsn)
//	})
//
// # Resolving
//
//	snd, err := container.Resolve[*Sound](c)
//	snd, err := container.Resolve[*Sound](c, container.Use("v", "U"))
//	raw, err := c.Make("E")
//
// For each parameter the first match wins: a call-site raw value, a
// call-site "+name" substitution or factory, a call-site type name, the same
// three from the type's definition, the next positional raw value, a scoped
// alias, recursive resolution of the declared type, the declared default.
// Anything left is a *MissingRawValueError.
//
// ParseParams accepts the same overrides as a map keyed ":name", "+name" or
// "name".
//
// # Errors
//
// Failures are typed and match a sentinel through errors.Is:
// *ConfigError (ErrConfig), *CyclicDependencyError (ErrCyclicDependency),
// *UnresolvableAbstractTypeError (ErrUnresolvableAbstract),
// *MissingRawValueError (ErrMissingRawValue), *NotConstructibleError
// (ErrNotConstructible), *DepthExceededError (ErrDepthExceeded) and
// *ConstructionError (ErrConstruction). A failed Make caches nothing.
//
// # Concurrency
//
// Every method is safe for concurrent use. Make holds the container lock
// for the whole resolution, so factories, prepare hooks and lazy loaders get
// a *Builder and must resolve through it. AfterResolving and AfterMake
// callbacks run once the lock is released.
//
// # Service Providers
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) IsDeferred() bool           { return true }
//	func (p *MailProvider) Provides() []container.TypeID {
//	    return []container.TypeID{container.TypeOf[*Mailer]()}
//	}
//	func (p *MailProvider) Register(app container.Registrar) error {
//	    app.Share(container.TypeOf[*Mailer]())
//	    return nil
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailProvider{})
//	registry.Boot()
package container
