package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Register only registers. Boot is called after every provider has been
// registered, so it may resolve anything.
//
//	type SoundProvider struct{ container.BaseProvider }
//
//	func (p *SoundProvider) Register(app container.Registrar) error {
//	    return app.Alias(container.TypeOf[Vowel](), "E")
//	}
//
//	func (p *SoundProvider) Boot(app *container.Container) error {
//	    _, err := container.Resolve[*Sound](app)
//	    return err
//	}
type ServiceProvider interface {
	// Register binds services. Do not resolve here; use Boot for that.
	Register(app Registrar) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides lists the ids a deferred provider registers.
	Provides() []TypeID

	// IsDeferred reports whether the provider waits until one of its
	// Provides() ids is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred. Embed it and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []TypeID      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, including deferred
// ones.
type ProviderRegistry struct {
	mu sync.Mutex

	app        *Container
	eager      []ServiceProvider
	deferred   map[TypeID]ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[TypeID]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method, unless it is
// deferred. A provider added after Boot is booted straight away.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		ids := provider.Provides()
		if len(ids) == 0 {
			r.mu.Unlock()
			return fmt.Errorf("provider %T: deferred provider provides nothing", provider)
		}
		for _, id := range ids {
			r.deferred[id] = provider
		}
		r.mu.Unlock()
		r.app.Lazy(ids, r.loader(provider))
		return nil
	}
	booted := r.booted
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("provider %T: register: %w", provider, err)
	}
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T: boot: %w", provider, err)
		}
	}
	return nil
}

// loader registers a deferred provider on first use. Booting needs the
// container itself, so it waits until the triggering Make has returned.
func (r *ProviderRegistry) loader(provider ServiceProvider) func(b *Builder) error {
	return func(b *Builder) error {
		if err := provider.Register(b); err != nil {
			return fmt.Errorf("provider %T: register: %w", provider, err)
		}
		r.mu.Lock()
		for id, p := range r.deferred {
			if p == provider {
				delete(r.deferred, id)
			}
		}
		booted := r.booted
		if !booted {
			r.eager = append(r.eager, provider)
		}
		r.mu.Unlock()

		if booted {
			b.AfterMake(func() {
				if err := provider.Boot(r.app); err != nil {
					r.app.Logger().Error("container: deferred provider boot failed",
						"provider", fmt.Sprintf("%T", provider), "error", err)
				}
			})
		}
		return nil
	}
}

// Boot calls Boot on every registered provider, once. Deferred providers
// loaded before Boot are included; later ones boot as they load.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T: boot: %w", provider, err)
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the providers registered so far, deferred ones once loaded.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the ids still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred() []TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[TypeID]bool, len(r.deferred))
	for id := range r.deferred {
		set[id] = true
	}
	return sortedIDs(set)
}
