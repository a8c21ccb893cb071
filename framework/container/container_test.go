package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type Vowel interface{ Letter() string }

type E struct{}

func (*E) Letter() string { return "E" }

type U struct{}

func (*U) Letter() string { return "U" }

type Sound struct{ V Vowel }

func NewSound(v Vowel) *Sound { return &Sound{V: v} }

func (s *Sound) Say() string { return "a" + s.V.Letter() + "o" }

type Pair struct {
	A string
	B int
}

func NewPair(a string, b int) *Pair { return &Pair{A: a, B: b} }

type Greeting struct {
	Name  string
	Punct string `default:"!"`
}

type Counter struct{ id int64 }

type Holder struct {
	Counter *Counter
	Label   string
}

type Loop struct{ Next *Loop }

type CycA struct{ b *CycB }
type CycB struct{ a *CycA }

func NewCycA(b *CycB) *CycA { return &CycA{b: b} }
func NewCycB(a *CycA) *CycB { return &CycB{a: a} }

type L1 struct{ Next *L2 }
type L2 struct{ Next *L3 }
type L3 struct{}

var (
	vowelID = container.TypeOf[Vowel]()
	soundID = container.TypeOf[*Sound]()
	pairID  = container.TypeOf[*Pair]()
)

// newSoundContainer knows Sound, Pair and the vowels "E" and "U".
func newSoundContainer(t *testing.T, opts ...container.Option) *container.Container {
	t.Helper()
	c := container.New(opts...)
	require.NoError(t, c.Constructor(NewSound, "v"))
	require.NoError(t, c.Constructor(NewPair, "a", "b"))
	_, err := container.Register[*E](c, "E")
	require.NoError(t, err)
	_, err = container.Register[*U](c, "U")
	require.NoError(t, err)
	_, err = container.Register[Vowel](c)
	require.NoError(t, err)
	return c
}

func countingCounter(c *container.Container, n *atomic.Int64) error {
	return c.Constructor(func() *Counter { return &Counter{id: n.Add(1)} })
}

// ── sound example ────────────────────────────────────────────────────────────

func TestContainer_SoundDefinition(t *testing.T) {
	c := newSoundContainer(t)
	c.Define(soundID, container.Use("v", "E"))

	snd, err := container.Resolve[*Sound](c)
	require.NoError(t, err)
	assert.Equal(t, "aEo", snd.Say())
}

func TestContainer_SoundCallSiteBeatsDefinition(t *testing.T) {
	c := newSoundContainer(t)
	c.Define(soundID, container.Use("v", "E"))

	snd, err := container.Resolve[*Sound](c, container.Use("v", "U"))
	require.NoError(t, err)
	assert.Equal(t, "aUo", snd.Say())
}

func TestContainer_SoundAlias(t *testing.T) {
	cat := container.NewCatalog()
	c := newSoundContainer(t, container.WithCatalog(cat))
	require.NoError(t, c.Alias(vowelID, "E"))

	snd, err := container.Resolve[*Sound](c)
	require.NoError(t, err)
	assert.IsType(t, &E{}, snd.V)

	// the call site wins over the alias
	snd, err = container.Resolve[*Sound](c, container.Use("v", "U"))
	require.NoError(t, err)
	assert.IsType(t, &U{}, snd.V)
	assert.Equal(t, "aUo", snd.Say())

	// the alias stays on c
	other := newSoundContainer(t, container.WithCatalog(cat))
	_, err = other.Make(soundID)
	assert.ErrorIs(t, err, container.ErrUnresolvableAbstract)
}

func TestContainer_SoundRawValue(t *testing.T) {
	c := newSoundContainer(t)

	snd, err := container.Resolve[*Sound](c, container.Raw("v", &U{}))
	require.NoError(t, err)
	assert.Equal(t, "aUo", snd.Say())
}

func TestContainer_SoundWithoutVowel(t *testing.T) {
	c := newSoundContainer(t)

	_, err := c.Make(soundID)
	require.ErrorIs(t, err, container.ErrUnresolvableAbstract)

	var abs *container.UnresolvableAbstractTypeError
	require.ErrorAs(t, err, &abs)
	assert.Equal(t, soundID, abs.Owner)
	assert.Equal(t, "v", abs.Param)
	assert.Equal(t, vowelID, abs.Type)
}

func TestContainer_AbstractRequestedDirectly(t *testing.T) {
	c := newSoundContainer(t)

	_, err := c.Make(vowelID)
	var abs *container.UnresolvableAbstractTypeError
	require.ErrorAs(t, err, &abs)
	assert.Empty(t, abs.Param)
	assert.Equal(t, vowelID, abs.Type)
}

// ── sharing ──────────────────────────────────────────────────────────────────

func TestContainer_SharedIsIdempotent(t *testing.T) {
	var n atomic.Int64
	c := container.New()
	require.NoError(t, countingCounter(c, &n))
	c.Share(container.TypeOf[*Counter]())

	a, err := c.Make(container.TypeOf[*Counter]())
	require.NoError(t, err)
	b, err := c.Make(container.TypeOf[*Counter]())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.EqualValues(t, 1, n.Load())
	assert.True(t, c.Resolved(container.TypeOf[*Counter]()))
}

func TestContainer_NotSharedIsIndependent(t *testing.T) {
	var n atomic.Int64
	c := container.New()
	require.NoError(t, countingCounter(c, &n))

	a, err := c.Make(container.TypeOf[*Counter]())
	require.NoError(t, err)
	b, err := c.Make(container.TypeOf[*Counter]())
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.EqualValues(t, 2, n.Load())
}

func TestContainer_SharedIgnoresOverrides(t *testing.T) {
	c := newSoundContainer(t)
	c.Share(soundID)

	first, err := container.Resolve[*Sound](c, container.Use("v", "E"))
	require.NoError(t, err)
	second, err := container.Resolve[*Sound](c, container.Use("v", "U"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "aEo", second.Say())
}

func TestContainer_ShareInstance(t *testing.T) {
	c := newSoundContainer(t)
	e := &E{}
	require.NoError(t, c.ShareInstance(vowelID, e))

	a := container.MustResolve[*Sound](c)
	b := container.MustResolve[*Sound](c)

	assert.NotSame(t, a, b)
	assert.Same(t, e, a.V)
	assert.Same(t, e, b.V)
}

func TestContainer_ShareInstanceRejectsNil(t *testing.T) {
	c := container.New()
	err := c.ShareInstance(vowelID, nil)
	assert.ErrorIs(t, err, container.ErrConfig)
}

func TestContainer_SharedThroughAlias(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	c.Share("E")

	a, err := c.Make(vowelID)
	require.NoError(t, err)
	b, err := c.Make("E")
	require.NoError(t, err)
	assert.Same(t, a, b)

	// the abstract id itself is not marked shared
	assert.False(t, c.Resolved(vowelID))
	assert.True(t, c.Resolved("E"))
}

func TestContainer_SharedAbstractCachesRequestedID(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	c.Share(vowelID)

	a, err := c.Make(vowelID)
	require.NoError(t, err)
	b, err := c.Make(vowelID)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, c.Resolved(vowelID))
	assert.False(t, c.Resolved("E"))
}

func TestContainer_Unshare(t *testing.T) {
	var n atomic.Int64
	c := container.New()
	require.NoError(t, countingCounter(c, &n))
	id := container.TypeOf[*Counter]()
	c.Share(id)

	a, err := c.Make(id)
	require.NoError(t, err)
	c.Unshare(id)
	b, err := c.Make(id)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.False(t, c.Resolved(id))
}

// ── parameter precedence ─────────────────────────────────────────────────────

func TestContainer_RawBeatsDefinition(t *testing.T) {
	c := container.New()
	_, err := container.Register[*Greeting](c)
	require.NoError(t, err)
	c.Define(container.TypeOf[*Greeting](), container.Raw("name", "definition"))

	g, err := container.Resolve[*Greeting](c, container.Raw("name", "call"))
	require.NoError(t, err)
	assert.Equal(t, "call", g.Name)
	assert.Equal(t, "!", g.Punct)

	g, err = container.Resolve[*Greeting](c)
	require.NoError(t, err)
	assert.Equal(t, "definition", g.Name)
}

func TestContainer_PositionalFallback(t *testing.T) {
	c := newSoundContainer(t)

	p, err := container.Resolve[*Pair](c, container.Positional("x", 2))
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: "x", B: 2}, p)
}

func TestContainer_PositionalSkipsKeyed(t *testing.T) {
	c := newSoundContainer(t)

	p, err := container.Resolve[*Pair](c, container.Raw("a", "keyed"), container.Positional(5))
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: "keyed", B: 5}, p)
}

func TestContainer_PositionalCallSiteOverDefinition(t *testing.T) {
	c := newSoundContainer(t)
	c.Define(pairID, container.Positional("def", 1))

	p, err := container.Resolve[*Pair](c, container.Positional("call"))
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: "call", B: 1}, p)
}

func TestContainer_RawAt(t *testing.T) {
	c := newSoundContainer(t)

	p, err := container.Resolve[*Pair](c, container.RawAt(1, 3), container.Raw("a", "z"))
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: "z", B: 3}, p)
}

func TestContainer_RawValueIsWeaklyDecoded(t *testing.T) {
	c := newSoundContainer(t)

	p, err := container.Resolve[*Pair](c, container.Raw("a", "x"), container.Raw("b", "7"))
	require.NoError(t, err)
	assert.Equal(t, 7, p.B)
}

func TestContainer_RawValueOfWrongType(t *testing.T) {
	c := newSoundContainer(t)

	_, err := c.Make(pairID, container.Raw("a", "x"), container.Raw("b", struct{}{}))
	assert.ErrorIs(t, err, container.ErrConfig)
}

func TestContainer_MissingRawValue(t *testing.T) {
	c := newSoundContainer(t)

	_, err := c.Make(pairID, container.Raw("a", "x"))
	var missing *container.MissingRawValueError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, pairID, missing.Owner)
	assert.Equal(t, "b", missing.Param)
	assert.Equal(t, 1, missing.Position)
}

func TestContainer_DelegatedParam(t *testing.T) {
	c := newSoundContainer(t)
	calls := 0

	snd, err := container.Resolve[*Sound](c, container.Delegated("v", func(b *container.Builder) (any, error) {
		calls++
		assert.Equal(t, soundID, b.Type())
		assert.Equal(t, "v", b.Param())
		return b.Make("U")
	}))
	require.NoError(t, err)
	assert.Equal(t, "aUo", snd.Say())
	assert.Equal(t, 1, calls)
}

func TestContainer_SubstituteParam(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))

	snd, err := container.Resolve[*Sound](c, container.Substitute("v", "U"))
	require.NoError(t, err)
	assert.Equal(t, "aUo", snd.Say())
}

// ── decorator example ────────────────────────────────────────────────────────

type Service interface{ Describe() string }

type Impl struct{ a, b string }

func NewImpl(a, b string) *Impl { return &Impl{a: a, b: b} }

func (i *Impl) Describe() string { return i.a + i.b }

type Decorator struct{ inner Service }

func NewDecorator(instance Service) *Decorator { return &Decorator{inner: instance} }

func (d *Decorator) Describe() string { return "[" + d.inner.Describe() + "]" }

func TestContainer_DecoratorExample(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Constructor(NewImpl, "a", "b"))
	require.NoError(t, c.Constructor(NewDecorator, "instance"))
	c.Define(container.TypeOf[*Impl](),
		container.Delegated("a", func(*container.Builder) (any, error) { return "A", nil }),
		container.Delegated("b", func(*container.Builder) (any, error) { return "B", nil }),
	)

	d, err := container.Resolve[*Decorator](c, container.Use("instance", container.TypeOf[*Impl]()))
	require.NoError(t, err)
	assert.Equal(t, "[AB]", d.Describe())
}

// ── cycles ───────────────────────────────────────────────────────────────────

func TestContainer_SelfCycle(t *testing.T) {
	c := container.New()
	id, err := container.Register[*Loop](c)
	require.NoError(t, err)

	_, err = c.Make(id)
	var cyc *container.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []container.TypeID{id, id}, cyc.Path)
}

func TestContainer_ConstructorCycle(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Constructor(NewCycA, "b"))
	require.NoError(t, c.Constructor(NewCycB, "a"))

	a, b := container.TypeOf[*CycA](), container.TypeOf[*CycB]()
	_, err := c.Make(a)
	var cyc *container.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []container.TypeID{a, b, a}, cyc.Path)
}

func TestContainer_AliasCycle(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Alias("X", "Y"))
	require.NoError(t, c.Alias("Y", "X"))

	_, err := c.Make("X")
	var cyc *container.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []container.TypeID{"X", "Y", "X"}, cyc.Path)
}

func TestContainer_SelfAliasRejected(t *testing.T) {
	c := container.New()
	assert.ErrorIs(t, c.Alias("X", "X"), container.ErrConfig)
}

func TestContainer_DelegateRequestingItself(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Delegate(pairID, func(b *container.Builder) (any, error) {
		return b.Make(pairID)
	}))

	_, err := c.Make(pairID)
	assert.ErrorIs(t, err, container.ErrCyclicDependency)
}

func TestContainer_MaxDepth(t *testing.T) {
	c := container.New(container.WithMaxDepth(2))
	id, err := container.Register[*L1](c)
	require.NoError(t, err)

	_, err = c.Make(id)
	var deep *container.DepthExceededError
	require.ErrorAs(t, err, &deep)
	assert.Equal(t, 2, deep.Limit)
	assert.Len(t, deep.Path, 3)
}

// ── scoping ──────────────────────────────────────────────────────────────────

func TestContainer_AliasesAreScopedToContainer(t *testing.T) {
	cat := container.NewCatalog()
	first := newSoundContainer(t, container.WithCatalog(cat))
	second := newSoundContainer(t, container.WithCatalog(cat))
	bare := newSoundContainer(t, container.WithCatalog(cat))

	require.NoError(t, first.Alias(vowelID, "E"))
	require.NoError(t, second.Alias(vowelID, "U"))

	assert.Equal(t, "aEo", container.MustResolve[*Sound](first).Say())
	assert.Equal(t, "aUo", container.MustResolve[*Sound](second).Say())

	_, err := bare.Make(soundID)
	assert.ErrorIs(t, err, container.ErrUnresolvableAbstract)
}

func TestContainer_ScopedAlias(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	require.NoError(t, c.When(soundID).Needs(vowelID).Give("U"))

	snd := container.MustResolve[*Sound](c)
	assert.Equal(t, "aUo", snd.Say())

	// overrides still win
	snd = container.MustResolve[*Sound](c, container.Use("v", "E"))
	assert.Equal(t, "aEo", snd.Say())

	v, err := c.Make(vowelID)
	require.NoError(t, err)
	assert.IsType(t, &E{}, v)
}

func TestContainer_ScopedValue(t *testing.T) {
	c := newSoundContainer(t)
	u := &U{}
	require.NoError(t, c.When(soundID).Needs(vowelID).GiveValue(u))

	assert.Same(t, u, container.MustResolve[*Sound](c).V)
}

func TestContainer_ScopedFactory(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.When(soundID).Needs(vowelID).GiveFactory(func(b *container.Builder) (any, error) {
		return b.Make("E")
	}))

	assert.Equal(t, "aEo", container.MustResolve[*Sound](c).Say())
}

// ── delegates ────────────────────────────────────────────────────────────────

func TestContainer_Delegate(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Delegate(pairID, func(b *container.Builder) (any, error) {
		a, _ := b.Arg("a")
		return &Pair{A: a.(string), B: len(b.Positional())}, nil
	}))
	c.Define(pairID, container.Positional(1, 2, 3))

	p, err := container.Resolve[*Pair](c, container.Raw("a", "delegated"))
	require.NoError(t, err)
	assert.Equal(t, &Pair{A: "delegated", B: 3}, p)
}

func TestContainer_DelegateReturningNil(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Delegate("Nil", func(*container.Builder) (any, error) { return nil, nil }))

	_, err := c.Make("Nil")
	assert.ErrorIs(t, err, container.ErrConstruction)
}

func TestContainer_DelegateError(t *testing.T) {
	boom := errors.New("boom")
	c := container.New()
	require.NoError(t, c.Delegate("Broken", func(*container.Builder) (any, error) { return nil, boom }))

	_, err := c.Make("Broken")
	assert.ErrorIs(t, err, container.ErrConstruction)
	assert.ErrorIs(t, err, boom)
}

func TestContainer_DelegatePanic(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Delegate("Panics", func(*container.Builder) (any, error) { panic("nope") }))

	_, err := c.Make("Panics")
	assert.ErrorIs(t, err, container.ErrConstruction)
}

func TestContainer_DelegatePropagatesResolutionErrors(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Delegate("Wrapper", func(b *container.Builder) (any, error) {
		return b.Make(soundID)
	}))

	_, err := c.Make("Wrapper")
	assert.ErrorIs(t, err, container.ErrUnresolvableAbstract)
	assert.NotErrorIs(t, err, container.ErrConstruction)
}

func TestContainer_NilDelegateRejected(t *testing.T) {
	c := container.New()
	assert.ErrorIs(t, c.Delegate("X", nil), container.ErrConfig)
}

// ── failures ─────────────────────────────────────────────────────────────────

func TestContainer_UnknownType(t *testing.T) {
	c := container.New()
	_, err := c.Make("Nope")
	assert.ErrorIs(t, err, container.ErrNotConstructible)
}

func TestContainer_FailedMakeCachesNothing(t *testing.T) {
	var n atomic.Int64
	c := container.New()
	require.NoError(t, countingCounter(c, &n))
	c.Share(container.TypeOf[*Counter]())
	id, err := container.Register[*Holder](c)
	require.NoError(t, err)

	_, err = c.Make(id)
	require.ErrorIs(t, err, container.ErrMissingRawValue)
	assert.False(t, c.Resolved(container.TypeOf[*Counter]()))

	h, err := container.Resolve[*Holder](c, container.Raw("label", "ok"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.Counter.id)
}

func TestContainer_ResolveWrongType(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Delegate(container.TypeOf[*E](), func(*container.Builder) (any, error) {
		return &U{}, nil
	}))

	_, err := container.Resolve[*E](c)
	assert.ErrorIs(t, err, container.ErrConfig)
	assert.Panics(t, func() { container.MustResolve[*E](c) })
}

// ── hooks ────────────────────────────────────────────────────────────────────

func TestContainer_Prepare(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	c.Prepare(vowelID, func(inst any, _ *container.Builder) (any, error) {
		return &U{}, nil
	})

	assert.Equal(t, "aUo", container.MustResolve[*Sound](c).Say())

	// "E" requested directly does not pass through the Vowel hook
	v, err := c.Make("E")
	require.NoError(t, err)
	assert.IsType(t, &E{}, v)
}

func TestContainer_PrepareRunsOnceForShared(t *testing.T) {
	c := newSoundContainer(t)
	c.Share("E")
	calls := 0
	c.Prepare("E", func(inst any, _ *container.Builder) (any, error) {
		calls++
		return nil, nil
	})

	_, err := c.Make("E")
	require.NoError(t, err)
	_, err = c.Make("E")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestContainer_AfterResolvingAndAfterMake(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))

	var resolved []container.TypeID
	var events []container.MakeEvent
	c.AfterResolving(func(id container.TypeID, _ any) { resolved = append(resolved, id) })
	c.AfterMake(func(ev container.MakeEvent) { events = append(events, ev) })

	_, err := c.Make(soundID)
	require.NoError(t, err)
	_, err = c.Make("Nope")
	require.Error(t, err)

	assert.Equal(t, []container.TypeID{vowelID, soundID}, resolved)
	require.Len(t, events, 2)
	assert.Equal(t, soundID, events[0].ID)
	assert.Equal(t, 2, events[0].Built)
	assert.NoError(t, events[0].Err)
	assert.ErrorIs(t, events[1].Err, container.ErrNotConstructible)
}

func TestContainer_BuilderAfterMakeRunsUnlocked(t *testing.T) {
	c := newSoundContainer(t)
	var nested *Sound
	require.NoError(t, c.Delegate("Outer", func(b *container.Builder) (any, error) {
		b.AfterMake(func() {
			// the lock is free again, so the container can be used directly
			nested = container.MustResolve[*Sound](c, container.Use("v", "U"))
		})
		return "outer", nil
	}))

	_, err := c.Make("Outer")
	require.NoError(t, err)
	require.NotNil(t, nested)
	assert.Equal(t, "aUo", nested.Say())
}

// ── lazy loaders ─────────────────────────────────────────────────────────────

func TestContainer_Lazy(t *testing.T) {
	c := newSoundContainer(t)
	loads := 0
	c.Lazy([]container.TypeID{vowelID}, func(b *container.Builder) error {
		loads++
		return b.Alias(vowelID, "E")
	})
	assert.True(t, c.Bound(vowelID))

	assert.Equal(t, "aEo", container.MustResolve[*Sound](c).Say())
	assert.Equal(t, "aEo", container.MustResolve[*Sound](c).Say())
	assert.Equal(t, 1, loads)
}

func TestContainer_LazyError(t *testing.T) {
	c := newSoundContainer(t)
	c.Lazy([]container.TypeID{vowelID}, func(*container.Builder) error {
		return errors.New("unavailable")
	})

	_, err := c.Make(soundID)
	assert.ErrorIs(t, err, container.ErrConstruction)
}

func TestContainer_LazyRetriedAfterError(t *testing.T) {
	c := newSoundContainer(t)
	calls := 0
	c.Lazy([]container.TypeID{"svc", "svc-alias"}, func(b *container.Builder) error {
		calls++
		if calls == 1 {
			return errors.New("unavailable")
		}
		if err := b.Alias("svc-alias", "svc"); err != nil {
			return err
		}
		return b.Delegate("svc", value("ready"))
	})

	_, err := c.Make("svc")
	require.ErrorIs(t, err, container.ErrConstruction)

	got, err := c.Make("svc-alias")
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 2, calls)

	_, err = c.Make("svc")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

// ── tags & inspection ────────────────────────────────────────────────────────

func TestContainer_Tagged(t *testing.T) {
	c := newSoundContainer(t)
	c.Tag([]container.TypeID{"E", "U"}, "vowels")

	all, err := c.Tagged("vowels")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.IsType(t, &E{}, all[0])
	assert.IsType(t, &U{}, all[1])

	none, err := c.Tagged("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContainer_BoundForgetFlush(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	c.Define(soundID, container.Use("v", "U"))

	assert.True(t, c.Bound(vowelID))
	assert.Contains(t, c.Bindings(), soundID)

	c.Forget(vowelID)
	assert.False(t, c.Bound(vowelID))

	c.Flush()
	assert.False(t, c.Bound(soundID))
	// the container stays resolvable as itself
	assert.Same(t, c, container.MustResolve[*container.Container](c))
}

func TestContainer_Snapshot(t *testing.T) {
	c := newSoundContainer(t)
	require.NoError(t, c.Alias(vowelID, "E"))
	c.Define(pairID, container.Raw("a", "x"), container.Positional(1))
	c.Share("E")

	snap := c.Snapshot()
	assert.Equal(t, c.ID(), snap.ID)
	assert.Equal(t, container.TypeID("E"), snap.Aliases[vowelID])
	assert.Equal(t, []string{":a", "[1 positional]"}, snap.Definitions[pairID])
	assert.Contains(t, snap.Shared, container.TypeID("E"))

	out, err := snap.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "aliases:")
}

// ── concurrency ──────────────────────────────────────────────────────────────

func TestContainer_ConcurrentSharedMake(t *testing.T) {
	var n atomic.Int64
	c := container.New()
	require.NoError(t, countingCounter(c, &n))
	id := container.TypeOf[*Counter]()
	c.Share(id)

	const workers = 32
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Make(id)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, n.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}
