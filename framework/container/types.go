package container

import (
	"reflect"
)

// ── Type identity ─────────────────────────────────────────────────────────────

// TypeID identifies a constructible (or aliasable) type inside a container.
//
// Ids derived from Go types look like "github.com/acme/app.Sound" or
// "*github.com/acme/app.E". Custom short names ("E", "mailer") can be bound
// to a Go type through Catalog.Name.
type TypeID string

// String implements fmt.Stringer.
func (id TypeID) String() string { return string(id) }

// TypeOf returns the TypeID of T.
//
//	container.TypeOf[*Sound]()      // "*main.Sound"
//	container.TypeOf[Vowel]()       // "main.Vowel"
func TypeOf[T any]() TypeID {
	return IDOf(reflect.TypeFor[T]())
}

// IDOf derives the TypeID of a reflect.Type. Named types use their package
// path, pointers keep a "*" prefix, unnamed types fall back to t.String().
func IDOf(t reflect.Type) TypeID {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		return "*" + IDOf(t.Elem())
	}
	if t.Name() == "" {
		return TypeID(t.String())
	}
	if t.PkgPath() == "" {
		return TypeID(t.Name())
	}
	return TypeID(t.PkgPath() + "." + t.Name())
}

// TypeKey returns the TypeID of v. Pass a nil pointer to an interface to get
// the interface's own id.
//
//	key := container.TypeKey((*Vowel)(nil))  // "main.Vowel"
//	key := container.TypeKey(&E{})           // "*main.E"
func TypeKey(v any) TypeID {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return IDOf(t)
}

// ── Constructor shapes ───────────────────────────────────────────────────────

// RefKind classifies the declared type of a constructor parameter.
type RefKind uint8

const (
	// Unconstrained parameters (any, basic kinds, slices, maps, funcs) can
	// only be satisfied by raw values or defaults.
	Unconstrained RefKind = iota
	// Concrete parameters are built recursively.
	Concrete
	// Abstract parameters (interfaces) need an alias, delegate, shared
	// instance or override.
	Abstract
)

func (k RefKind) String() string {
	switch k {
	case Concrete:
		return "concrete"
	case Abstract:
		return "abstract"
	default:
		return "unconstrained"
	}
}

// TypeRef is the declared type of a parameter.
type TypeRef struct {
	Kind RefKind
	ID   TypeID
}

// ParamSpec describes one constructor parameter.
type ParamSpec struct {
	Name       string
	Position   int
	Type       TypeRef
	HasDefault bool
	Default    any
}

// Shape is what an Introspector reports for a type: whether it is abstract,
// its parameters in declaration order and how to build it from arguments.
type Shape struct {
	ID       TypeID
	Abstract bool
	Params   []ParamSpec

	// New builds an instance from one argument per parameter.
	New func(args []any) (any, error)
}

// Introspector reports constructor shapes. Implementations must return
// *NotConstructibleError for ids they cannot describe.
type Introspector interface {
	Inspect(id TypeID) (Shape, error)
}
