package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
)

var errorType = reflect.TypeFor[error]()

// constructor is a registered constructor function and its parameter names.
type constructor struct {
	fn       reflect.Value
	names    []string
	hasError bool
}

// Catalog is the reflection-backed Introspector.
//
// Go cannot read parameter names at runtime, so constructors are registered
// together with their names. Struct types need no registration beyond being
// known: their exported fields are the parameters.
//
//	cat.Constructor(NewSound, "v")          // func NewSound(v Vowel) *Sound
//	cat.Learn(reflect.TypeFor[*Config]())   // field injection
//	cat.Name("E", reflect.TypeFor[*E]())    // make "E" a valid TypeID
type Catalog struct {
	mu       sync.RWMutex
	types    map[TypeID]reflect.Type
	ctors    map[TypeID]*constructor
	defaults map[TypeID]map[string]any
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		types:    make(map[TypeID]reflect.Type),
		ctors:    make(map[TypeID]*constructor),
		defaults: make(map[TypeID]map[string]any),
	}
}

// Learn makes the given types known under their derived ids.
func (c *Catalog) Learn(types ...reflect.Type) []TypeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]TypeID, 0, len(types))
	for _, t := range types {
		if t == nil {
			continue
		}
		id := IDOf(t)
		c.types[id] = t
		ids = append(ids, id)
	}
	return ids
}

// Name binds a custom id to t, in addition to its derived id.
func (c *Catalog) Name(id TypeID, t reflect.Type) error {
	if id == "" || t == nil {
		return &ConfigError{Op: "name", Type: id, Reason: "empty name or nil type"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.types[id]; ok && prev != t {
		return &ConfigError{Op: "name", Type: id, Reason: "already names " + prev.String()}
	}
	c.types[id] = t
	c.types[IDOf(t)] = t
	return nil
}

// Lookup returns the Go type known under id.
func (c *Catalog) Lookup(id TypeID) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[id]
	return t, ok
}

// Constructor registers fn as the constructor of its first return type.
// fn must look like func(A, B, ...) T or func(A, B, ...) (T, error), and
// names must name every input in order.
func (c *Catalog) Constructor(fn any, names ...string) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return &ConfigError{Op: "constructor", Reason: fmt.Sprintf("want a function, got %T", fn)}
	}
	ft := v.Type()
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(0) != errorType && ft.Out(1) == errorType:
	default:
		return &ConfigError{Op: "constructor", Reason: ft.String() + " must return T or (T, error)"}
	}
	id := IDOf(ft.Out(0))
	if len(names) != ft.NumIn() {
		return &ConfigError{Op: "constructor", Type: id,
			Reason: fmt.Sprintf("%s takes %d parameters, %d names given", ft, ft.NumIn(), len(names))}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			return &ConfigError{Op: "constructor", Type: id, Reason: "parameter names must be unique and non-empty"}
		}
		seen[n] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[id] = ft.Out(0)
	c.ctors[id] = &constructor{
		fn:       v,
		names:    append([]string(nil), names...),
		hasError: ft.NumOut() == 2,
	}
	return nil
}

// Default sets a default value for a constructor or field parameter.
// Field defaults from `default` tags are overridden by it.
func (c *Catalog) Default(id TypeID, param string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.defaults[id]
	if !ok {
		m = make(map[string]any)
		c.defaults[id] = m
	}
	m[param] = v
}

// Inspect implements Introspector.
func (c *Catalog) Inspect(id TypeID) (Shape, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctor, ok := c.ctors[id]; ok {
		return c.constructorShape(id, ctor)
	}
	t, ok := c.types[id]
	if !ok {
		return Shape{}, &NotConstructibleError{Type: id, Reason: "unknown type"}
	}
	if ctor, ok := c.ctors[IDOf(t)]; ok {
		return c.constructorShape(id, ctor)
	}
	if t.Kind() == reflect.Interface {
		if t.NumMethod() == 0 {
			return Shape{}, &NotConstructibleError{Type: id, Reason: "empty interface"}
		}
		return Shape{ID: id, Abstract: true}, nil
	}
	// A constructor registered for the pointer type also builds the value type.
	if t.Kind() == reflect.Struct {
		if ctor, ok := c.ctors[IDOf(reflect.PointerTo(t))]; ok {
			shape, err := c.constructorShape(id, ctor)
			if err != nil {
				return Shape{}, err
			}
			build := shape.New
			shape.New = func(args []any) (any, error) {
				v, err := build(args)
				if err != nil {
					return nil, err
				}
				return reflect.ValueOf(v).Elem().Interface(), nil
			}
			return shape, nil
		}
	}
	if st, ptr := structOf(t); st != nil {
		return c.structShape(id, st, ptr)
	}
	return Shape{}, &NotConstructibleError{Type: id, Reason: t.Kind().String() + " has no constructor"}
}

func (c *Catalog) constructorShape(id TypeID, ctor *constructor) (Shape, error) {
	ft := ctor.fn.Type()
	defaults := c.defaults[id]
	params := make([]ParamSpec, ft.NumIn())
	types := make([]reflect.Type, ft.NumIn())
	for i := range params {
		in := ft.In(i)
		types[i] = in
		spec := ParamSpec{Name: ctor.names[i], Position: i, Type: c.classify(in)}
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			spec.Type = TypeRef{Kind: Unconstrained, ID: IDOf(in)}
			spec.HasDefault = true
		}
		if d, ok := defaults[spec.Name]; ok {
			spec.HasDefault, spec.Default = true, d
		}
		params[i] = spec
	}

	return Shape{
		ID:     id,
		Params: params,
		New: func(args []any) (out any, err error) {
			in := make([]reflect.Value, len(args))
			for i, arg := range args {
				v, err := convertArg(id, params[i], types[i], arg)
				if err != nil {
					return nil, err
				}
				in[i] = v
			}
			defer func() {
				if rec := recover(); rec != nil {
					out, err = nil, &ConstructionError{Type: id, Err: fmt.Errorf("panic: %v", rec)}
				}
			}()
			var res []reflect.Value
			if ft.IsVariadic() {
				res = ctor.fn.CallSlice(in)
			} else {
				res = ctor.fn.Call(in)
			}
			if ctor.hasError && !res[1].IsNil() {
				return nil, &ConstructionError{Type: id, Err: res[1].Interface().(error)}
			}
			if isNil(res[0]) {
				return nil, &ConstructionError{Type: id, Err: errors.New("constructor returned nil")}
			}
			return res[0].Interface(), nil
		},
	}, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (c *Catalog) structShape(id TypeID, st reflect.Type, ptr bool) (Shape, error) {
	defaults := c.defaults[id]
	var (
		params []ParamSpec
		fields []int
		types  []reflect.Type
	)
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("inject")
		if tag == "-" {
			continue
		}
		name := tag
		if name == "" {
			name = lowerFirst(f.Name)
		}
		spec := ParamSpec{Name: name, Position: len(params), Type: c.classify(f.Type)}
		if raw, ok := f.Tag.Lookup("default"); ok {
			v, err := decodeDefault(raw, f.Type)
			if err != nil {
				return Shape{}, &ConfigError{Op: "inspect", Type: id,
					Reason: fmt.Sprintf("default for field %s: %v", f.Name, err)}
			}
			spec.HasDefault, spec.Default = true, v
		}
		if d, ok := defaults[name]; ok {
			spec.HasDefault, spec.Default = true, d
		}
		params = append(params, spec)
		fields = append(fields, i)
		types = append(types, f.Type)
	}

	return Shape{
		ID:     id,
		Params: params,
		New: func(args []any) (any, error) {
			v := reflect.New(st)
			for i, arg := range args {
				fv, err := convertArg(id, params[i], types[i], arg)
				if err != nil {
					return nil, err
				}
				v.Elem().Field(fields[i]).Set(fv)
			}
			if ptr {
				return v.Interface(), nil
			}
			return v.Elem().Interface(), nil
		},
	}, nil
}

// classify maps a Go parameter type to a TypeRef and learns it.
// Must hold c.mu.
func (c *Catalog) classify(t reflect.Type) TypeRef {
	id := IDOf(t)
	switch {
	case t.Kind() == reflect.Interface && t.NumMethod() > 0:
		c.types[id] = t
		return TypeRef{Kind: Abstract, ID: id}
	case c.ctors[id] != nil:
		return TypeRef{Kind: Concrete, ID: id}
	}
	if st, _ := structOf(t); st != nil {
		c.types[id] = t
		return TypeRef{Kind: Concrete, ID: id}
	}
	return TypeRef{Kind: Unconstrained, ID: id}
}

// structOf returns the struct behind t (a struct or a pointer to one).
func structOf(t reflect.Type) (reflect.Type, bool) {
	switch {
	case t.Kind() == reflect.Struct:
		return t, false
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return t.Elem(), true
	}
	return nil, false
}

// convertArg turns a resolved argument into a value assignable to t.
// Raw values that do not fit are decoded weakly ("9" into an int).
func convertArg(owner TypeID, spec ParamSpec, t reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if weaklyDecodable(v.Type(), t) {
		out := reflect.New(t)
		if err := weakDecode(arg, out.Interface()); err == nil {
			return out.Elem(), nil
		}
	}
	return reflect.Value{}, &ConfigError{Op: "construct", Type: owner,
		Reason: fmt.Sprintf("parameter %q wants %s, got %T", spec.Name, t, arg)}
}

// weaklyDecodable limits weak decoding to scalars, collections of scalars
// and maps decoded into structs, so unrelated struct types never convert.
func weaklyDecodable(from, to reflect.Type) bool {
	switch to.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		switch from.Kind() {
		case reflect.Struct, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
			return false
		}
		return true
	case reflect.Slice, reflect.Array:
		return from.Kind() == reflect.Slice || from.Kind() == reflect.Array
	}
	if st, _ := structOf(to); st != nil {
		return from.Kind() == reflect.Map
	}
	return false
}

// decodeDefault converts a `default` struct tag into a value of type t.
func decodeDefault(raw string, t reflect.Type) (any, error) {
	if t.Kind() == reflect.String {
		return reflect.ValueOf(raw).Convert(t).Interface(), nil
	}
	out := reflect.New(t)
	var input any = raw
	if t.Kind() == reflect.Slice {
		input = strings.Split(raw, ",")
	}
	if err := weakDecode(input, out.Interface()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

// weakDecode is mapstructure.WeakDecode plus duration parsing.
func weakDecode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
