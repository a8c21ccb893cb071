package container

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type paramKind uint8

const (
	rawParam        paramKind = iota + 1 // ":name"
	rawAtParam                           // raw value keyed by position
	substituteParam                      // "+name" naming a type
	delegatedParam                       // "+name" with a factory
	useParam                             // bare "name" naming a type
	positionalParam                      // unkeyed, consumed in order
)

// Param is a single parameter override. Build one with Raw, RawAt,
// Substitute, Delegated, Use or Positional, or decode a map with ParseParams.
type Param struct {
	kind    paramKind
	name    string
	pos     int
	value   any
	id      TypeID
	factory Factory
	values  []any
}

// Raw injects v verbatim into the parameter called name (":name").
//
//	c.Make(container.TypeOf[*Cat](), container.Raw("lives", 9))
func Raw(name string, v any) Param {
	return Param{kind: rawParam, name: name, value: v}
}

// RawAt injects v verbatim into the parameter at position pos.
func RawAt(pos int, v any) Param {
	if pos < 0 {
		panic(fmt.Sprintf("container: RawAt: negative position %d", pos))
	}
	return Param{kind: rawAtParam, pos: pos, value: v}
}

// Substitute resolves id in place of the parameter's declared type ("+name").
func Substitute(name string, id TypeID) Param {
	return Param{kind: substituteParam, name: name, id: id}
}

// Delegated calls f to produce the parameter's value ("+name" with a callable).
func Delegated(name string, f Factory) Param {
	return Param{kind: delegatedParam, name: name, factory: f}
}

// Use resolves the type called id for the parameter (bare "name" key).
//
//	c.Make(container.TypeOf[*Sound](), container.Use("v", "U"))
func Use(name string, id TypeID) Param {
	return Param{kind: useParam, name: name, id: id}
}

// Positional supplies unkeyed raw values, consumed in declaration order by
// parameters that no keyed override satisfies.
func Positional(vs ...any) Param {
	return Param{kind: positionalParam, values: vs}
}

// Key renders the parameter in the string grammar accepted by ParseParams.
func (p Param) Key() string {
	switch p.kind {
	case rawParam:
		return ":" + p.name
	case rawAtParam:
		return ":" + strconv.Itoa(p.pos)
	case substituteParam, delegatedParam:
		return "+" + p.name
	case useParam:
		return p.name
	default:
		return ""
	}
}

// ParseParams decodes the prefixed key grammar into Params:
//
//	":name" -> Raw; ":0" -> RawAt
//	"+name" -> Substitute (TypeID or string value) or Delegated (Factory value)
//	"name"  -> Use (TypeID or string value)
//
// Anything else is a *ConfigError. Keys are processed in sorted order so the
// result is deterministic.
func ParseParams(m map[string]any) ([]Param, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Param, 0, len(keys))
	for _, key := range keys {
		v := m[key]
		switch {
		case key == "" || key == ":" || key == "+":
			return nil, &ConfigError{Op: "parse params", Reason: "empty parameter key " + strconv.Quote(key)}

		case strings.HasPrefix(key, ":"):
			name := key[1:]
			if pos, err := strconv.Atoi(name); err == nil {
				if pos < 0 {
					return nil, &ConfigError{Op: "parse params", Reason: "negative position in " + strconv.Quote(key)}
				}
				out = append(out, RawAt(pos, v))
				continue
			}
			out = append(out, Raw(name, v))

		case strings.HasPrefix(key, "+"):
			name := key[1:]
			if f, ok := asFactory(v); ok {
				out = append(out, Delegated(name, f))
				continue
			}
			id, ok := asTypeID(v)
			if !ok {
				return nil, &ConfigError{Op: "parse params", Reason: fmt.Sprintf("%q needs a type id or factory, got %T", key, v)}
			}
			out = append(out, Substitute(name, id))

		default:
			id, ok := asTypeID(v)
			if !ok {
				return nil, &ConfigError{Op: "parse params", Reason: fmt.Sprintf("%q needs a type id, got %T (use %q for raw values)", key, v, ":"+key)}
			}
			out = append(out, Use(key, id))
		}
	}
	return out, nil
}

func asTypeID(v any) (TypeID, bool) {
	switch t := v.(type) {
	case TypeID:
		return t, t != ""
	case string:
		return TypeID(t), t != ""
	case reflect.Type:
		return IDOf(t), t != nil
	}
	return "", false
}

func asFactory(v any) (Factory, bool) {
	switch f := v.(type) {
	case Factory:
		return f, f != nil
	case func(*Builder) (any, error):
		return f, f != nil
	case func() any:
		return func(*Builder) (any, error) { return f(), nil }, f != nil
	}
	return nil, false
}

// ── Compiled view ────────────────────────────────────────────────────────────

// Params is the compiled, read-only form of a []Param. Later entries win
// over earlier ones with the same key; positional values accumulate.
type Params struct {
	raw        map[string]any
	rawAt      map[int]any
	substitute map[string]Param
	use        map[string]TypeID
	positional []any
	source     []Param
}

var emptyParams = &Params{}

func compileParams(params []Param) *Params {
	if len(params) == 0 {
		return emptyParams
	}
	p := &Params{source: append([]Param(nil), params...)}
	for _, param := range params {
		switch param.kind {
		case rawParam:
			if p.raw == nil {
				p.raw = make(map[string]any)
			}
			p.raw[param.name] = param.value
		case rawAtParam:
			if p.rawAt == nil {
				p.rawAt = make(map[int]any)
			}
			p.rawAt[param.pos] = param.value
		case substituteParam, delegatedParam:
			if p.substitute == nil {
				p.substitute = make(map[string]Param)
			}
			p.substitute[param.name] = param
		case useParam:
			if p.use == nil {
				p.use = make(map[string]TypeID)
			}
			p.use[param.name] = param.id
		case positionalParam:
			p.positional = append(p.positional, param.values...)
		}
	}
	return p
}

// Len reports the number of overrides, counting each positional value.
func (p *Params) Len() int {
	return len(p.raw) + len(p.rawAt) + len(p.substitute) + len(p.use) + len(p.positional)
}

// Keys lists the keyed overrides in the ParseParams grammar, sorted.
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.Len())
	for name := range p.raw {
		keys = append(keys, ":"+name)
	}
	for pos := range p.rawAt {
		keys = append(keys, ":"+strconv.Itoa(pos))
	}
	for name := range p.substitute {
		keys = append(keys, "+"+name)
	}
	for name := range p.use {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// rawFor returns the raw override for a parameter by name, then by position.
func (p *Params) rawFor(spec ParamSpec) (any, bool) {
	if v, ok := p.raw[spec.Name]; ok {
		return v, true
	}
	v, ok := p.rawAt[spec.Position]
	return v, ok
}

// mergedPositional lays call-site positional values over definition ones,
// index by index.
func mergedPositional(call, def *Params) []any {
	if len(call.positional) >= len(def.positional) {
		return call.positional
	}
	out := append([]any(nil), def.positional...)
	copy(out, call.positional)
	return out
}
