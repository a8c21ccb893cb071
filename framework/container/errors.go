package container

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrConfig               = errors.New("container: invalid configuration")
	ErrCyclicDependency     = errors.New("container: cyclic dependency")
	ErrUnresolvableAbstract = errors.New("container: unresolvable abstract type")
	ErrMissingRawValue      = errors.New("container: missing raw value")
	ErrNotConstructible     = errors.New("container: type not constructible")
	ErrDepthExceeded        = errors.New("container: resolution depth exceeded")
	ErrConstruction         = errors.New("container: construction failed")
)

// ConfigError reports a malformed registration or an argument that does not
// fit the parameter it was given to.
type ConfigError struct {
	Op     string
	Type   TypeID
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Type == "" {
		return "container: " + e.Op + ": " + e.Reason
	}
	return "container: " + e.Op + " [" + string(e.Type) + "]: " + e.Reason
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// CyclicDependencyError reports a resolution path that revisits a type.
// Path ends with the revisited id.
type CyclicDependencyError struct {
	Path []TypeID
}

func (e *CyclicDependencyError) Error() string {
	return "container: cyclic dependency " + joinPath(e.Path)
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// UnresolvableAbstractTypeError reports an interface with nothing bound to it.
// Owner and Param are empty when the abstract type was requested directly.
type UnresolvableAbstractTypeError struct {
	Type  TypeID
	Owner TypeID
	Param string
}

func (e *UnresolvableAbstractTypeError) Error() string {
	if e.Param == "" {
		return "container: no alias, delegate or shared instance for abstract type [" + string(e.Type) + "]"
	}
	return "container: parameter " + strconv.Quote(e.Param) + " of [" + string(e.Owner) +
		"] needs abstract type [" + string(e.Type) + "] with no alias, delegate or override"
}

func (e *UnresolvableAbstractTypeError) Is(target error) bool {
	return target == ErrUnresolvableAbstract
}

// MissingRawValueError reports an unconstrained parameter with neither an
// override nor a default.
type MissingRawValueError struct {
	Owner    TypeID
	Param    string
	Position int
}

func (e *MissingRawValueError) Error() string {
	return fmt.Sprintf("container: no raw value for parameter %q (#%d) of [%s]", e.Param, e.Position, e.Owner)
}

func (e *MissingRawValueError) Is(target error) bool { return target == ErrMissingRawValue }

// NotConstructibleError is returned by an Introspector for ids it cannot describe.
type NotConstructibleError struct {
	Type   TypeID
	Reason string
}

func (e *NotConstructibleError) Error() string {
	return "container: [" + string(e.Type) + "] is not constructible: " + e.Reason
}

func (e *NotConstructibleError) Is(target error) bool { return target == ErrNotConstructible }

// DepthExceededError guards against cycles the path check cannot see, such
// as a factory that keeps requesting fresh types.
type DepthExceededError struct {
	Limit int
	Path  []TypeID
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("container: resolution deeper than %d: %s", e.Limit, joinPath(e.Path))
}

func (e *DepthExceededError) Is(target error) bool { return target == ErrDepthExceeded }

// ConstructionError wraps an error returned (or a panic raised) by a
// constructor or factory.
type ConstructionError struct {
	Type TypeID
	Err  error
}

func (e *ConstructionError) Error() string {
	return "container: building [" + string(e.Type) + "]: " + e.Err.Error()
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

func joinPath(path []TypeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}

// Kind names the failure class of err, for logs, metrics and HTTP replies.
// It returns "" for nil and "other" for errors from outside the container.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCyclicDependency):
		return "cyclic_dependency"
	case errors.Is(err, ErrUnresolvableAbstract):
		return "unresolvable_abstract"
	case errors.Is(err, ErrMissingRawValue):
		return "missing_raw_value"
	case errors.Is(err, ErrNotConstructible):
		return "not_constructible"
	case errors.Is(err, ErrDepthExceeded):
		return "depth_exceeded"
	case errors.Is(err, ErrConstruction):
		return "construction"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "other"
	}
}
