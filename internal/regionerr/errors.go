// Package regionerr defines the failure taxonomy of the region factory. All
// kinds are fatal at the factory layer; none are retried internally.
package regionerr

import (
	"fmt"
	"strings"
)

// Kind categorizes a factory failure.
type Kind string

const (
	KindBridgeNotFound    Kind = "bridge_not_found"    // install root or companion library missing
	KindBridgeLoadFailure Kind = "bridge_load_failure" // companion library failed to load
	KindSymbolMissing     Kind = "symbol_missing"      // required entry point absent
	KindTypeNotFound      Kind = "type_not_found"      // foreign search path exhausted
	KindUnsupportedType   Kind = "unsupported_type"    // neither native nor foreign
	KindSpecUnavailable   Kind = "spec_unavailable"    // spec construction returned nothing
	KindImplUnavailable   Kind = "impl_unavailable"    // provider returned no implementation
	KindInvalidParams     Kind = "invalid_params"      // parameter string rejected
)

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrBridgeNotFound    = &Error{Kind: KindBridgeNotFound}
	ErrBridgeLoadFailure = &Error{Kind: KindBridgeLoadFailure}
	ErrSymbolMissing     = &Error{Kind: KindSymbolMissing}
	ErrTypeNotFound      = &Error{Kind: KindTypeNotFound}
	ErrUnsupportedType   = &Error{Kind: KindUnsupportedType}
	ErrSpecUnavailable   = &Error{Kind: KindSpecUnavailable}
	ErrImplUnavailable   = &Error{Kind: KindImplUnavailable}
	ErrInvalidParams     = &Error{Kind: KindInvalidParams}
)

// Error is the structured error returned by every factory component.
type Error struct {
	Cause error
	Kind  Kind
	// Name is the offending type name, symbol name or path.
	Name   string
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newf(kind Kind, name string, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Name: name, Detail: detail}
}

// BridgeNotFound reports a missing installation root or companion library.
func BridgeNotFound(path string, format string, args ...any) *Error {
	return newf(KindBridgeNotFound, path, format, args...)
}

// BridgeLoadFailure carries the dynamic loader's diagnostic string.
func BridgeLoadFailure(path, diagnostic string) *Error {
	return newf(KindBridgeLoadFailure, path, "%s", diagnostic)
}

// SymbolMissing reports a required entry point absent from the companion library.
func SymbolMissing(symbol, library string) *Error {
	return newf(KindSymbolMissing, symbol, "not exported by %s", library)
}

// TypeNotFound reports that no namespace on the search path hosts typeName.
func TypeNotFound(typeName string, tried int) *Error {
	return newf(KindTypeNotFound, typeName, "no matching foreign module after %d candidate(s)", tried)
}

// UnsupportedType reports a name that is neither registered nor foreign-marked.
func UnsupportedType(typeName string) *Error {
	return newf(KindUnsupportedType, typeName, "not a registered native type and missing the foreign marker")
}

// SpecUnavailable reports a recognized type whose spec could not be built.
func SpecUnavailable(typeName string) *Error {
	return newf(KindSpecUnavailable, typeName, "provider returned no spec")
}

// ImplUnavailable reports a recognized type whose provider returned no implementation.
func ImplUnavailable(typeName string) *Error {
	return newf(KindImplUnavailable, typeName, "provider returned no implementation")
}

// InvalidParams wraps a parameter parsing failure.
func InvalidParams(typeName string, cause error) *Error {
	return &Error{Kind: KindInvalidParams, Name: typeName, Cause: cause}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, name string, cause error, detail string) *Error {
	return &Error{Kind: kind, Name: name, Detail: detail, Cause: cause}
}
