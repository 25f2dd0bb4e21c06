// Package typename implements the node type naming convention: a name that
// starts with the foreign marker is hosted by the embedded scripting runtime,
// any other name must be registered natively.
package typename

import "strings"

// Marker is the fixed-length origin prefix of foreign-hosted types.
const Marker = "py."

// IsForeign reports whether name carries the foreign origin marker.
func IsForeign(name string) bool {
	return strings.HasPrefix(name, Marker)
}

// Bare strips the marker from a foreign name. Names without the marker are
// returned unchanged.
func Bare(name string) string {
	if !IsForeign(name) {
		return name
	}
	return name[len(Marker):]
}

// Qualify joins a namespace candidate and a bare name. An empty namespace
// means the current directory of the foreign runtime.
func Qualify(namespace, bare string) string {
	if namespace == "" {
		return bare
	}
	return namespace + "." + bare
}

// Foreign returns the foreign-marked form of a bare name.
func Foreign(bare string) string {
	return Marker + bare
}
