//go:build !cgo || windows

package bridge

import (
	"errors"

	"github.com/vk/regionfactory/internal/regionerr"
)

func openShared(path string) (Library, error) {
	return nil, regionerr.BridgeLoadFailure(path, "dynamic loading needs a cgo build on a dlfcn platform")
}

func bindForeign(Library, SymbolTable) (EntryPoints, error) {
	return nil, errors.New("foreign entry points are unavailable in this build")
}
