package bridge

import (
	"path/filepath"
	"unsafe"
)

// packageDir is the directory under the installation root holding the
// companion library.
const packageDir = "nupic"

// LibraryFileName returns the companion library's file name for goos.
func LibraryFileName(goos string) string {
	if goos == "windows" {
		return "cpp_region.dll"
	}
	return "libcpp_region.so"
}

// LibraryPath joins the installation root and the library file name.
func LibraryPath(root, fileName string) string {
	return filepath.Join(root, packageDir, fileName)
}

// Library is a loaded shared library. There is deliberately no Close: the
// companion library stays mapped for the life of the process.
type Library interface {
	Path() string
	// Symbol returns the address of an exported symbol.
	Symbol(name string) (unsafe.Pointer, error)
}

// Opener loads the shared library at path, making its symbols globally
// visible and resolving all of them immediately.
type Opener func(path string) (Library, error)
