//go:build cgo && !windows

package bridge

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

static void* nta_dlopen(const char* path) {
	return dlopen(path, RTLD_GLOBAL | RTLD_NOW);
}

static char* nta_dlerror(void) {
	return dlerror();
}

static void* nta_dlsym(void* handle, const char* name, char** err) {
	dlerror();
	void* sym = dlsym(handle, name);
	*err = dlerror();
	return sym;
}

typedef void (*nta_void_fn)(void);
typedef void* (*nta_create_spec_fn)(const char*, void**);
typedef int (*nta_destroy_spec_fn)(const char*);
typedef void* (*nta_create_node_fn)(const char*, void*, void*, void**);

static void nta_call_void(void* fn) {
	((nta_void_fn)fn)();
}

static void* nta_call_create_spec(void* fn, const char* name, void** exc) {
	return ((nta_create_spec_fn)fn)(name, exc);
}

static int nta_call_destroy_spec(void* fn, const char* name) {
	return ((nta_destroy_spec_fn)fn)(name);
}

static void* nta_call_create_node(void* fn, const char* name, uintptr_t arg, uintptr_t owner, void** exc) {
	return ((nta_create_node_fn)fn)(name, (void*)arg, (void*)owner, exc);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/regionerr"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

type sharedLibrary struct {
	path   string
	handle unsafe.Pointer
}

func openShared(path string) (Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.nta_dlopen(cpath)
	if h == nil {
		return nil, regionerr.BridgeLoadFailure(path, C.GoString(C.nta_dlerror()))
	}
	return &sharedLibrary{path: path, handle: h}, nil
}

func (l *sharedLibrary) Path() string { return l.path }

func (l *sharedLibrary) Symbol(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var cerr *C.char
	sym := C.nta_dlsym(l.handle, cname, &cerr)
	if cerr != nil {
		return nil, fmt.Errorf("dlsym %s: %s", name, C.GoString(cerr))
	}
	if sym == nil {
		return nil, fmt.Errorf("dlsym %s: null address", name)
	}
	return sym, nil
}

// foreignEntryPoints calls straight into the companion library. Params and
// bundles are passed as cgo handles that are valid only for the duration of
// the call; the owner handle lives as long as the returned Node.
type foreignEntryPoints struct {
	syms SymbolTable
}

func bindForeign(_ Library, syms SymbolTable) (EntryPoints, error) {
	return &foreignEntryPoints{syms: syms}, nil
}

func (e *foreignEntryPoints) InitRuntime() {
	C.nta_call_void(e.syms.InitRuntime)
}

func (e *foreignEntryPoints) FinalizeRuntime() {
	C.nta_call_void(e.syms.FinalizeRuntime)
}

// CreateSpec decodes the manifest text the runtime returns. The memory behind
// it stays with the runtime until DestroySpec.
func (e *foreignEntryPoints) CreateSpec(qualified string) (*spec.Spec, error) {
	cname := C.CString(qualified)
	defer C.free(unsafe.Pointer(cname))

	var exc unsafe.Pointer
	raw := C.nta_call_create_spec(e.syms.CreateSpec, cname, &exc)
	if raw == nil {
		if exc != nil {
			return nil, &ExceptionError{Op: SymbolCreateSpec, Qualified: qualified}
		}
		return nil, nil
	}
	text := C.GoString((*C.char)(raw))
	return spec.ParseRegion([]byte(text), qualified+".hcl", qualified)
}

func (e *foreignEntryPoints) DestroySpec(qualified string) int {
	cname := C.CString(qualified)
	defer C.free(unsafe.Pointer(cname))
	return int(C.nta_call_destroy_spec(e.syms.DestroySpec, cname))
}

func (e *foreignEntryPoints) CreateInstance(qualified string, p params.Map, owner region.Owner) (region.Impl, error) {
	return e.newNode(SymbolCreateInstance, e.syms.CreateInstance, qualified, p, owner)
}

func (e *foreignEntryPoints) DeserializeInstance(qualified string, b *state.Bundle, owner region.Owner) (region.Impl, error) {
	return e.newNode(SymbolDeserializeInstance, e.syms.DeserializeInstance, qualified, b, owner)
}

func (e *foreignEntryPoints) newNode(op string, fn unsafe.Pointer, qualified string, arg any, owner region.Owner) (region.Impl, error) {
	cname := C.CString(qualified)
	defer C.free(unsafe.Pointer(cname))

	argHandle := cgo.NewHandle(arg)
	defer argHandle.Delete()
	ownerHandle := cgo.NewHandle(owner)

	var exc unsafe.Pointer
	ptr := C.nta_call_create_node(fn, cname, C.uintptr_t(argHandle), C.uintptr_t(ownerHandle), &exc)
	if ptr == nil {
		ownerHandle.Delete()
		if exc != nil {
			return nil, &ExceptionError{Op: op, Qualified: qualified}
		}
		return nil, nil
	}
	return NewNode(qualified, ptr, ownerHandle.Delete), nil
}
