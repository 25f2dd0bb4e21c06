package bridge

import (
	"unsafe"

	"github.com/vk/regionfactory/internal/regionerr"
)

// Entry point names exported by the companion library.
const (
	SymbolInitRuntime         = "NTA_initPython"
	SymbolFinalizeRuntime     = "NTA_finalizePython"
	SymbolCreateSpec          = "NTA_createSpec"
	SymbolDestroySpec         = "NTA_destroySpec"
	SymbolCreateInstance      = "NTA_createPyNode"
	SymbolDeserializeInstance = "NTA_deserializePyNode"
)

// SymbolTable holds the resolved entry point addresses.
type SymbolTable struct {
	InitRuntime         unsafe.Pointer
	FinalizeRuntime     unsafe.Pointer
	CreateSpec          unsafe.Pointer
	DestroySpec         unsafe.Pointer
	CreateInstance      unsafe.Pointer
	DeserializeInstance unsafe.Pointer
}

// resolveSymbols looks up every entry point. The first missing one aborts the
// resolution with SymbolMissing naming it.
func resolveSymbols(lib Library) (SymbolTable, error) {
	var t SymbolTable
	slots := []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{SymbolInitRuntime, &t.InitRuntime},
		{SymbolFinalizeRuntime, &t.FinalizeRuntime},
		{SymbolCreateInstance, &t.CreateInstance},
		{SymbolDeserializeInstance, &t.DeserializeInstance},
		{SymbolCreateSpec, &t.CreateSpec},
		{SymbolDestroySpec, &t.DestroySpec},
	}
	for _, s := range slots {
		p, err := lib.Symbol(s.name)
		if err != nil || p == nil {
			e := regionerr.SymbolMissing(s.name, lib.Path())
			e.Cause = err
			return SymbolTable{}, e
		}
		*s.dst = p
	}
	return t, nil
}
