// Package state provides the container that carries a region's persisted
// state between the engine and a provider's deserialize operation. The factory
// never looks inside a Bundle; it hands it to the provider unmodified.
package state

import (
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// formatVersion is written into every encoded bundle.
const formatVersion = 1

// Bundle is a set of named binary sections.
type Bundle struct {
	sections map[string][]byte
}

// New returns an empty bundle.
func New() *Bundle {
	return &Bundle{sections: make(map[string][]byte)}
}

// Put stores data under name, replacing any previous section.
func (b *Bundle) Put(name string, data []byte) {
	if b.sections == nil {
		b.sections = make(map[string][]byte)
	}
	b.sections[name] = append([]byte(nil), data...)
}

// Get returns the named section.
func (b *Bundle) Get(name string) ([]byte, bool) {
	data, ok := b.sections[name]
	return data, ok
}

// Sections returns the section names in sorted order.
func (b *Bundle) Sections() []string {
	names := make([]string, 0, len(b.sections))
	for k := range b.sections {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PutValue msgpack-encodes v into the named section.
func (b *Bundle) PutValue(name string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding section %q: %w", name, err)
	}
	b.Put(name, data)
	return nil
}

// GetValue decodes the named section into v.
func (b *Bundle) GetValue(name string, v any) error {
	data, ok := b.sections[name]
	if !ok {
		return fmt.Errorf("bundle has no section %q", name)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding section %q: %w", name, err)
	}
	return nil
}

type wireBundle struct {
	Version  int               `msgpack:"version"`
	Sections map[string][]byte `msgpack:"sections"`
}

// WriteTo encodes the bundle to w.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	data, err := msgpack.Marshal(&wireBundle{Version: formatVersion, Sections: b.sections})
	if err != nil {
		return 0, fmt.Errorf("encoding bundle: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Read decodes a bundle previously written with WriteTo.
func Read(r io.Reader) (*Bundle, error) {
	var wb wireBundle
	if err := msgpack.NewDecoder(r).Decode(&wb); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	if wb.Version != formatVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", wb.Version)
	}
	b := New()
	for k, v := range wb.Sections {
		b.sections[k] = v
	}
	return b, nil
}
