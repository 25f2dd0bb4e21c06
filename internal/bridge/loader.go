package bridge

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/vk/regionfactory/internal/ctxlog"
	"github.com/vk/regionfactory/internal/params"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/regionerr"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
)

// State is the lifecycle position of a Loader.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateInitialized
	// StateFinalized is entered only by Exit.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateFinalized:
		return "finalized"
	}
	return "unknown"
}

// ErrNotInitialized is returned by operations on a Loader whose runtime is
// not up.
var ErrNotInitialized = errors.New("bridge: foreign runtime is not initialized")

// Options configures a Loader. Zero fields take the platform defaults.
type Options struct {
	Discoverer  Discoverer
	LibraryName string
	Open        Opener
	Bind        Binder
}

func (o Options) withDefaults() Options {
	if o.Discoverer == nil {
		o.Discoverer = PythonDiscoverer("")
	}
	if o.LibraryName == "" {
		o.LibraryName = LibraryFileName(runtime.GOOS)
	}
	if o.Open == nil {
		o.Open = openShared
	}
	if o.Bind == nil {
		o.Bind = bindForeign
	}
	return o
}

// Loader owns the companion library and the foreign runtime. All calls into
// the runtime are serialized.
type Loader struct {
	opts Options

	// loadMu guards construction and the lifecycle fields below.
	loadMu  sync.Mutex
	state   State
	root    string
	libPath string
	lib     Library
	ep      EntryPoints

	// callMu is held for the duration of every foreign call.
	callMu sync.Mutex
}

// NewLoader returns an unloaded Loader.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts.withDefaults()}
}

// State reports the current lifecycle position.
func (l *Loader) State() State {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	return l.state
}

// Root returns the discovered installation root, or "" before a successful Load.
func (l *Loader) Root() string {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	return l.root
}

// LibraryPath returns the path of the loaded companion library.
func (l *Loader) LibraryPath() string {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	return l.libPath
}

// Load brings the runtime up. It is a no-op once the Loader is initialized.
// On failure the Loader stays unloaded and nothing from the attempt is kept.
func (l *Loader) Load(ctx context.Context) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	switch l.state {
	case StateInitialized:
		return nil
	case StateFinalized:
		return regionerr.BridgeLoadFailure(l.libPath, "foreign runtime was finalized")
	}

	logger := ctxlog.FromContext(ctx)

	root, err := l.opts.Discoverer.InstallRoot(ctx)
	if err != nil {
		e := regionerr.BridgeNotFound("", "installation root discovery failed")
		e.Cause = err
		return e
	}
	if root == "" {
		return regionerr.BridgeNotFound("", "installation root discovery returned an empty path")
	}
	if _, err := os.Stat(root); err != nil {
		return regionerr.BridgeNotFound(root, "installation root does not exist")
	}

	libPath := LibraryPath(root, l.opts.LibraryName)
	if _, err := os.Stat(libPath); err != nil {
		return regionerr.BridgeNotFound(libPath, "companion library does not exist")
	}

	lib, err := l.opts.Open(libPath)
	if err != nil {
		var re *regionerr.Error
		if errors.As(err, &re) {
			return err
		}
		return regionerr.BridgeLoadFailure(libPath, err.Error())
	}
	l.state = StateLoaded
	logger.Debug("Companion library loaded.", "path", libPath)

	syms, err := resolveSymbols(lib)
	if err != nil {
		l.state = StateUnloaded
		return err
	}
	ep, err := l.opts.Bind(lib, syms)
	if err != nil {
		l.state = StateUnloaded
		return regionerr.Wrap(regionerr.KindBridgeLoadFailure, libPath, err, "binding entry points")
	}

	l.callMu.Lock()
	ep.InitRuntime()
	l.callMu.Unlock()

	l.root, l.libPath, l.lib, l.ep = root, libPath, lib, ep
	l.state = StateInitialized
	logger.Info("Foreign runtime initialized.", "root", root, "library", libPath)
	return nil
}

func (l *Loader) entryPoints() (EntryPoints, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	if l.state != StateInitialized {
		return nil, ErrNotInitialized
	}
	return l.ep, nil
}

// CreateSpec asks the runtime for the spec of a qualified type. A nil spec
// with a nil error means the runtime does not know the type.
func (l *Loader) CreateSpec(ctx context.Context, qualified string) (*spec.Spec, error) {
	ep, err := l.entryPoints()
	if err != nil {
		return nil, err
	}
	l.callMu.Lock()
	defer l.callMu.Unlock()
	return ep.CreateSpec(qualified)
}

// DestroySpec releases a spec the runtime created. It returns the runtime's
// status code, or -1 when the runtime is not initialized.
func (l *Loader) DestroySpec(ctx context.Context, qualified string) int {
	ep, err := l.entryPoints()
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Cannot destroy foreign spec.", "type", qualified, "error", err)
		return -1
	}
	l.callMu.Lock()
	defer l.callMu.Unlock()
	return ep.DestroySpec(qualified)
}

// CreateInstance asks the runtime to construct an implementation.
func (l *Loader) CreateInstance(ctx context.Context, qualified string, p params.Map, owner region.Owner) (region.Impl, error) {
	ep, err := l.entryPoints()
	if err != nil {
		return nil, err
	}
	l.callMu.Lock()
	defer l.callMu.Unlock()
	return ep.CreateInstance(qualified, p, owner)
}

// DeserializeInstance asks the runtime to restore an implementation.
func (l *Loader) DeserializeInstance(ctx context.Context, qualified string, b *state.Bundle, owner region.Owner) (region.Impl, error) {
	ep, err := l.entryPoints()
	if err != nil {
		return nil, err
	}
	l.callMu.Lock()
	defer l.callMu.Unlock()
	return ep.DeserializeInstance(qualified, b, owner)
}

// finalize shuts the runtime down if it was initialized. The library stays
// mapped.
func (l *Loader) finalize() bool {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	if l.state != StateInitialized {
		return false
	}
	l.callMu.Lock()
	l.ep.FinalizeRuntime()
	l.callMu.Unlock()
	l.state = StateFinalized
	return true
}
