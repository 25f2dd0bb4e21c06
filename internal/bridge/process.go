package bridge

import "sync"

var (
	processMu sync.Mutex
	process   *Loader
)

// Process returns the process-wide Loader, creating it with opts on first
// use. Later callers get the same Loader regardless of the options they pass.
func Process(opts Options) *Loader {
	processMu.Lock()
	defer processMu.Unlock()
	if process == nil {
		process = NewLoader(opts)
	}
	return process
}

// Exit finalizes the process-wide runtime if it was ever initialized. It
// reports whether finalization ran. Call it once, as the process exits.
func Exit() bool {
	processMu.Lock()
	l := process
	processMu.Unlock()
	if l == nil {
		return false
	}
	return l.finalize()
}
