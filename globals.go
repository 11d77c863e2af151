package webvlog

import (
	"fmt"
	"sync"
)

// The package-level functions are thin wrappers over one process-lifetime
// Logger behind a synchronized accessor, preserving the "just call Emit
// anywhere" ergonomics without hidden coupling.
var (
	globalMu sync.Mutex
	global   *Logger
)

// Default returns the process-wide vlogger, or nil before initialization.
func Default() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

// Init initializes the vlogger with the default configuration: an
// OS-assigned port and the target whitelist loaded from the WEB_VLOG
// environment variable (unset means all targets are allowed). It returns the
// port at which the viewer is made available.
//
// Init panics if the vlogger has already been initialized or the server
// could not be started; both indicate setup bugs. For a non-panicking
// variant see InitPort or the Builder.
func Init() uint16 {
	port, err := NewBuilder().TargetsFromEnv().Init()
	if err != nil {
		panic(fmt.Sprintf("webvlog: %v", err))
	}
	return port
}

// InitPort initializes the vlogger on a custom port with otherwise default
// configuration. Port 0 asks the OS for a free port, returned by this
// function. Messages are not filtered; the WEB_VLOG environment variable is
// not consulted.
func InitPort(port uint16) (uint16, error) {
	return NewBuilder().Port(port).Init()
}

// WaitForConnection blocks the calling goroutine until a browser connects to
// the vlogging server. It fails with ErrNotInitialized when no vlogger has
// been initialized, rather than blocking forever on a caller bug.
func WaitForConnection() error {
	l := Default()
	if l == nil {
		return ErrNotInitialized
	}
	return l.WaitForConnection()
}

// Enabled reports whether messages with the given target would be forwarded.
// Before initialization it reports false.
func Enabled(target string) bool {
	l := Default()
	return l != nil && l.Enabled(target)
}

// Emit sends one message through the process-wide vlogger. Before
// initialization, without a connected viewer, or with a filtered target the
// call is a silent no-op.
func Emit(target, surface, content string) {
	if l := Default(); l != nil {
		l.emit(target, surface, content, 2)
	}
}

// Clear wipes a surface in the viewer. No-op before initialization.
func Clear(surface string) {
	if l := Default(); l != nil {
		l.Clear(surface)
	}
}

// Shutdown stops the process-wide vlogger, if any. Safe to call from any
// goroutine and at any time; it never errors.
func Shutdown() {
	if l := Default(); l != nil {
		l.Shutdown()
	}
}
