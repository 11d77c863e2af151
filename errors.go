package webvlog

import "errors"

// Setup errors. These surface integration mistakes loudly; steady-state
// emission never returns errors at all.
var (
	// ErrNotInitialized is returned when WaitForConnection is called before
	// any initialization.
	ErrNotInitialized = errors.New("vlogger not initialized")

	// ErrAlreadyInitialized is returned when the process-wide vlogger is
	// initialized twice. Double initialization is a setup bug.
	ErrAlreadyInitialized = errors.New("vlogger already initialized")
)
