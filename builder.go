package webvlog

import (
	"github.com/redweasel/web-vlog/internal/filter"
	"github.com/redweasel/web-vlog/internal/logging"
	"github.com/redweasel/web-vlog/internal/server"
	"github.com/redweasel/web-vlog/internal/site"
)

// Builder assembles a vlogger configuration before initialization. The zero
// configuration binds an OS-assigned port and allows all targets.
//
// The rule set comes from exactly one source: AddTarget calls make the
// builder the source and the WEB_VLOG environment variable is ignored;
// otherwise TargetsFromEnv opts in to the environment. There is no merging.
type Builder struct {
	port    uint16
	targets []string
	fromEnv bool
}

// NewBuilder returns a Builder with the default port 0, meaning the OS will
// choose the port.
func NewBuilder() *Builder {
	return &Builder{}
}

// Port sets the port on which the viewer server is made available. Port 0
// lets the OS choose a free one.
func (b *Builder) Port(port uint16) *Builder {
	b.port = port
	return b
}

// AddTarget adds a prefix to the target whitelist. If the whitelist is left
// empty, all targets are allowed.
func (b *Builder) AddTarget(prefix string) *Builder {
	b.targets = append(b.targets, prefix)
	return b
}

// TargetsFromEnv reads the whitelist from the WEB_VLOG environment variable.
// It has no effect when AddTarget was used.
func (b *Builder) TargetsFromEnv() *Builder {
	b.fromEnv = true
	return b
}

// Init starts the vlogger and installs it as the process-wide instance used
// by the package-level functions. It returns the actual port the server runs
// on, which is only interesting when the port was left at 0.
//
// Init fails with ErrAlreadyInitialized when a vlogger is already installed,
// and with a transport error when the server could not be bound.
func (b *Builder) Init() (uint16, error) {
	rules := b.rules()

	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return 0, ErrAlreadyInitialized
	}

	log := logging.New()
	srv, err := server.New(server.Config{Port: b.port, Page: site.Page()}, log)
	if err != nil {
		return 0, err
	}

	global = &Logger{log: log, targets: rules, srv: srv}
	return srv.Port(), nil
}

func (b *Builder) rules() *filter.Set {
	switch {
	case len(b.targets) > 0:
		return filter.New(b.targets)
	case b.fromEnv:
		return filter.FromEnv()
	default:
		return filter.New(nil)
	}
}
