// Package webvlog implements a debug-time visual logger that offloads
// rendering to a web browser. The bootstrap page is served exactly once
// before the connection switches to a websocket, which handles the
// potentially high message rates.
//
// Nothing is encrypted. This is a debug utility and should not be shipped in
// production code.
//
// Typical usage:
//
//	port := webvlog.Init()
//	fmt.Printf("vlog viewer at http://localhost:%d/\n", port)
//	webvlog.WaitForConnection()
//	webvlog.Emit("custom_target_2::submodule", "surface", "Third message")
//
// Without environment variables all targets are logged. Setting WEB_VLOG to a
// comma-separated list of prefixes restricts logging to targets starting with
// one of them: WEB_VLOG=custom_target_2 allows "custom_target_2" and
// "custom_target_2::submodule" but not "custom_target_1". Target rules can
// instead be chosen in the program through the Builder, which replaces the
// environment-derived rules entirely.
package webvlog

import (
	"log/slog"
	"runtime"

	json "github.com/goccy/go-json"

	"github.com/redweasel/web-vlog/internal/filter"
	"github.com/redweasel/web-vlog/internal/server"
)

// Logger is an initialized vlogger: the target rule set plus the transport it
// was initialized with. Both are immutable for the process lifetime; Logger
// is safe for concurrent use. Construct one through the Builder.
type Logger struct {
	log     *slog.Logger
	targets *filter.Set
	srv     *server.Server
}

// meta carries the source location of a message so the viewer can render
// editor deep-links.
type meta struct {
	Target string `json:"target"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// record is the wire format consumed by the bootstrap page's script.
type record struct {
	Surface string `json:"surf"`
	Message string `json:"msg,omitempty"`
	Clear   int    `json:"clear,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

// Port returns the port the viewer server is bound to.
func (l *Logger) Port() uint16 {
	return l.srv.Port()
}

// Enabled reports whether messages with the given target pass the rule set.
// External collaborators can use this to skip expensive content construction.
func (l *Logger) Enabled(target string) bool {
	return l.targets.Enabled(target)
}

// WaitForConnection blocks until a browser completes the bootstrap-then-
// upgrade sequence. It returns an error only if the vlogger is shut down
// before a viewer attaches.
func (l *Logger) WaitForConnection() error {
	return l.srv.WaitForConnection()
}

// Emit sends one message for the given target onto the named surface. It is
// fire-and-forget: without a connected viewer, with a filtered target, or on
// any transport failure the call is a no-op. Vlogging must never crash or
// block the host application because no viewer is attached.
func (l *Logger) Emit(target, surface, content string) {
	l.emit(target, surface, content, 2)
}

// Clear tells the viewer to wipe a surface.
func (l *Logger) Clear(surface string) {
	l.send(record{Surface: surface, Clear: 1})
}

// Shutdown closes the viewer connection and the listening socket. Best
// effort, idempotent, safe from any goroutine.
func (l *Logger) Shutdown() {
	l.srv.Shutdown()
}

// emit is the shared path behind Logger.Emit and the package-level Emit.
// callDepth addresses the frame whose file/line should appear in the viewer.
func (l *Logger) emit(target, surface, content string, callDepth int) {
	if !l.targets.Enabled(target) {
		return
	}
	rec := record{
		Surface: surface,
		Message: content,
		Meta:    &meta{Target: target},
	}
	if _, file, line, ok := runtime.Caller(callDepth); ok {
		rec.Meta.File = file
		rec.Meta.Line = line
	}
	l.send(rec)
}

func (l *Logger) send(rec record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		l.log.Warn("drop unencodable vlog record", "surface", rec.Surface, "err", err)
		return
	}
	l.srv.Send(payload)
}
