// Package server owns the vlog transport: the listening socket, the
// bootstrap-then-upgrade exchange with the browser, and the single live
// websocket connection messages are framed onto.
//
// The package implements:
//   - Server: process-wide connection registry with Listening/Connected state
//   - the accept loop serving the bootstrap page and the upgrade handshake
//   - Send: the serialized, per-frame-atomic write path
//   - WaitForConnection: condition-variable blocking until a viewer attaches
//
// Exactly one viewer is supported. A second inbound connection while a viewer
// is attached is closed immediately. When the viewer disconnects, the
// transport reverts to listening so a browser reload can reattach.
package server
