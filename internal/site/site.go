// Package site carries the bootstrap page served to the browser exactly once
// before the connection switches to the websocket protocol. The page's script
// is the other half of the wire contract: it must decode exactly the records
// the emit path produces.
package site

import _ "embed"

//go:embed site.html
var page []byte

// Page returns the bootstrap HTML payload.
func Page() []byte {
	return page
}
