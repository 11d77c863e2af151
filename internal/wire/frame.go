package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame opcodes as defined in RFC 6455 Section 5.2. Only the ones the server
// side of the vlog protocol touches are named.
const (
	OpcodeText  byte = 0x1
	OpcodeClose byte = 0x8
	OpcodePing  byte = 0x9
	OpcodePong  byte = 0xA
)

// ErrInvalidFrame is returned when an inbound client frame is malformed.
var ErrInvalidFrame = errors.New("invalid frame")

// Client frames may not carry more payload than this; the viewer only ever
// sends control frames, so anything large is a protocol violation.
const maxClientPayload = 4096

// AppendTextFrame appends one final unmasked text frame carrying payload to
// dst and returns the extended slice. Server-to-client frames are unmasked
// per RFC 6455. Producing the whole frame as one slice lets the caller issue
// a single Write, which keeps frames atomic on the shared stream.
func AppendTextFrame(dst, payload []byte) []byte {
	dst = append(dst, 0x80|OpcodeText)
	switch n := len(payload); {
	case n < 126:
		dst = append(dst, byte(n))
	case n <= 0xFFFF:
		dst = append(dst, 126)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, 127)
		dst = binary.BigEndian.AppendUint64(dst, uint64(n))
	}
	return append(dst, payload...)
}

// CloseFrame returns a final close frame with an empty status, sent before
// the server drops a connection it no longer wants.
func CloseFrame() []byte {
	return []byte{0x80 | OpcodeClose, 0}
}

// NextOpcode reads one complete client frame from br, discards its payload
// and returns the opcode. The vlog server never acts on client data; it only
// watches for the close frame (and end-of-stream) to drop the connection.
func NextOpcode(br *bufio.Reader) (byte, error) {
	var head [2]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return 0, err
	}
	opcode := head[0] & 0x0F

	length := int64(head[1] & 0x7F)
	switch length {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(br, ext[:]); err != nil {
			return 0, err
		}
		length = int64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(br, ext[:]); err != nil {
			return 0, err
		}
		length = int64(binary.BigEndian.Uint64(ext[:]))
	}
	if length < 0 || length > maxClientPayload {
		return 0, fmt.Errorf("%w: client payload of %d bytes", ErrInvalidFrame, length)
	}

	// Client-to-server frames are masked per RFC 6455.
	masked := head[1]&0x80 != 0
	if masked {
		length += 4
	}
	if _, err := io.CopyN(io.Discard, br, length); err != nil {
		return 0, err
	}
	return opcode, nil
}
