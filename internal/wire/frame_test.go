package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestAppendTextFrameLengthBoundaries(t *testing.T) {
	cases := []struct {
		payloadLen int
		headerLen  int
	}{
		{0, 2},
		{1, 2},
		{125, 2},
		{126, 4},
		{65535, 4},
		{65536, 10},
	}
	for _, tc := range cases {
		payload := bytes.Repeat([]byte{'x'}, tc.payloadLen)
		frame := AppendTextFrame(nil, payload)

		if len(frame) != tc.headerLen+tc.payloadLen {
			t.Errorf("payload %d: frame length %d, want header %d + payload",
				tc.payloadLen, len(frame), tc.headerLen)
			continue
		}
		if frame[0] != 0x81 {
			t.Errorf("payload %d: first byte %#x, want FIN|text (0x81)", tc.payloadLen, frame[0])
		}
		if frame[1]&0x80 != 0 {
			t.Errorf("payload %d: server frames must be unmasked", tc.payloadLen)
		}

		switch tc.headerLen {
		case 2:
			if int(frame[1]) != tc.payloadLen {
				t.Errorf("payload %d: 7-bit length %d", tc.payloadLen, frame[1])
			}
		case 4:
			if frame[1] != 126 || int(binary.BigEndian.Uint16(frame[2:4])) != tc.payloadLen {
				t.Errorf("payload %d: bad 16-bit length encoding", tc.payloadLen)
			}
		case 10:
			if frame[1] != 127 || binary.BigEndian.Uint64(frame[2:10]) != uint64(tc.payloadLen) {
				t.Errorf("payload %d: bad 64-bit length encoding", tc.payloadLen)
			}
		}
		if !bytes.HasSuffix(frame, payload) {
			t.Errorf("payload %d: frame must end with the payload", tc.payloadLen)
		}
	}
}

func TestAppendTextFrameAppendsToDst(t *testing.T) {
	first := AppendTextFrame(nil, []byte("one"))
	both := AppendTextFrame(first, []byte("two"))
	if !bytes.Equal(both[:len(first)], first) {
		t.Error("AppendTextFrame must leave existing dst bytes untouched")
	}
	if !bytes.Equal(both[len(first):], AppendTextFrame(nil, []byte("two"))) {
		t.Error("second frame must follow the first")
	}
}

func TestAppendTextFramePayloadIntact(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("frames carry the payload verbatim after the header", prop.ForAll(
		func(payload []byte) bool {
			frame := AppendTextFrame(nil, payload)
			headerLen := 2
			if len(payload) > 0xFFFF {
				headerLen = 10
			} else if len(payload) >= 126 {
				headerLen = 4
			}
			return len(frame) == headerLen+len(payload) &&
				bytes.Equal(frame[headerLen:], payload)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

// maskedClientFrame builds a masked client-to-server frame the way a browser
// would, for feeding NextOpcode.
func maskedClientFrame(opcode byte, payload []byte) []byte {
	frame := []byte{0x80 | opcode, 0x80 | byte(len(payload))}
	mask := [4]byte{0x12, 0x34, 0x56, 0x78}
	frame = append(frame, mask[:]...)
	for i, b := range payload {
		frame = append(frame, b^mask[i%4])
	}
	return frame
}

func TestNextOpcode(t *testing.T) {
	stream := maskedClientFrame(OpcodePing, []byte("ping payload"))
	stream = append(stream, maskedClientFrame(OpcodeClose, []byte{0x03, 0xE8})...)

	br := bufio.NewReader(bytes.NewReader(stream))

	opcode, err := NextOpcode(br)
	if err != nil || opcode != OpcodePing {
		t.Fatalf("first frame: opcode %#x, err %v; want ping", opcode, err)
	}
	opcode, err = NextOpcode(br)
	if err != nil || opcode != OpcodeClose {
		t.Fatalf("second frame: opcode %#x, err %v; want close", opcode, err)
	}
	if _, err = NextOpcode(br); err == nil {
		t.Fatal("exhausted stream must report an error")
	}
}

func TestNextOpcodeRejectsOversizedClientFrames(t *testing.T) {
	// 16-bit length far beyond what the viewer would ever send.
	frame := []byte{0x81, 126, 0xFF, 0xFF}
	_, err := NextOpcode(bufio.NewReader(bytes.NewReader(frame)))
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("NextOpcode = %v, want ErrInvalidFrame", err)
	}
}

func TestCloseFrame(t *testing.T) {
	frame := CloseFrame()
	if frame[0] != 0x88 || frame[1] != 0 {
		t.Errorf("close frame = %#v, want FIN|close with empty payload", frame)
	}
}
