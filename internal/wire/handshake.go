// Package wire implements the subset of RFC 6455 the vlog viewer needs: a
// minimal HTTP/1.1 request parser, the upgrade handshake, and unmasked
// server-to-client text frames. Nothing here is encrypted; this is a debug
// utility that must not ship in production code.
package wire

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// WebSocket GUID as defined in RFC 6455 Section 1.3.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Handshake errors.
var (
	// ErrMalformedRequest is returned when a request cannot be parsed or is
	// missing the headers required for the websocket upgrade.
	ErrMalformedRequest = errors.New("malformed upgrade request")
)

const maxHeaderLines = 128

// Request is a parsed HTTP/1.1 request. Only the request line and the small
// set of headers relevant to the bootstrap/upgrade exchange are retained.
type Request struct {
	Method string
	Path   string
	Proto  string

	header map[string]string
}

// Header returns the value of the named header, matched case-insensitively.
func (r *Request) Header(name string) string {
	return r.header[strings.ToLower(name)]
}

// IsUpgrade reports whether the request asks for a websocket upgrade.
func (r *Request) IsUpgrade() bool {
	return strings.EqualFold(r.Header("Upgrade"), "websocket") &&
		r.Header("Sec-WebSocket-Key") != ""
}

// ParseRequest reads one HTTP/1.1 request head (request line plus headers,
// terminated by an empty line) from br. The body, if any, is not consumed;
// the bootstrap exchange only ever uses bodyless GET requests.
func ParseRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}
	path, proto, ok := strings.Cut(rest, " ")
	if !ok {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}

	req := &Request{
		Method: method,
		Path:   path,
		Proto:  proto,
		header: make(map[string]string),
	}
	for i := 0; ; i++ {
		if i >= maxHeaderLines {
			return nil, fmt.Errorf("%w: too many header lines", ErrMalformedRequest)
		}
		line, err := readLine(br)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: bad header line %q", ErrMalformedRequest, line)
		}
		req.header[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return req, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AcceptKey computes the Sec-WebSocket-Accept token for a client key per
// RFC 6455 Section 4.2.2. The result must match byte-for-byte what browsers
// expect; there is no negotiation or retry if it is wrong.
func AcceptKey(key string) string {
	digest := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// Upgrade validates a parsed request as a websocket upgrade and returns the
// 101 Switching Protocols response to write back. It fails with
// ErrMalformedRequest if the request is not a well-formed GET upgrade.
func Upgrade(req *Request) ([]byte, error) {
	if req.Method != "GET" || req.Proto != "HTTP/1.1" {
		return nil, fmt.Errorf("%w: %s %s", ErrMalformedRequest, req.Method, req.Proto)
	}
	if !strings.EqualFold(req.Header("Upgrade"), "websocket") {
		return nil, fmt.Errorf("%w: missing Upgrade: websocket", ErrMalformedRequest)
	}
	if !strings.Contains(strings.ToLower(req.Header("Connection")), "upgrade") {
		return nil, fmt.Errorf("%w: missing Connection: Upgrade", ErrMalformedRequest)
	}
	key := req.Header("Sec-WebSocket-Key")
	if key == "" {
		return nil, fmt.Errorf("%w: missing Sec-WebSocket-Key", ErrMalformedRequest)
	}

	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n")
	sb.WriteString("\r\n")
	return []byte(sb.String()), nil
}

// BootstrapResponse builds the 200 response carrying the bootstrap page. The
// Content-Length header keeps the connection usable for a follow-up request.
func BootstrapResponse(body []byte) []byte {
	head := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n"
	return append([]byte(head), body...)
}

// NotFoundResponse builds the 404 response for unknown paths.
func NotFoundResponse() []byte {
	body := "<html><body>Path not found</body></html>"
	return []byte("HTTP/1.1 404 NOT FOUND\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" + body)
}

// BadRequestResponse builds the 400 response for non-GET or non-HTTP/1.1
// requests.
func BadRequestResponse() []byte {
	return []byte("HTTP/1.1 400 BAD REQUEST\r\nContent-Length: 0\r\n\r\n")
}
