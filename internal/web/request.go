package web

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/sweeney/weather-station/internal/errors"
)

// Request is the parsed view of one raw request: the request line and,
// for POST, the body bytes that arrived within the receive buffer.
type Request struct {
	Method string
	Target string
	Body   []byte
}

var (
	crlf       = []byte("\r\n")
	headersEnd = []byte("\r\n\r\n")
)

// ParseRequest extracts the method, target and body from raw request bytes.
// It fails only when no request line can be found. A body shorter than the
// declared Content-Length (truncated by the receive buffer) is returned as is.
func ParseRequest(raw []byte) (Request, error) {
	line, rest, _ := bytes.Cut(raw, crlf)
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return Request{}, errors.Newf(errors.ErrMalformedRequest, "request line %q", truncate(line, 64))
	}

	req := Request{Method: fields[0], Target: fields[1]}

	header, body, found := bytes.Cut(rest, headersEnd)
	if !found {
		// Bare request line followed by a blank line.
		if bytes.HasPrefix(rest, crlf) {
			body = rest[len(crlf):]
			header = nil
		} else {
			return req, nil
		}
	}
	if n, ok := contentLength(header); ok && n < len(body) {
		body = body[:n]
	}
	req.Body = body
	return req, nil
}

// requestComplete reports whether buf holds the full header block and as many
// body bytes as Content-Length announces.
func requestComplete(buf []byte) bool {
	i := bytes.Index(buf, headersEnd)
	if i < 0 {
		return false
	}
	n, ok := contentLength(buf[:i])
	if !ok {
		return true
	}
	return len(buf)-(i+len(headersEnd)) >= n
}

// contentLength finds a Content-Length header in a header block.
// Header names are matched case-insensitively.
func contentLength(header []byte) (int, bool) {
	for _, line := range bytes.Split(header, crlf) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || !strings.EqualFold(string(bytes.TrimSpace(name)), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
