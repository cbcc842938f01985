package web

import (
	"strconv"

	"github.com/sweeney/weather-station/internal/errors"
)

// Kind tags the shape of a response body.
type Kind int

const (
	KindHTML Kind = iota
	KindJSON
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindJSON:
		return "json"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

func (k Kind) contentType() string {
	switch k {
	case KindHTML:
		return "text/html"
	case KindJSON:
		return "application/json"
	default:
		return ""
	}
}

// Response is what a handler returns. Every response is a 200.
type Response struct {
	Kind Kind
	Body []byte
}

// HTML wraps a page body.
func HTML(body []byte) Response {
	return Response{Kind: KindHTML, Body: body}
}

// JSON wraps a JSON document.
func JSON(body []byte) Response {
	return Response{Kind: KindJSON, Body: body}
}

// Empty is a 200 with no body and no content type.
func Empty() Response {
	return Response{Kind: KindEmpty}
}

// Render serialises resp to wire bytes. Content-Length is the exact byte
// length of the body. A body larger than maxBody is refused with an
// ErrOversized error; maxBody <= 0 disables the check.
func Render(resp Response, maxBody int) ([]byte, error) {
	body := resp.Body
	if resp.Kind == KindEmpty {
		body = nil
	}
	if maxBody > 0 && len(body) > maxBody {
		return nil, errors.Newf(errors.ErrOversized, "%s body of %d bytes exceeds %d", resp.Kind, len(body), maxBody)
	}

	out := make([]byte, 0, 128+len(body))
	out = append(out, "HTTP/1.1 200 OK\r\n"...)
	if ct := resp.Kind.contentType(); ct != "" {
		out = append(out, "Content-Type: "...)
		out = append(out, ct...)
		out = append(out, "\r\n"...)
	}
	out = append(out, "Content-Length: "...)
	out = strconv.AppendInt(out, int64(len(body)), 10)
	out = append(out, "\r\nConnection: close\r\n\r\n"...)
	out = append(out, body...)
	return out, nil
}
