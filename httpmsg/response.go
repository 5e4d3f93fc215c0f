package httpmsg

import (
	"fmt"
	"io"

	"dqx0.com/go/web/httpmsg/internal/wire"
)

// Response is an immutable HTTP response: a message plus status code and
// reason phrase. The zero reason phrase falls back to the standard phrase
// for the code.
type Response struct {
	message
	status int
	reason string
}

// NewResponse returns a 200 response with protocol version 1.1 and an empty
// in-memory body.
func NewResponse() *Response {
	return &Response{
		message: message{proto: "1.1", body: NewBufferStream()},
		status:  200,
	}
}

// StatusCode returns the 3-digit status code.
func (r *Response) StatusCode() int { return r.status }

// ReasonPhrase returns the explicit phrase when one was set, else the
// standard phrase for the status code, else "".
func (r *Response) ReasonPhrase() string {
	if r.reason != "" {
		return r.reason
	}
	return StatusText(r.status)
}

// WithStatus returns a copy with the given status code and optional explicit
// reason phrase. Any 3-digit code from 100 to 599 is accepted; codes outside
// the registry simply have no default phrase.
func (r *Response) WithStatus(code int, reason ...string) (*Response, error) {
	if code < 100 || code > 599 {
		return nil, fmt.Errorf("%w: status code %d outside 100-599", ErrInvalidArgument, code)
	}
	r2 := *r
	r2.status = code
	r2.reason = ""
	if len(reason) > 0 {
		r2.reason = reason[0]
	}
	return &r2, nil
}

// WithProtocolVersion returns a copy using the given protocol version.
func (r *Response) WithProtocolVersion(v string) (*Response, error) {
	m, err := r.message.withProtocolVersion(v)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// WithHeader returns a copy in which the named header holds exactly values.
func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	m, err := r.message.withHeader(name, values)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// WithAddedHeader returns a copy with values appended to the named header,
// creating it when absent.
func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	m, err := r.message.withAddedHeader(name, values)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// WithoutHeader returns a copy without the named header.
func (r *Response) WithoutHeader(name string) *Response {
	r2 := *r
	r2.message = r.message.withoutHeader(name)
	return &r2
}

// WithBody returns a copy using the given body stream.
func (r *Response) WithBody(body *Stream) (*Response, error) {
	m, err := r.message.withBody(body)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// Emit writes the response to w: status line, then every header except
// Cookie, then the body streamed from its start. A seekable body is rewound
// first, so emitting twice resends identical content.
func (r *Response) Emit(w io.Writer) error {
	proto := "HTTP/" + r.proto
	if err := wire.WriteStatusLine(w, proto, r.status, r.ReasonPhrase()); err != nil {
		return err
	}
	fields := make([]wire.Field, 0, r.header.Len())
	for _, name := range r.header.Names() {
		if name == "Cookie" {
			continue
		}
		fields = append(fields, wire.Field{Name: name, Values: r.header.Values(name)})
	}
	if err := wire.WriteFields(w, fields); err != nil {
		return err
	}
	if err := wire.EndHeaders(w); err != nil {
		return err
	}
	body := r.body
	if body == nil || !body.Readable() {
		return nil
	}
	if body.Seekable() {
		if err := body.Rewind(); err != nil {
			return err
		}
	}
	_, err := io.Copy(w, body)
	return err
}
