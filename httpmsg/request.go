package httpmsg

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// allowedMethods is the full RFC 7231/5789 method set. Lookup is
// case-insensitive and the canonical upper-case spelling is stored.
var allowedMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
	"TRACE":   true,
	"CONNECT": true,
}

// Request is an immutable HTTP request: a message plus method, URI and an
// optional request-target override. Every With* method returns a new value;
// the body stream reference is shared between copies.
type Request struct {
	message
	method string
	uri    *Uri
	target string
}

// NewRequest builds a request for the given method and URI string. The
// protocol version defaults to 1.1 and the body to an empty stream. When the
// URI carries a host, a Host header is set from it.
func NewRequest(method, uri string) (*Request, error) {
	m, err := filterMethod(method)
	if err != nil {
		return nil, err
	}
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	r := &Request{message: newMessage(), method: m, uri: u}
	if u.Host() != "" {
		r.message, _ = r.message.withHeader("Host", []string{hostHeaderValue(u)})
	}
	return r, nil
}

// Method returns the HTTP method in its canonical upper-case form.
func (r *Request) Method() string { return r.method }

// Uri returns the request URI.
func (r *Request) Uri() *Uri { return r.uri }

// RequestTarget returns the explicit override when one was set, else
// "path[?query]" derived from the URI, defaulting to "/".
func (r *Request) RequestTarget() string {
	if r.target != "" {
		return r.target
	}
	if r.uri == nil {
		return "/"
	}
	t := r.uri.Path()
	if t == "" {
		t = "/"
	}
	if q := r.uri.Query(); q != "" {
		t += "?" + q
	}
	return t
}

// WithMethod returns a copy with the given method, validated
// case-insensitively against the standard method set and stored upper-cased.
func (r *Request) WithMethod(method string) (*Request, error) {
	m, err := filterMethod(method)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.method = m
	return &r2, nil
}

// WithRequestTarget returns a copy with an explicit request-target override.
// The target must not contain whitespace; "" clears the override.
func (r *Request) WithRequestTarget(target string) (*Request, error) {
	if strings.IndexFunc(target, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("%w: request target %q contains whitespace", ErrInvalidArgument, target)
	}
	r2 := *r
	r2.target = target
	return &r2, nil
}

// WithUri returns a copy using the given URI. The Host header is updated to
// the new URI's "host[:port]" unless preserveHost is true and a Host header
// already exists, or the new URI has no host.
func (r *Request) WithUri(u *Uri, preserveHost bool) (*Request, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil uri", ErrInvalidArgument)
	}
	r2 := *r
	r2.uri = u
	if u.Host() != "" && !(preserveHost && r2.HasHeader("Host")) {
		m, err := r2.message.withHeader("Host", []string{hostHeaderValue(u)})
		if err != nil {
			return nil, err
		}
		r2.message = m
	}
	return &r2, nil
}

// WithProtocolVersion returns a copy using the given protocol version.
func (r *Request) WithProtocolVersion(v string) (*Request, error) {
	m, err := r.message.withProtocolVersion(v)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// WithHeader returns a copy in which the named header holds exactly values.
func (r *Request) WithHeader(name string, values ...string) (*Request, error) {
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
func (r *Request) WithAddedHeader(name string, values ...string) (*Request, error) {
	m, err := r.message.withAddedHeader(name, values)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

// WithoutHeader returns a copy without the named header; a no-op copy when
// the header is absent.
func (r *Request) WithoutHeader(name string) *Request {
	r2 := *r
	r2.message = r.message.withoutHeader(name)
	return &r2
}

// WithBody returns a copy using the given body stream.
func (r *Request) WithBody(body *Stream) (*Request, error) {
	m, err := r.message.withBody(body)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.message = m
	return &r2, nil
}

func filterMethod(method string) (string, error) {
	m := strings.ToUpper(method)
	if !allowedMethods[m] {
		return "", fmt.Errorf("%w: unsupported method %q", ErrInvalidArgument, method)
	}
	return m, nil
}

func hostHeaderValue(u *Uri) string {
	v := u.Host()
	if p := u.Port(); p != 0 {
		v += ":" + strconv.Itoa(p)
	}
	return v
}
