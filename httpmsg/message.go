package httpmsg

import "fmt"

// protocolVersions is the set accepted by WithProtocolVersion.
var protocolVersions = map[string]bool{
	"1.0": true,
	"1.1": true,
	"2.0": true,
	"2":   true,
}

// message is the envelope shared by Request, ServerRequest and Response:
// a protocol version, an ordered header collection and a body stream.
// It is embedded by the exported types; the with* helpers return modified
// copies so the embedding types stay copy-on-write.
type message struct {
	proto  string
	header Header
	body   *Stream
}

func newMessage() message {
	return message{proto: "1.1", body: NewStringStream("")}
}

// ProtocolVersion returns the HTTP protocol version, e.g. "1.1".
func (m message) ProtocolVersion() string { return m.proto }

// Headers returns the header collection. The returned value shares no
// mutable state with the message.
func (m message) Headers() Header { return m.header.clone() }

// HasHeader reports whether the named header exists, case-insensitively.
func (m message) HasHeader(name string) bool { return m.header.Has(name) }

// HeaderValues returns all values for the named header, empty when absent.
func (m message) HeaderValues(name string) []string { return m.header.Values(name) }

// HeaderLine returns the named header's values joined with ", ".
func (m message) HeaderLine(name string) string { return m.header.Line(name) }

// Body returns the body stream. The stream reference is shared between a
// message and every copy derived from it.
func (m message) Body() *Stream { return m.body }

func (m message) withProtocolVersion(v string) (message, error) {
	if !protocolVersions[v] {
		return message{}, fmt.Errorf("%w: unsupported protocol version %q", ErrInvalidArgument, v)
	}
	m.proto = v
	return m, nil
}

func (m message) withHeader(name string, vals []string) (message, error) {
	if err := checkHeaderName(name); err != nil {
		return message{}, err
	}
	if err := checkHeaderValues(name, vals); err != nil {
		return message{}, err
	}
	h := m.header.clone()
	h.set(CanonicalHeaderName(name), append([]string(nil), vals...))
	m.header = h
	return m, nil
}

func (m message) withAddedHeader(name string, vals []string) (message, error) {
	if err := checkHeaderName(name); err != nil {
		return message{}, err
	}
	if err := checkHeaderValues(name, vals); err != nil {
		return message{}, err
	}
	h := m.header.clone()
	h.add(CanonicalHeaderName(name), append([]string(nil), vals...))
	m.header = h
	return m, nil
}

func (m message) withoutHeader(name string) message {
	h := m.header.clone()
	h.del(CanonicalHeaderName(name))
	m.header = h
	return m
}

func (m message) withBody(body *Stream) (message, error) {
	if body == nil {
		return message{}, fmt.Errorf("%w: nil body stream", ErrInvalidArgument)
	}
	m.body = body
	return m, nil
}
