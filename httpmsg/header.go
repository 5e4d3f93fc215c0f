package httpmsg

import (
	"fmt"
	"strings"
)

// Header is an ordered, case-insensitive multi-value header collection.
// Names are stored in canonical form (see CanonicalHeaderName) and keep
// their insertion order. The zero value is ready to use for reads.
type Header struct {
	names  []string
	values map[string][]string
}

// CanonicalHeaderName returns the canonical "Header-Case" form of name:
// underscores become hyphens and the first letter of every hyphen-separated
// word is upper-cased, the rest lower-cased. For example "x_forwarded_for"
// and "X-FORWARDED-FOR" both canonicalize to "X-Forwarded-For".
func CanonicalHeaderName(name string) string {
	b := []byte(strings.ToLower(name))
	upper := true
	for i, c := range b {
		if c == '_' {
			b[i] = '-'
			upper = true
			continue
		}
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}

// Has reports whether a header with the given name is present, using
// case-insensitive canonical lookup.
func (h Header) Has(name string) bool {
	_, ok := h.values[CanonicalHeaderName(name)]
	return ok
}

// Values returns a copy of the value list for name, or an empty slice when
// the header is absent.
func (h Header) Values(name string) []string {
	vv, ok := h.values[CanonicalHeaderName(name)]
	if !ok {
		return []string{}
	}
	out := make([]string, len(vv))
	copy(out, vv)
	return out
}

// Line returns all values for name joined with ", ", or "" when absent.
func (h Header) Line(name string) string {
	return strings.Join(h.values[CanonicalHeaderName(name)], ", ")
}

// Names returns the canonical header names in insertion order.
func (h Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of distinct header names.
func (h Header) Len() int { return len(h.names) }

func (h Header) clone() Header {
	c := Header{
		names:  make([]string, len(h.names)),
		values: make(map[string][]string, len(h.values)),
	}
	copy(c.names, h.names)
	for k, vv := range h.values {
		cp := make([]string, len(vv))
		copy(cp, vv)
		c.values[k] = cp
	}
	return c
}

// set replaces the value list for an already-canonical name.
func (h *Header) set(canon string, vals []string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[canon]; !ok {
		h.names = append(h.names, canon)
	}
	h.values[canon] = vals
}

// add appends to the value list for an already-canonical name.
func (h *Header) add(canon string, vals []string) {
	if h.values == nil {
		h.values = make(map[string][]string)
	}
	if _, ok := h.values[canon]; !ok {
		h.names = append(h.names, canon)
	}
	h.values[canon] = append(h.values[canon], vals...)
}

func (h *Header) del(canon string) {
	if _, ok := h.values[canon]; !ok {
		return
	}
	delete(h.values, canon)
	for i, n := range h.names {
		if n == canon {
			h.names = append(h.names[:i], h.names[i+1:]...)
			break
		}
	}
}

func checkHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty header name", ErrInvalidArgument)
	}
	for i := 0; i < len(name); i++ {
		if !isTokenByte(name[i]) {
			return fmt.Errorf("%w: header name %q contains %q", ErrInvalidArgument, name, name[i])
		}
	}
	return nil
}

func checkHeaderValues(name string, vals []string) error {
	if len(vals) == 0 {
		return fmt.Errorf("%w: header %q needs at least one value", ErrInvalidArgument, name)
	}
	for _, v := range vals {
		if strings.ContainsAny(v, "\r\n\x00") {
			return fmt.Errorf("%w: header %q value contains a control byte", ErrInvalidArgument, name)
		}
	}
	return nil
}

// isTokenByte reports whether c is an RFC 7230 token byte. Underscores are
// accepted because environment-derived names use them before normalization.
func isTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
