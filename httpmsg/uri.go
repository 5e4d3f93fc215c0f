package httpmsg

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Uri is an immutable URI split into validated components. Path, query and
// fragment are stored percent-encoded; encoding is idempotent, so values that
// already carry valid %XX triples pass through unchanged. Only the http and
// https schemes (or none, for relative references) are supported.
type Uri struct {
	scheme   string
	userInfo string
	host     string
	port     int
	path     string
	query    string
	fragment string
}

// ParseURI parses raw into a Uri. It wraps ErrInvalidArgument when raw is not
// a parseable URI or uses an unsupported scheme.
func ParseURI(raw string) (*Uri, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse %q as a URI: %v", ErrInvalidArgument, raw, err)
	}
	scheme, err := filterScheme(u.Scheme)
	if err != nil {
		return nil, err
	}
	host, err := filterHost(u.Hostname())
	if err != nil {
		return nil, err
	}
	port := 0
	if p := u.Port(); p != "" {
		port, err = filterPort(p)
		if err != nil {
			return nil, err
		}
	}
	uri := &Uri{
		scheme:   scheme,
		host:     host,
		port:     port,
		path:     encodePath(u.EscapedPath()),
		query:    encodeQuery(u.RawQuery),
		fragment: encodeQuery(u.EscapedFragment()),
	}
	if u.User != nil {
		uri.userInfo = u.User.String()
	}
	return uri, nil
}

// Scheme returns the scheme, "" for a relative reference.
func (u *Uri) Scheme() string { return u.scheme }

// UserInfo returns "user[:password]", or "".
func (u *Uri) UserInfo() string { return u.userInfo }

// Host returns the lower-cased host, or "".
func (u *Uri) Host() string { return u.host }

// Port returns the explicit port, or 0 when no port is set or the port is
// the default for the scheme (80 for http, 443 for https).
func (u *Uri) Port() int {
	if u.port == 0 || u.port == defaultPort(u.scheme) {
		return 0
	}
	return u.port
}

// Path returns the percent-encoded path.
func (u *Uri) Path() string { return u.path }

// Query returns the percent-encoded query without a leading "?".
func (u *Uri) Query() string { return u.query }

// Fragment returns the percent-encoded fragment without a leading "#".
func (u *Uri) Fragment() string { return u.fragment }

// Authority returns "[userinfo@]host[:port]", with the port omitted when it
// is the scheme default. It returns "" when no host is set.
func (u *Uri) Authority() string {
	if u.host == "" {
		return ""
	}
	auth := u.host
	if u.userInfo != "" {
		auth = u.userInfo + "@" + auth
	}
	if p := u.Port(); p != 0 {
		auth += ":" + strconv.Itoa(p)
	}
	return auth
}

// WithScheme returns a copy with the given scheme. Accepted values are "",
// "http" and "https", case-insensitively, with an optional trailing ":" or
// "://".
func (u *Uri) WithScheme(scheme string) (*Uri, error) {
	s, err := filterScheme(scheme)
	if err != nil {
		return nil, err
	}
	u2 := *u
	u2.scheme = s
	return &u2, nil
}

// WithUserInfo returns a copy with user info set to "user[:password]".
// An empty user clears the component.
func (u *Uri) WithUserInfo(user, password string) *Uri {
	u2 := *u
	u2.userInfo = ""
	if user != "" {
		u2.userInfo = user
		if password != "" {
			u2.userInfo += ":" + password
		}
	}
	return &u2
}

// WithHost returns a copy with the given host. The host must be empty or
// consist of 1 to 253 bytes from [A-Za-z0-9.-]; it is stored lower-cased.
func (u *Uri) WithHost(host string) (*Uri, error) {
	h, err := filterHost(host)
	if err != nil {
		return nil, err
	}
	u2 := *u
	u2.host = h
	return &u2, nil
}

// WithPort returns a copy with the given port. Valid ports are 1 to 65535;
// 0 clears the port.
func (u *Uri) WithPort(port int) (*Uri, error) {
	if port != 0 && (port < 1 || port > 65535) {
		return nil, fmt.Errorf("%w: port %d outside 1-65535", ErrInvalidArgument, port)
	}
	u2 := *u
	u2.port = port
	return &u2, nil
}

// WithPath returns a copy with the given path. The path must not contain a
// literal "?" or "#". An absolute path keeps exactly one leading slash:
// "//a" is stored as "/a" to block path-confusion through duplicated slashes.
func (u *Uri) WithPath(path string) (*Uri, error) {
	if strings.ContainsAny(path, "?#") {
		return nil, fmt.Errorf("%w: path %q contains a query or fragment delimiter", ErrInvalidArgument, path)
	}
	if strings.HasPrefix(path, "//") {
		path = "/" + strings.TrimLeft(path, "/")
	}
	u2 := *u
	u2.path = encodePath(path)
	return &u2, nil
}

// WithQuery returns a copy with the given query string. A leading "?" is
// stripped; a literal "#" is rejected.
func (u *Uri) WithQuery(query string) (*Uri, error) {
	if strings.Contains(query, "#") {
		return nil, fmt.Errorf("%w: query %q contains a fragment delimiter", ErrInvalidArgument, query)
	}
	query = strings.TrimPrefix(query, "?")
	u2 := *u
	u2.query = encodeQuery(query)
	return &u2, nil
}

// WithFragment returns a copy with the given fragment, stripping a leading "#".
func (u *Uri) WithFragment(fragment string) *Uri {
	fragment = strings.TrimPrefix(fragment, "#")
	u2 := *u
	u2.fragment = encodeQuery(fragment)
	return &u2
}

// String serializes the Uri to its normalized form. Serializing, re-parsing
// and serializing again yields the same string.
func (u *Uri) String() string {
	var b strings.Builder
	auth := u.Authority()
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteString("://")
	} else if auth != "" {
		b.WriteString("//")
	}
	b.WriteString(auth)
	if u.path != "" {
		if !strings.HasPrefix(u.path, "/") {
			b.WriteByte('/')
		}
		b.WriteString(u.path)
	}
	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}
	return b.String()
}

func defaultPort(scheme string) int {
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

func filterScheme(scheme string) (string, error) {
	s := strings.ToLower(scheme)
	s = strings.TrimSuffix(s, "://")
	s = strings.TrimSuffix(s, ":")
	switch s {
	case "", "http", "https":
		return s, nil
	}
	return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidArgument, scheme)
}

func filterHost(host string) (string, error) {
	if host == "" {
		return "", nil
	}
	if len(host) > 253 {
		return "", fmt.Errorf("%w: host longer than 253 bytes", ErrInvalidArgument)
	}
	for i := 0; i < len(host); i++ {
		c := host[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
		default:
			return "", fmt.Errorf("%w: host %q contains %q", ErrInvalidArgument, host, c)
		}
	}
	return strings.ToLower(host), nil
}

func filterPort(port string) (int, error) {
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("%w: port %q is not numeric", ErrInvalidArgument, port)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("%w: port %d outside 1-65535", ErrInvalidArgument, n)
	}
	return n, nil
}

// encodePath percent-encodes every byte outside the path-safe set. Existing
// valid %XX triples are left untouched, so the encoding is idempotent.
func encodePath(s string) string { return percentEncode(s, isPathSafe) }

// encodeQuery is encodePath for query and fragment strings, which also
// allow "?".
func encodeQuery(s string) string { return percentEncode(s, isQuerySafe) }

func percentEncode(s string, safe func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHexByte(s[i+1]) && isHexByte(s[i+2]) {
			b.WriteString(s[i : i+3])
			i += 2
			continue
		}
		if safe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// isPathSafe reports whether c may appear raw in a path: RFC 3986 unreserved
// and sub-delim bytes plus ":", "@" and "/".
func isPathSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~',
		'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=',
		':', '@', '/':
		return true
	}
	return false
}

func isQuerySafe(c byte) bool { return isPathSafe(c) || c == '?' }

func isHexByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
