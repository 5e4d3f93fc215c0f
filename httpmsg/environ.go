package httpmsg

import (
	"sort"
	"strconv"
	"strings"
)

// CGI-style server parameter keys consulted during construction.
const (
	envRequestMethod  = "REQUEST_METHOD"
	envRequestURI     = "REQUEST_URI"
	envRequestScheme  = "REQUEST_SCHEME"
	envTLS            = "HTTPS"
	envServerName     = "SERVER_NAME"
	envServerPort     = "SERVER_PORT"
	envHTTPHost       = "HTTP_HOST"
	envAuthUser       = "AUTH_USER"
	envAuthPassword   = "AUTH_PASSWORD"
	envAuthorization  = "HTTP_AUTHORIZATION"
	envRedirectedAuth = "REDIRECT_HTTP_AUTHORIZATION"
)

// headerPrefix marks server parameters that carry inbound header values.
const headerPrefix = "HTTP_"

// headerAllowlist lists unprefixed server parameters that are still headers.
var headerAllowlist = map[string]bool{
	"CONTENT_TYPE":   true,
	"CONTENT_LENGTH": true,
	"CONTENT_MD5":    true,
}

// Environ is an immutable snapshot of the ambient server environment a
// ServerRequest is built from. Passing it explicitly (instead of reading
// process-wide state) keeps construction deterministic and testable.
//
// Server holds CGI-style parameters (REQUEST_METHOD, REQUEST_URI, HTTP_*,
// ...). Form is the decoded form-body snapshot, Query the decoded query
// parameters, Files the nested upload descriptor tree accepted by
// NormalizeUploadedFiles, Body the raw request body.
type Environ struct {
	Server  map[string]string
	Query   map[string]any
	Form    map[string]any
	Cookies map[string]string
	Files   map[string]any
	Body    *Stream
}

// environHeaders derives the header collection from server parameters:
// HTTP_-prefixed keys and the small Content-* allowlist become single-value
// headers under their canonical names; nothing else is exposed. Keys are
// walked in sorted order so the result is deterministic.
func environHeaders(server map[string]string) Header {
	keys := make([]string, 0, len(server))
	for k := range server {
		if strings.HasPrefix(k, headerPrefix) || headerAllowlist[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var h Header
	for _, k := range keys {
		name := strings.TrimPrefix(k, headerPrefix)
		h.set(CanonicalHeaderName(name), []string{server[k]})
	}
	return h
}

// environURI composes the request URI from the snapshot. The scheme is https
// only when the scheme marker says so and the TLS flag is on; the host is
// taken from the Host header, then HTTP_HOST, then SERVER_NAME; the path and
// query come from splitting REQUEST_URI on the first "?". The fragment is
// never available server-side.
func environURI(server map[string]string, h Header) *Uri {
	u := &Uri{scheme: "http"}
	if server[envRequestScheme] == "https" && strings.EqualFold(server[envTLS], "on") {
		u.scheme = "https"
	}

	host := h.Line("Host")
	if host == "" {
		host = server[envHTTPHost]
	}
	if host == "" {
		host = server[envServerName]
	}
	// A Host header may carry "host:port"; the URI keeps them apart.
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	u.host = strings.ToLower(host)

	if p, err := strconv.Atoi(server[envServerPort]); err == nil && p >= 1 && p <= 65535 {
		u.port = p
	}

	target := server[envRequestURI]
	if i := strings.IndexByte(target, '?'); i >= 0 {
		u.path = encodePath(target[:i])
		u.query = encodeQuery(target[i+1:])
	} else {
		u.path = encodePath(target)
	}

	if user := server[envAuthUser]; user != "" {
		u.userInfo = user
		if pass := server[envAuthPassword]; pass != "" {
			u.userInfo += ":" + pass
		}
	}
	return u
}

// patchAuthorization restores an Authorization header hidden behind a
// redirect-time rename, best-effort.
func patchAuthorization(server map[string]string) map[string]string {
	out := make(map[string]string, len(server))
	for k, v := range server {
		out[k] = v
	}
	if _, ok := out[envAuthorization]; !ok {
		if v, ok := out[envRedirectedAuth]; ok {
			out[envAuthorization] = v
		}
	}
	return out
}
