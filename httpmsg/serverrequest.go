package httpmsg

import (
	"maps"
	"strings"

	"github.com/aohorodnyk/mimeheader"
	json "github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
)

// ServerRequest is a Request enriched with the server-side snapshots taken
// at construction: server params, cookies, query params, uploaded files,
// the parsed body and request-scoped attributes. It is built exactly once
// per inbound exchange via FromEnviron; all mutation happens through With*
// copies.
type ServerRequest struct {
	Request

	id             ulid.ULID
	serverParams   map[string]string
	cookieParams   map[string]string
	queryParams    map[string]any
	uploadedFiles  map[string]any
	parsedBody     any
	attributes     map[string]any
	replacedMethod string
}

// FromEnviron constructs a ServerRequest from an environment snapshot.
//
// Construction order is fixed: the server map is snapshotted (restoring a
// redirect-hidden Authorization header), headers and the URI are derived
// from it, the method is taken raw, the body is parsed when the method and
// Content-Type call for it, the "_method" override is captured, and the
// query/cookie/file snapshots are taken verbatim (files normalized).
func FromEnviron(env Environ) (*ServerRequest, error) {
	server := patchAuthorization(env.Server)
	header := environHeaders(server)
	uri := environURI(server, header)

	body := env.Body
	if body == nil {
		body = NewStringStream("")
	}

	method := server[envRequestMethod]

	files, err := NormalizeUploadedFiles(env.Files)
	if err != nil {
		return nil, err
	}

	r := &ServerRequest{
		Request: Request{
			message: message{proto: "1.1", header: header, body: body},
			method:  method,
			uri:     uri,
		},
		id:            ulid.Make(),
		serverParams:  maps.Clone(server),
		cookieParams:  maps.Clone(env.Cookies),
		queryParams:   maps.Clone(env.Query),
		uploadedFiles: files,
		parsedBody:    parseBody(method, header.Line("Content-Type"), env.Form, body),
		attributes:    map[string]any{},
	}
	if v, ok := env.Form["_method"].(string); ok {
		r.replacedMethod = strings.ToUpper(v)
	}
	return r, nil
}

// parseBody decides the parsed-body snapshot. Form-encoded POST bodies use
// the decoded form snapshot; JSON bodies are decoded from the stream, with
// nil for empty or malformed payloads; everything else stays nil.
func parseBody(method, contentType string, form map[string]any, body *Stream) any {
	ct, err := mimeheader.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	if method == "POST" &&
		(ct.MatchText("multipart/form-data") || ct.MatchText("application/x-www-form-urlencoded")) {
		return maps.Clone(form)
	}
	if ct.MatchText("application/json") {
		raw, err := body.Contents()
		if body.Seekable() {
			_ = body.Rewind()
		}
		if err != nil || raw == "" {
			return nil
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil
		}
		return v
	}
	return nil
}

// ID returns the ULID assigned to this request at construction.
func (r *ServerRequest) ID() string { return r.id.String() }

// ServerParams returns a copy of the server parameter snapshot.
func (r *ServerRequest) ServerParams() map[string]string { return maps.Clone(r.serverParams) }

// CookieParams returns a copy of the cookie snapshot.
func (r *ServerRequest) CookieParams() map[string]string { return maps.Clone(r.cookieParams) }

// QueryParams returns a copy of the query parameter snapshot.
func (r *ServerRequest) QueryParams() map[string]any { return maps.Clone(r.queryParams) }

// UploadedFiles returns the normalized uploaded-file tree.
func (r *ServerRequest) UploadedFiles() map[string]any { return maps.Clone(r.uploadedFiles) }

// ParsedBody returns the structured body, or nil when none was derived.
func (r *ServerRequest) ParsedBody() any { return r.parsedBody }

// ReplacedMethod returns the upper-cased "_method" form override, or "".
func (r *ServerRequest) ReplacedMethod() string { return r.replacedMethod }

// Attributes returns a copy of the request-scoped attribute map.
func (r *ServerRequest) Attributes() map[string]any { return maps.Clone(r.attributes) }

// Attribute returns the named attribute. When absent it returns the given
// default, else nil.
func (r *ServerRequest) Attribute(name string, def ...any) any {
	if v, ok := r.attributes[name]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return nil
}

// Input looks name up in the query parameters first, then in a map-shaped
// parsed body. When neither contains it, the given default is returned if
// one was passed (a nil or zero default still counts), else "".
func (r *ServerRequest) Input(name string, def ...any) any {
	if v, ok := r.queryParams[name]; ok {
		return v
	}
	if m, ok := r.parsedBody.(map[string]any); ok {
		if v, ok := m[name]; ok {
			return v
		}
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// WithAttribute returns a copy with the named attribute set.
func (r *ServerRequest) WithAttribute(name string, value any) *ServerRequest {
	r2 := *r
	r2.attributes = maps.Clone(r.attributes)
	if r2.attributes == nil {
		r2.attributes = map[string]any{}
	}
	r2.attributes[name] = value
	return &r2
}

// WithoutAttribute returns a copy without the named attribute.
func (r *ServerRequest) WithoutAttribute(name string) *ServerRequest {
	r2 := *r
	r2.attributes = maps.Clone(r.attributes)
	delete(r2.attributes, name)
	return &r2
}

// WithQueryParams returns a copy with a replaced query parameter snapshot.
func (r *ServerRequest) WithQueryParams(params map[string]any) *ServerRequest {
	r2 := *r
	r2.queryParams = maps.Clone(params)
	return &r2
}

// WithCookieParams returns a copy with a replaced cookie snapshot.
func (r *ServerRequest) WithCookieParams(cookies map[string]string) *ServerRequest {
	r2 := *r
	r2.cookieParams = maps.Clone(cookies)
	return &r2
}

// WithUploadedFiles returns a copy with a replaced, normalized upload tree.
func (r *ServerRequest) WithUploadedFiles(files map[string]any) (*ServerRequest, error) {
	normalized, err := NormalizeUploadedFiles(files)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.uploadedFiles = normalized
	return &r2, nil
}

// WithParsedBody returns a copy with a replaced parsed body.
func (r *ServerRequest) WithParsedBody(body any) *ServerRequest {
	r2 := *r
	r2.parsedBody = body
	return &r2
}

// WithMethod returns a copy with the given method, validated as on Request.
func (r *ServerRequest) WithMethod(method string) (*ServerRequest, error) {
	req, err := r.Request.WithMethod(method)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithRequestTarget returns a copy with an explicit request-target override.
func (r *ServerRequest) WithRequestTarget(target string) (*ServerRequest, error) {
	req, err := r.Request.WithRequestTarget(target)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithUri returns a copy using the given URI, with Host header handling as
// on Request.
func (r *ServerRequest) WithUri(u *Uri, preserveHost bool) (*ServerRequest, error) {
	req, err := r.Request.WithUri(u, preserveHost)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithProtocolVersion returns a copy using the given protocol version.
func (r *ServerRequest) WithProtocolVersion(v string) (*ServerRequest, error) {
	req, err := r.Request.WithProtocolVersion(v)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithHeader returns a copy in which the named header holds exactly values.
func (r *ServerRequest) WithHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.Request.WithHeader(name, values...)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithAddedHeader returns a copy with values appended to the named header.
func (r *ServerRequest) WithAddedHeader(name string, values ...string) (*ServerRequest, error) {
	req, err := r.Request.WithAddedHeader(name, values...)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}

// WithoutHeader returns a copy without the named header.
func (r *ServerRequest) WithoutHeader(name string) *ServerRequest {
	r2 := *r
	r2.Request = *r.Request.WithoutHeader(name)
	return &r2
}

// WithBody returns a copy using the given body stream.
func (r *ServerRequest) WithBody(body *Stream) (*ServerRequest, error) {
	req, err := r.Request.WithBody(body)
	if err != nil {
		return nil, err
	}
	r2 := *r
	r2.Request = *req
	return &r2, nil
}
