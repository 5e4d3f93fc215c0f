package httpmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironEndToEnd(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"REQUEST_URI":    "/items?x=1",
			"HTTP_HOST":      "example.com",
			"SERVER_PORT":    "80",
			"REQUEST_SCHEME": "http",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "/items?x=1", req.RequestTarget())
	assert.Equal(t, "http://example.com/items?x=1", req.Uri().String())
	assert.Equal(t, "example.com", req.HeaderLine("Host"))
	assert.Len(t, req.ID(), 26)
}

func TestFromEnvironHeaderDerivation(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD":       "GET",
			"HTTP_X_FORWARDED_FOR": "10.0.0.1",
			"HTTP_ACCEPT":          "*/*",
			"CONTENT_TYPE":         "text/plain",
			"CONTENT_LENGTH":       "0",
			"CONTENT_MD5":          "abc",
			"SERVER_PORT":          "80",
			"GATEWAY_INTERFACE":    "CGI/1.1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", req.HeaderLine("X-Forwarded-For"))
	assert.Equal(t, "*/*", req.HeaderLine("Accept"))
	assert.Equal(t, "text/plain", req.HeaderLine("Content-Type"))
	assert.Equal(t, "0", req.HeaderLine("Content-Length"))
	assert.Equal(t, "abc", req.HeaderLine("Content-Md5"))

	// non-header environment keys are not exposed
	assert.False(t, req.HasHeader("Gateway-Interface"))
	assert.False(t, req.HasHeader("Server-Port"))
}

func TestFromEnvironAuthorizationPatch(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD":              "GET",
			"REDIRECT_HTTP_AUTHORIZATION": "Basic Zm9vOmJhcg==",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Basic Zm9vOmJhcg==", req.HeaderLine("Authorization"))

	// an explicit Authorization wins over the redirected copy
	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD":              "GET",
			"HTTP_AUTHORIZATION":          "Bearer tok",
			"REDIRECT_HTTP_AUTHORIZATION": "Basic ignored",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", req.HeaderLine("Authorization"))
}

func TestFromEnvironScheme(t *testing.T) {
	secure, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"REQUEST_SCHEME": "https",
			"HTTPS":          "on",
			"HTTP_HOST":      "example.com",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "https", secure.Uri().Scheme())

	// scheme marker alone is not enough
	plain, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"REQUEST_SCHEME": "https",
			"HTTP_HOST":      "example.com",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "http", plain.Uri().Scheme())
}

func TestFromEnvironHostPriority(t *testing.T) {
	// Host header beats SERVER_NAME
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"HTTP_HOST":      "header.example.com:8080",
			"SERVER_NAME":    "server.example.com",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "header.example.com", req.Uri().Host())

	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"SERVER_NAME":    "server.example.com",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "server.example.com", req.Uri().Host())

	req, err = FromEnviron(Environ{Server: map[string]string{"REQUEST_METHOD": "GET"}})
	require.NoError(t, err)
	assert.Equal(t, "", req.Uri().Host())
}

func TestFromEnvironUserInfo(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"HTTP_HOST":      "example.com",
			"AUTH_USER":      "alice",
			"AUTH_PASSWORD":  "secret",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice:secret", req.Uri().UserInfo())
	assert.Equal(t, "alice:secret@example.com", req.Uri().Authority())
}

func TestFromEnvironParsedBodyForm(t *testing.T) {
	form := map[string]any{"name": "widget", "_method": "put"}
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "application/x-www-form-urlencoded",
		},
		Form: form,
	})
	require.NoError(t, err)

	body, ok := req.ParsedBody().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "widget", body["name"])
	assert.Equal(t, "PUT", req.ReplacedMethod())

	// multipart bodies take the same path
	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "multipart/form-data; boundary=xyz",
		},
		Form: form,
	})
	require.NoError(t, err)
	assert.NotNil(t, req.ParsedBody())

	// form content type without POST parses nothing
	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "PUT",
			"CONTENT_TYPE":   "application/x-www-form-urlencoded",
		},
		Form: form,
	})
	require.NoError(t, err)
	assert.Nil(t, req.ParsedBody())
}

func TestFromEnvironParsedBodyJSON(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "application/json; charset=utf-8",
		},
		Body: NewStringStream(`{"a": 1, "b": ["x"]}`),
	})
	require.NoError(t, err)

	body, ok := req.ParsedBody().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), body["a"])

	// malformed JSON degrades to nil, not an error
	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "application/json",
		},
		Body: NewStringStream("{nope"),
	})
	require.NoError(t, err)
	assert.Nil(t, req.ParsedBody())

	// empty body degrades to nil
	req, err = FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "application/json",
		},
	})
	require.NoError(t, err)
	assert.Nil(t, req.ParsedBody())

	// no content type at all
	req, err = FromEnviron(Environ{
		Server: map[string]string{"REQUEST_METHOD": "POST"},
		Body:   NewStringStream(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Nil(t, req.ParsedBody())
}

func TestInput(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "POST",
			"CONTENT_TYPE":   "application/x-www-form-urlencoded",
		},
		Query: map[string]any{"q": "fromquery"},
		Form:  map[string]any{"q": "frombody", "only": "inbody"},
	})
	require.NoError(t, err)

	// query params win over the parsed body
	assert.Equal(t, "fromquery", req.Input("q"))
	assert.Equal(t, "inbody", req.Input("only"))

	// a provided default is returned even when falsy
	assert.Equal(t, 0, req.Input("missing", 0))
	assert.Equal(t, false, req.Input("missing", false))
	assert.Nil(t, req.Input("missing", nil))

	// no default at all yields ""
	assert.Equal(t, "", req.Input("missing"))
}

func TestAttributes(t *testing.T) {
	req, err := FromEnviron(Environ{Server: map[string]string{"REQUEST_METHOD": "GET"}})
	require.NoError(t, err)

	with := req.WithAttribute("route", "items.index")
	assert.Equal(t, "items.index", with.Attribute("route"))
	assert.Nil(t, req.Attribute("route"))
	assert.Equal(t, "fallback", req.Attribute("route", "fallback"))

	without := with.WithoutAttribute("route")
	assert.Nil(t, without.Attribute("route"))
	assert.Equal(t, "items.index", with.Attribute("route"))
}

func TestServerRequestSnapshots(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server:  map[string]string{"REQUEST_METHOD": "GET", "SERVER_NAME": "example.com"},
		Query:   map[string]any{"x": "1"},
		Cookies: map[string]string{"session": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "example.com", req.ServerParams()["SERVER_NAME"])
	assert.Equal(t, "abc", req.CookieParams()["session"])
	assert.Equal(t, "1", req.QueryParams()["x"])

	// accessors hand out copies
	req.QueryParams()["x"] = "mutated"
	assert.Equal(t, "1", req.QueryParams()["x"])

	q2 := req.WithQueryParams(map[string]any{"y": "2"})
	assert.Equal(t, "2", q2.QueryParams()["y"])
	assert.Equal(t, "1", req.QueryParams()["x"])

	c2 := req.WithCookieParams(map[string]string{"session": "def"})
	assert.Equal(t, "def", c2.CookieParams()["session"])

	p2 := req.WithParsedBody(map[string]any{"k": "v"})
	assert.NotNil(t, p2.ParsedBody())
	assert.Nil(t, req.ParsedBody())
}

func TestServerRequestWitherChain(t *testing.T) {
	req, err := FromEnviron(Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"HTTP_HOST":      "example.com",
			"REQUEST_URI":    "/",
		},
	})
	require.NoError(t, err)

	r2, err := req.WithMethod("post")
	require.NoError(t, err)
	r3, err := r2.WithHeader("X-Trace", "on")
	require.NoError(t, err)
	r4, err := r3.WithRequestTarget("/override")
	require.NoError(t, err)

	assert.Equal(t, "POST", r4.Method())
	assert.Equal(t, "on", r4.HeaderLine("X-Trace"))
	assert.Equal(t, "/override", r4.RequestTarget())
	// server-side snapshots survive message-level withers
	assert.Equal(t, req.ID(), r4.ID())
	assert.Equal(t, "GET", req.Method())

	u, err := ParseURI("https://other.example.com/next")
	require.NoError(t, err)
	r5, err := r4.WithUri(u, false)
	require.NoError(t, err)
	assert.Equal(t, "other.example.com", r5.HeaderLine("Host"))
}

func TestFromEnvironNormalizesFiles(t *testing.T) {
	pre, err := NewUploadedFile(NewStringStream("x"), 1, UploadOK, "pre.txt", "text/plain")
	require.NoError(t, err)

	req, err := FromEnviron(Environ{
		Server: map[string]string{"REQUEST_METHOD": "POST"},
		Files: map[string]any{
			"avatar": map[string]any{
				"tmp_name": "/tmp/upload-1",
				"size":     42,
				"error":    0,
				"name":     "me.png",
				"type":     "image/png",
			},
			"docs": map[string]any{
				"report": map[string]any{
					"tmp_name": []any{"/tmp/a", "/tmp/b"},
					"size":     []any{1, 2},
					"error":    []any{0, 0},
					"name":     []any{"a.txt", "b.txt"},
					"type":     []any{"text/plain", "text/plain"},
				},
			},
			"ready": pre,
		},
	})
	require.NoError(t, err)

	files := req.UploadedFiles()

	avatar, ok := files["avatar"].(*UploadedFile)
	require.True(t, ok)
	assert.Equal(t, int64(42), avatar.Size())
	assert.Equal(t, "me.png", avatar.ClientFilename())
	assert.Equal(t, "image/png", avatar.ClientMediaType())
	assert.Equal(t, UploadOK, avatar.Error())

	docs, ok := files["docs"].(map[string]any)
	require.True(t, ok)
	report, ok := docs["report"].([]any)
	require.True(t, ok)
	require.Len(t, report, 2)
	second, ok := report[1].(*UploadedFile)
	require.True(t, ok)
	assert.Equal(t, "b.txt", second.ClientFilename())

	assert.Same(t, pre, files["ready"])

	_, err = FromEnviron(Environ{
		Server: map[string]string{"REQUEST_METHOD": "POST"},
		Files:  map[string]any{"bad": 42},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
