package httpmsg_test

import (
	"fmt"
	"os"

	"dqx0.com/go/web/httpmsg"
)

// ExampleCanonicalHeaderName shows how lookup keys are normalized.
func ExampleCanonicalHeaderName() {
	fmt.Println(httpmsg.CanonicalHeaderName("x_forwarded_for"))
	fmt.Println(httpmsg.CanonicalHeaderName("CONTENT-type"))
	// Output:
	// X-Forwarded-For
	// Content-Type
}

// ExampleParseURI demonstrates component access and normalized printing.
func ExampleParseURI() {
	u, _ := httpmsg.ParseURI("HTTP://Example.COM:80/a%20b?x=1")
	fmt.Println(u.Host())
	fmt.Println(u.Port()) // default port for the scheme is elided
	fmt.Println(u.String())
	// Output:
	// example.com
	// 0
	// http://example.com/a%20b?x=1
}

// ExampleFromEnviron builds a request from an environment snapshot.
func ExampleFromEnviron() {
	req, err := httpmsg.FromEnviron(httpmsg.Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"REQUEST_URI":    "/items?x=1",
			"HTTP_HOST":      "example.com",
			"SERVER_PORT":    "80",
			"REQUEST_SCHEME": "http",
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(req.Method(), req.RequestTarget())
	fmt.Println(req.Uri().String())
	// Output:
	// GET /items?x=1
	// http://example.com/items?x=1
}

// ExampleResponse_WithStatus shows reason phrase defaulting.
func ExampleResponse_WithStatus() {
	res, _ := httpmsg.NewResponse().WithStatus(404)
	fmt.Println(res.StatusCode(), res.ReasonPhrase())
	res, _ = res.WithStatus(404, "Lost Forever")
	fmt.Println(res.StatusCode(), res.ReasonPhrase())
	// Output:
	// 404 Not Found
	// 404 Lost Forever
}
