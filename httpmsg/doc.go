// Package httpmsg models a single in-memory HTTP exchange as immutable
// value objects: requests, responses, URIs, body streams and uploaded
// files. It is a message abstraction, not a server — no sockets, no
// connection handling.
//
// Highlights
//   - Messages: ordered, case-insensitive multi-value headers with
//     canonical "Header-Case" storage; copy-on-write With* mutators that
//     share the body stream between copies.
//   - Uri: validated components, idempotent percent-encoding, default-port
//     elision, normalized round-tripping serialization.
//   - ServerRequest: built exactly once from an explicit Environ snapshot
//     (CGI-style server params, query/cookie/form/file snapshots, body),
//     never from process-wide state.
//   - UploadedFile: move-once temp-file handling with a rename fast path
//     and a buffered copy fallback.
//   - Response: status/reason modeling over the IANA registry and an Emit
//     operation writing status line, headers and body to any io.Writer.
//
// Quick start:
//
//	req, err := httpmsg.FromEnviron(httpmsg.Environ{
//	    Server: map[string]string{
//	        "REQUEST_METHOD": "GET",
//	        "REQUEST_URI":    "/items?x=1",
//	        "HTTP_HOST":      "example.com",
//	    },
//	})
//	if err != nil { log.Fatal(err) }
//	fmt.Println(req.Method(), req.RequestTarget())
//
//	res, _ := httpmsg.NewResponse().WithStatus(200)
//	res, _ = res.WithHeader("Content-Type", "text/plain")
//	res.Body().Write([]byte("hello"))
//	_ = res.Emit(os.Stdout)
package httpmsg
