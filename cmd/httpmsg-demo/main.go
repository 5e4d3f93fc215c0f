package main

import (
	"os"

	"dqx0.com/go/web/httpmsg"
	"dqx0.com/go/web/internal/obs"
)

func main() {
	logger := obs.NewLogger(os.Stderr)
	meter := obs.LogMeter{L: obs.ZerologLogger{L: logger}}

	req, err := httpmsg.FromEnviron(httpmsg.Environ{
		Server: map[string]string{
			"REQUEST_METHOD": "GET",
			"REQUEST_URI":    "/items?x=1",
			"HTTP_HOST":      "example.com",
			"SERVER_PORT":    "80",
			"REQUEST_SCHEME": "http",
		},
		Query: map[string]any{"x": "1"},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("construct request")
	}
	req = req.WithAttribute("route", "items.index")
	logger.Info().
		Str("id", req.ID()).
		Str("method", req.Method()).
		Str("target", req.RequestTarget()).
		Str("uri", req.Uri().String()).
		Msg("request constructed")

	res, err := httpmsg.NewResponse().WithStatus(200)
	if err != nil {
		logger.Fatal().Err(err).Msg("set status")
	}
	res, err = res.WithHeader("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		logger.Fatal().Err(err).Msg("set header")
	}
	if _, err := res.Body().Write([]byte("hello from " + req.RequestTarget() + "\n")); err != nil {
		logger.Fatal().Err(err).Msg("write body")
	}
	if err := res.Emit(os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("emit response")
	}
	meter.Counter("responses_emitted", 1, obs.Label{Key: "status", Value: "200"})
}
