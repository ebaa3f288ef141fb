package httprunner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/httpclient"
	"github.com/hextract/parking-net/internal/infra/logger"
	"github.com/hextract/parking-net/internal/ports"
)

type Runner struct {
	exec             *httpclient.Executor
	credentialHeader string
	log              *slog.Logger
}

type Option func(*Runner)

// WithCredentialHeader sets the header carrying the caller credential.
func WithCredentialHeader(name string) Option {
	return func(r *Runner) { r.credentialHeader = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func New(exec *httpclient.Executor, opts ...Option) *Runner {
	r := &Runner{
		exec:             exec,
		credentialHeader: "api_key",
		log:              logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Transport = (*Runner)(nil)

// Do runs call once. Any failure to obtain a response becomes a Result with
// status 0 and a descriptive body; HTTP error statuses are returned verbatim.
func (r *Runner) Do(ctx context.Context, baseURL string, call domain.Call) domain.Result {
	req, err := httpclient.BuildRequest(ctx, baseURL, call, r.credentialHeader)
	if err != nil {
		r.log.Warn("http.build.failed", "method", string(call.Method), "path", call.Path, "err", err)
		return transportFailure(err, "Request error")
	}

	resp, err := r.exec.Do(ctx, req)
	if err != nil {
		res := transportFailure(err, "Connection error")
		res.Duration = resp.Duration
		r.log.Warn("http.call.failed",
			"method", string(call.Method),
			"url", req.URL.String(),
			"kind", string(res.Error.Kind),
			"err", err,
			"duration_ms", resp.Duration.Milliseconds(),
		)
		return res
	}

	r.log.Debug("http.call",
		"method", string(call.Method),
		"url", req.URL.String(),
		"status", resp.Status,
		"duration_ms", resp.Duration.Milliseconds(),
		"truncated", resp.Truncated,
	)

	return domain.Result{
		Status:    resp.Status,
		Body:      resp.BodyBytes,
		Truncated: resp.Truncated,
		Duration:  resp.Duration,
	}
}

func transportFailure(err error, label string) domain.Result {
	re := domain.NewRunError(err)
	return domain.Result{
		Status: domain.StatusTransportFailure,
		Body:   []byte(fmt.Sprintf("%s (%s): %s", label, re.Kind, re.Message)),
		Error:  re,
	}
}
