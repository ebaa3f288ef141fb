package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

// StartHint is printed when a backend is down.
const StartHint = "docker-compose up -d"

// ProbeServices checks that every backend answers before a run starts.
type ProbeServices struct {
	transport ports.Transport
	observer  ports.RunObserver
	log       *slog.Logger
}

type ProbeOption func(*ProbeServices)

func WithProbeObserver(o ports.RunObserver) ProbeOption {
	return func(p *ProbeServices) { p.observer = o }
}

func WithProbeLogger(l *slog.Logger) ProbeOption {
	return func(p *ProbeServices) {
		if l != nil {
			p.log = l
		}
	}
}

func NewProbeServices(transport ports.Transport, opts ...ProbeOption) *ProbeServices {
	p := &ProbeServices{
		transport: transport,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute sends one unauthenticated GET to the probe path of every service.
// Any HTTP response, whatever its status, means the service is up.
func (p *ProbeServices) Execute(ctx context.Context, services domain.ServicesConfig) []domain.ProbeResult {
	all := services.All()
	out := make([]domain.ProbeResult, 0, len(all))

	for _, svc := range all {
		res := p.transport.Do(ctx, svc.BaseURL, domain.Call{
			Method: domain.MethodGet,
			Path:   svc.ProbePath,
		})

		pr := domain.ProbeResult{
			Service: svc.Name,
			URL:     strings.TrimRight(svc.BaseURL, "/") + svc.ProbePath,
			Up:      !res.Unavailable(),
			Status:  res.Status,
		}
		if pr.Up {
			pr.Message = fmt.Sprintf("HTTP %d", res.Status)
			p.log.Info("probe.up", "service", string(svc.Name), "status", res.Status)
		} else {
			pr.Message = res.Text()
			p.log.Warn("probe.down", "service", string(svc.Name), "url", pr.URL, "err", pr.Message)
		}

		if p.observer != nil {
			p.observer.ProbeFinished(pr)
		}
		out = append(out, pr)
	}
	return out
}

// Down returns the probes that failed.
func Down(probes []domain.ProbeResult) []domain.ProbeResult {
	var out []domain.ProbeResult
	for _, pr := range probes {
		if !pr.Up {
			out = append(out, pr)
		}
	}
	return out
}
