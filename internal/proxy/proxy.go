// Package proxy wraps the transport for one backend with a fixed base address
// and a credential that can be swapped between calls.
package proxy

import (
	"context"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/ports"
)

type Proxy struct {
	name       domain.ServiceName
	baseURL    string
	credential string
	transport  ports.Transport
}

func New(name domain.ServiceName, baseURL string, transport ports.Transport) *Proxy {
	return &Proxy{
		name:      name,
		baseURL:   baseURL,
		transport: transport,
	}
}

func (p *Proxy) Name() domain.ServiceName { return p.name }
func (p *Proxy) BaseURL() string          { return p.baseURL }

// SetCredential replaces the credential sent on every following call.
// An empty credential sends none.
func (p *Proxy) SetCredential(token string) { p.credential = token }

func (p *Proxy) Credential() string { return p.credential }

// As returns a view of p that sends token instead of the current credential.
// The original proxy is not modified.
func (p *Proxy) As(token string) *Proxy {
	cp := *p
	cp.credential = token
	return &cp
}

// Anonymous returns a view of p that sends no credential.
func (p *Proxy) Anonymous() *Proxy {
	return p.As("")
}

// Request issues one call. The credential is read at call time.
func (p *Proxy) Request(ctx context.Context, method domain.HTTPMethod, path string, body any, query map[string]string) domain.Result {
	return p.transport.Do(ctx, p.baseURL, domain.Call{
		Method:     method,
		Path:       path,
		Query:      query,
		Body:       body,
		Credential: p.credential,
	})
}

func (p *Proxy) Get(ctx context.Context, path string, query map[string]string) domain.Result {
	return p.Request(ctx, domain.MethodGet, path, nil, query)
}

func (p *Proxy) Post(ctx context.Context, path string, body any) domain.Result {
	return p.Request(ctx, domain.MethodPost, path, body, nil)
}

func (p *Proxy) Put(ctx context.Context, path string, body any) domain.Result {
	return p.Request(ctx, domain.MethodPut, path, body, nil)
}

func (p *Proxy) Delete(ctx context.Context, path string) domain.Result {
	return p.Request(ctx, domain.MethodDelete, path, nil, nil)
}

// Set groups the proxies of every backend under test.
type Set struct {
	Auth    *Proxy
	Parking *Proxy
	Booking *Proxy
	Payment *Proxy
}

// NewSet builds one proxy per configured service over a shared transport.
func NewSet(services domain.ServicesConfig, transport ports.Transport) Set {
	return Set{
		Auth:    New(domain.ServiceAuth, services.Auth.BaseURL, transport),
		Parking: New(domain.ServiceParking, services.Parking.BaseURL, transport),
		Booking: New(domain.ServiceBooking, services.Booking.BaseURL, transport),
		Payment: New(domain.ServicePayment, services.Payment.BaseURL, transport),
	}
}

// All returns the proxies in probe order.
func (s Set) All() []*Proxy {
	return []*Proxy{s.Auth, s.Parking, s.Booking, s.Payment}
}
