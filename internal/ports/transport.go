package ports

import (
	"context"

	"github.com/hextract/parking-net/internal/domain"
)

// Transport issues one call against a base address. It never returns an
// error: transport failures come back as a status-0 Result.
type Transport interface {
	Do(ctx context.Context, baseURL string, call domain.Call) domain.Result
}
