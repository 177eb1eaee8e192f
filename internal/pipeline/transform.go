package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
)

// Enricher attaches optional geocoding data to normalized crises.
type Enricher struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewEnricher creates an Enricher. Pass a nil geocoder to disable geocoding
// enrichment.
func NewEnricher(geocoder domain.Geocoder, logger *slog.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Enrich returns a copy of crises with coordinates set where the primary
// location could be resolved. Order is preserved.
func (e *Enricher) Enrich(ctx context.Context, crises []domain.NormalizedCrisis) []domain.NormalizedCrisis {
	if e == nil || e.geocoder == nil {
		return crises
	}

	out := make([]domain.NormalizedCrisis, len(crises))
	for i, c := range crises {
		if ctx.Err() != nil {
			copy(out[i:], crises[i:])
			break
		}
		out[i] = domain.EnrichWithGeocoding(ctx, c, e.geocoder, e.logger)
	}
	return out
}
