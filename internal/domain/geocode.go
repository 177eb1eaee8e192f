package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches coordinates for the crisis's primary location.
// A nil geocoder, a placeholder location or a failed lookup leaves the crisis
// without Geo (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, crisis NormalizedCrisis, geocoder Geocoder, logger *slog.Logger) NormalizedCrisis {
	if geocoder == nil || len(crisis.Locations) == 0 {
		return crisis
	}

	query := crisis.Locations[0]
	if query == "" || query == unknownLocation {
		return crisis
	}

	result, err := geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"crisis_id", crisis.ID,
			"location", query,
			"error", err,
		)
		return crisis
	}
	if result.Lat == 0 && result.Lon == 0 {
		return crisis
	}

	crisis.Geo = &Geo{
		Lat:       result.Lat,
		Lon:       result.Lon,
		PlaceName: result.PlaceName,
	}
	return crisis
}
