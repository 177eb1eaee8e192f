package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
)

//go:embed fixtures/facility_status.json
var facilityStatusFixture []byte

// FacilityFixtureSource serves a built-in sample of facility bed-availability
// records. It stands in for a live health department feed.
type FacilityFixtureSource struct {
	data []byte
}

// NewFacilityFixtureSource returns the embedded sample feed.
func NewFacilityFixtureSource() *FacilityFixtureSource {
	return &FacilityFixtureSource{data: facilityStatusFixture}
}

// Name returns the feed name.
func (s *FacilityFixtureSource) Name() string { return "facility_fixture" }

// Records returns one RawRecord per sample facility.
func (s *FacilityFixtureSource) Records(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(s.data, &items); err != nil {
		return nil, fmt.Errorf("decode facility fixture: %w", err)
	}
	return toRecords(s.Name(), domain.ShapeFacilityStatus, items), nil
}
