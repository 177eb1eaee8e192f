package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// TopK is the number of recommendations returned per crisis.
const TopK = 3

const (
	// capacityScale keeps scores readable for capacities in the tens of
	// thousands. It is fixed, not fitted to the data range.
	capacityScale    = 10000.0
	maxUrgencyValue  = 5.0
	urgencyBoostMark = 3.0
	urgencyBoost     = 1.2
)

// ErrUndatedCrisis is returned when a crisis has no usable timestamp, so its
// age and therefore its freshness cannot be computed.
var ErrUndatedCrisis = errors.New("crisis has no timestamp")

// Recommender ranks resources against a crisis with transparent rules.
// It is deterministic for identical inputs and clock time.
type Recommender struct {
	clock clockwork.Clock
}

// NewRecommender creates a Recommender. Pass nil for the real clock.
func NewRecommender(clock clockwork.Clock) *Recommender {
	return &Recommender{clock: clockOrReal(clock)}
}

// Recommend scores every resource, ranks them by score (stable on ties) and
// returns at most TopK. Scoring never filters: zero-capacity resources are
// ranked like any other.
func (r *Recommender) Recommend(crisis NormalizedCrisis, resources []NormalizedResource) ([]ResourceRecommendation, error) {
	if crisis.Timestamp.IsZero() {
		return nil, fmt.Errorf("recommend for %q: %w", crisis.ID, ErrUndatedCrisis)
	}

	urgency := UrgencyValue(crisis)
	freshness := FreshnessFactor(r.clock.Since(crisis.Timestamp))
	confidence := RecommendationConfidence(freshness, crisis.Confidence)

	recs := make([]ResourceRecommendation, 0, len(resources))
	for _, res := range resources {
		score := float64(res.Capacity) / capacityScale * urgency * freshness
		reasons := []string{
			fmt.Sprintf("Base capacity %d supports high-volume response.", res.Capacity),
		}

		if urgency > urgencyBoostMark {
			score *= urgencyBoost
			reasons = append(reasons, "High urgency event prioritizes massive resource pools.")
		}
		if freshness < 0.8 {
			reasons = append(reasons, "Bulletin is older than 24h; recommendation confidence lowered.")
		}

		recs = append(recs, ResourceRecommendation{
			ResourceID:   res.ID,
			ResourceName: res.Name,
			Score:        roundScore(score),
			Confidence:   confidence,
			Reasoning:    reasons,
			Details:      res.Details,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > TopK {
		recs = recs[:TopK]
	}
	return recs, nil
}

// UrgencyValue is the crisis urgency score plus a bonus for the raw severity
// text ("high" +1.0, "moderate" +0.5), capped at 5.
func UrgencyValue(crisis NormalizedCrisis) float64 {
	value := float64(crisis.UrgencyScore)
	switch strings.ToLower(strings.TrimSpace(crisis.RawSeverity)) {
	case "high":
		value += 1.0
	case "moderate":
		value += 0.5
	}
	return math.Min(value, maxUrgencyValue)
}

// FreshnessFactor decays with bulletin age: 1.0 under 6h, 0.8 under 24h,
// 0.5 beyond. Future-dated bulletins count as fresh.
func FreshnessFactor(age time.Duration) float64 {
	switch {
	case age < 6*time.Hour:
		return 1.0
	case age < 24*time.Hour:
		return 0.8
	default:
		return 0.5
	}
}

// RecommendationConfidence combines freshness and source confidence. The
// branches are checked in order and the first match wins.
func RecommendationConfidence(freshness float64, source Confidence) Confidence {
	switch {
	case freshness < 0.6 || source == ConfidenceLow:
		return ConfidenceLow
	case freshness < 0.9 || source == ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// roundScore rounds to two decimals, halves to even.
func roundScore(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
