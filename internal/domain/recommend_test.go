package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResources() []NormalizedResource {
	return []NormalizedResource{
		{ID: "RES_AGG_0", Name: "Bed Strength", Capacity: 74148, Details: Details{{Code: "DME", Count: 30311}}},
		{ID: "RES_AGG_1", Name: "Doctors", Capacity: 12000},
		{ID: "RES_AGG_2", Name: "Nurses", Capacity: 30000},
		{ID: "RES_AGG_3", Name: "Ambulances", Capacity: 800},
		{ID: "RES_AGG_4", Name: "Blood Units", Capacity: 45000},
	}
}

func testCrisis(urgency int, rawSeverity string, age time.Duration) NormalizedCrisis {
	return NormalizedCrisis{
		ID:           "FFG-1",
		Timestamp:    testNow.Add(-age),
		UrgencyScore: urgency,
		RawSeverity:  rawSeverity,
		Confidence:   ConfidenceHigh,
	}
}

func TestFreshnessFactor(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{"just reported", 0, 1.0},
		{"future dated", -2 * time.Hour, 1.0},
		{"just under six hours", 5*time.Hour + 59*time.Minute, 1.0},
		{"exactly six hours", 6 * time.Hour, 0.8},
		{"twenty hours", 20 * time.Hour, 0.8},
		{"exactly a day", 24 * time.Hour, 0.5},
		{"a week", 7 * 24 * time.Hour, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, FreshnessFactor(tt.age), 1e-9)
		})
	}
}

func TestUrgencyValue(t *testing.T) {
	tests := []struct {
		name        string
		urgency     int
		rawSeverity string
		expected    float64
	}{
		{"no bonus", 3, "Unknown", 3.0},
		{"high bonus", 3, "High", 4.0},
		{"moderate bonus", 2, "moderate", 2.5},
		{"capped", 5, "high", 5.0},
		{"moderate capped", 5, "Moderate", 5.0},
		{"category words earn nothing", 3, "Critical", 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crisis := NormalizedCrisis{UrgencyScore: tt.urgency, RawSeverity: tt.rawSeverity}
			assert.InDelta(t, tt.expected, UrgencyValue(crisis), 1e-9)
		})
	}
}

func TestRecommendationConfidence(t *testing.T) {
	tests := []struct {
		name      string
		freshness float64
		source    Confidence
		expected  Confidence
	}{
		{"stale outranks high source", 0.5, ConfidenceHigh, ConfidenceLow},
		{"low source", 1.0, ConfidenceLow, ConfidenceLow},
		{"aging high source", 0.8, ConfidenceHigh, ConfidenceMedium},
		{"fresh medium source", 1.0, ConfidenceMedium, ConfidenceMedium},
		{"fresh high source", 1.0, ConfidenceHigh, ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RecommendationConfidence(tt.freshness, tt.source))
		})
	}
}

func TestRecommend_TopThreeDescending(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))

	recs, err := r.Recommend(testCrisis(2, "Unknown", time.Hour), testResources())
	require.NoError(t, err)

	require.Len(t, recs, TopK)
	assert.Equal(t, "RES_AGG_0", recs[0].ResourceID)
	assert.Equal(t, "RES_AGG_4", recs[1].ResourceID)
	assert.Equal(t, "RES_AGG_2", recs[2].ResourceID)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}

	// 74148 / 10000 * 2 * 1.0
	assert.InDelta(t, 14.83, recs[0].Score, 1e-9)
	assert.Equal(t, ConfidenceHigh, recs[0].Confidence)
	assert.Equal(t, []string{"Base capacity 74148 supports high-volume response."}, recs[0].Reasoning)
	assert.Equal(t, Details{{Code: "DME", Count: 30311}}, recs[0].Details)
}

func TestRecommend_FewerThanTopK(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))

	recs, err := r.Recommend(testCrisis(3, "", time.Hour), testResources()[:2])
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommend_EmptyResources(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))

	recs, err := r.Recommend(testCrisis(3, "", time.Hour), nil)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommend_UrgencyBoost(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := []NormalizedResource{{ID: "RES_AGG_0", Name: "Bed Strength", Capacity: 10000}}

	recs, err := r.Recommend(testCrisis(4, "High", time.Hour), resources)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// 1.0 * min(4+1, 5) * 1.0 * 1.2
	assert.InDelta(t, 6.0, recs[0].Score, 1e-9)
	assert.Equal(t, []string{
		"Base capacity 10000 supports high-volume response.",
		"High urgency event prioritizes massive resource pools.",
	}, recs[0].Reasoning)
}

func TestRecommend_StaleBulletin(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := []NormalizedResource{{ID: "RES_AGG_0", Name: "Bed Strength", Capacity: 20000}}

	recs, err := r.Recommend(testCrisis(2, "", 24*time.Hour), resources)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.InDelta(t, 2.0, recs[0].Score, 1e-9)
	assert.Equal(t, ConfidenceLow, recs[0].Confidence)
	assert.Contains(t, recs[0].Reasoning, "Bulletin is older than 24h; recommendation confidence lowered.")
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"half rounds down to even", 0.125, 0.12},
		{"half rounds up to even", 0.375, 0.38},
		{"above half", 0.126, 0.13},
		{"below half", 14.8296, 14.83},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, roundScore(tt.input), 1e-9)
		})
	}
}

func TestRecommend_HalfCentScoreRoundsToEven(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := []NormalizedResource{{ID: "RES_AGG_0", Name: "Ambulances", Capacity: 1250}}

	recs, err := r.Recommend(testCrisis(1, "", time.Hour), resources)
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.InDelta(t, 0.12, recs[0].Score, 1e-9)
}

func TestRecommend_ZeroCapacityStillRanked(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := []NormalizedResource{
		{ID: "RES_AGG_0", Name: "Empty", Capacity: 0},
		{ID: "RES_AGG_1", Name: "Small", Capacity: 100},
	}

	recs, err := r.Recommend(testCrisis(1, "", time.Hour), resources)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "RES_AGG_1", recs[0].ResourceID)
	assert.Equal(t, "RES_AGG_0", recs[1].ResourceID)
	assert.Zero(t, recs[1].Score)
}

func TestRecommend_TiesKeepInputOrder(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := []NormalizedResource{
		{ID: "a", Capacity: 5000},
		{ID: "b", Capacity: 5000},
		{ID: "c", Capacity: 5000},
		{ID: "d", Capacity: 5000},
	}

	recs, err := r.Recommend(testCrisis(2, "", time.Hour), resources)
	require.NoError(t, err)

	ids := []string{recs[0].ResourceID, recs[1].ResourceID, recs[2].ResourceID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRecommend_Deterministic(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	r := NewRecommender(clock)
	crisis := testCrisis(4, "moderate", 8*time.Hour)

	first, err := r.Recommend(crisis, testResources())
	require.NoError(t, err)
	second, err := r.Recommend(crisis, testResources())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recommendations differ between runs (-first +second):\n%s", diff)
	}
}

func TestRecommend_DoesNotMutateInputs(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))
	resources := testResources()
	before := testResources()

	_, err := r.Recommend(testCrisis(3, "high", time.Hour), resources)
	require.NoError(t, err)

	if diff := cmp.Diff(before, resources); diff != "" {
		t.Errorf("resources mutated (-before +after):\n%s", diff)
	}
}

func TestRecommend_FreshnessFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	r := NewRecommender(clock)
	crisis := testCrisis(2, "", 0)
	resources := []NormalizedResource{{ID: "RES_AGG_0", Capacity: 10000}}

	fresh, err := r.Recommend(crisis, resources)
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	stale, err := r.Recommend(crisis, resources)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, fresh[0].Score, 1e-9)
	assert.InDelta(t, 1.0, stale[0].Score, 1e-9)
}

func TestRecommend_UndatedCrisis(t *testing.T) {
	r := NewRecommender(clockwork.NewFakeClockAt(testNow))

	_, err := r.Recommend(NormalizedCrisis{ID: "x", UrgencyScore: 3}, testResources())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndatedCrisis))
}
