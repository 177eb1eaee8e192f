package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	unknownLocation   = "Unknown"
	defaultSummary    = "No details provided."
	facilitySource    = "Health Dept Live"
	facilityTitleStem = "Hospital Bed Availability"
)

// Per-shape defaults applied when a bulletin omits a field.
var shapeDefaults = map[Shape]struct {
	source   string
	severity string
}{
	ShapeBulletinA: {source: "Satellite Feed", severity: "Unknown"},
	ShapeBulletinB: {source: "Met Dept", severity: "Moderate"},
}

// Normalizer converts raw records into the canonical crisis and resource model.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	catalog TitleCatalog
	clock   clockwork.Clock
}

// NewNormalizer creates a Normalizer. The clock stamps supplementary records
// that carry no report time; pass nil for the real clock.
func NewNormalizer(catalog TitleCatalog, clock clockwork.Clock) *Normalizer {
	return &Normalizer{catalog: catalog, clock: clockOrReal(clock)}
}

// NormalizeCrises normalizes every record it can and reports the rest as
// skipped. The result is ordered by urgency, highest first, keeping encounter
// order among equal urgencies.
func (n *Normalizer) NormalizeCrises(records []RawRecord) CrisisBatch {
	batch := CrisisBatch{Crises: make([]NormalizedCrisis, 0, len(records))}
	for _, rec := range records {
		crisis, err := n.NormalizeCrisis(rec)
		if err != nil {
			batch.Skipped = append(batch.Skipped, skipped(rec, err))
			continue
		}
		batch.Crises = append(batch.Crises, crisis)
	}

	sort.SliceStable(batch.Crises, func(i, j int) bool {
		return batch.Crises[i].UrgencyScore > batch.Crises[j].UrgencyScore
	})
	return batch
}

// NormalizeCrisis normalizes a single bulletin or facility-status record.
func (n *Normalizer) NormalizeCrisis(rec RawRecord) (NormalizedCrisis, error) {
	switch rec.Shape {
	case ShapeBulletinA, ShapeBulletinB:
		return n.normalizeBulletin(rec)
	case ShapeFacilityStatus:
		return n.normalizeFacility(rec)
	default:
		return NormalizedCrisis{}, fmt.Errorf("unsupported record shape %q", rec.Shape)
	}
}

func (n *Normalizer) normalizeBulletin(rec RawRecord) (NormalizedCrisis, error) {
	var b RawBulletin
	if err := json.Unmarshal(rec.Payload, &b); err != nil {
		return NormalizedCrisis{}, fmt.Errorf("decode bulletin: %w", err)
	}

	id := strings.TrimSpace(b.ID)
	if id == "" {
		return NormalizedCrisis{}, errors.New("missing id")
	}

	reportedAt, err := parseReportedAt(b.ReportedAt)
	if err != nil {
		return NormalizedCrisis{}, err
	}

	urgency := 1
	if b.Urgency != nil {
		if urgency, err = wholeNumber(*b.Urgency); err != nil {
			return NormalizedCrisis{}, fmt.Errorf("urgency: %w", err)
		}
	}
	if urgency < 1 || urgency > 5 {
		return NormalizedCrisis{}, fmt.Errorf("urgency %d outside 1-5", urgency)
	}

	defaults := shapeDefaults[rec.Shape]

	var locations []string
	if rec.Shape == ShapeBulletinA {
		locations = cleanLocations(b.Locations)
	} else {
		locations = cleanLocations(b.RegionsCovered)
		if len(locations) == 0 {
			locations = cleanLocations([]string{b.PrimaryFocusArea})
		}
	}
	if len(locations) == 0 {
		locations = []string{unknownLocation}
	}

	rawSeverity := strings.TrimSpace(b.SeverityLevel)
	if rawSeverity == "" {
		rawSeverity = defaults.severity
	}

	return NormalizedCrisis{
		ID:           id,
		Title:        fmt.Sprintf("%s - %s", n.catalog.Label(rec.Shape, b.Type), locations[0]),
		Source:       firstNonEmpty(b.Source, defaults.source),
		Timestamp:    reportedAt,
		Locations:    locations,
		UrgencyScore: urgency,
		Severity:     ClassifySeverity(rawSeverity, urgency),
		RawSeverity:  rawSeverity,
		Confidence:   CoerceConfidence(b.Confidence),
		Summary:      bulletinSummary(rec.Shape, b),
		RawDataType:  rec.Shape,
	}, nil
}

func (n *Normalizer) normalizeFacility(rec RawRecord) (NormalizedCrisis, error) {
	var f RawFacilityStatus
	if err := json.Unmarshal(rec.Payload, &f); err != nil {
		return NormalizedCrisis{}, fmt.Errorf("decode facility status: %w", err)
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return NormalizedCrisis{}, errors.New("missing name")
	}
	if f.ICU == nil {
		return NormalizedCrisis{}, errors.New("missing icu")
	}
	if *f.ICU < 0 || f.Oxygen < 0 || f.Ventilator < 0 {
		return NormalizedCrisis{}, errors.New("negative bed count")
	}

	timestamp := n.clock.Now()
	if strings.TrimSpace(f.ReportedAt) != "" {
		parsed, err := parseReportedAt(f.ReportedAt)
		if err != nil {
			return NormalizedCrisis{}, err
		}
		timestamp = parsed
	}

	urgency, rawSeverity := FacilityUrgency(*f.ICU)
	location := firstNonEmpty(f.Location, unknownLocation)

	return NormalizedCrisis{
		ID:           "hosp_" + strings.ReplaceAll(name, " ", "_"),
		Title:        fmt.Sprintf("%s - %s", facilityTitleStem, name),
		Source:       facilitySource,
		Timestamp:    timestamp,
		Locations:    []string{location},
		UrgencyScore: urgency,
		Severity:     ClassifySeverity(rawSeverity, urgency),
		RawSeverity:  rawSeverity,
		Confidence:   ConfidenceHigh,
		Summary:      facilitySummary(rawSeverity, *f.ICU, f.Oxygen, f.Ventilator),
		RawDataType:  ShapeFacilityStatus,
	}, nil
}

// FacilityUrgency maps free ICU beds to an urgency score and raw severity:
// none free is critical, up to five is a warning, more is stable.
func FacilityUrgency(icuFree int) (int, string) {
	switch {
	case icuFree == 0:
		return 5, "CRITICAL"
	case icuFree <= 5:
		return 4, "WARNING"
	default:
		return 2, "STABLE"
	}
}

// ClassifySeverity places a bulletin into exactly one severity category.
// Text and urgency are checked together at each level, most severe first.
func ClassifySeverity(raw string, urgency int) Severity {
	text := strings.ToLower(raw)
	switch {
	case strings.Contains(text, "critical") || urgency >= 5:
		return SeverityCritical
	case strings.Contains(text, "warning") || strings.Contains(text, "high") || urgency >= 4:
		return SeverityWarning
	default:
		return SeverityLow
	}
}

// CoerceConfidence lower-cases a raw confidence label. Anything outside the
// known set becomes medium.
func CoerceConfidence(raw string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(raw))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceMedium
	}
}

// NormalizeResources normalizes resource breakdown records, skipping the
// malformed ones.
func (n *Normalizer) NormalizeResources(records []RawRecord) ResourceBatch {
	batch := ResourceBatch{Resources: make([]NormalizedResource, 0, len(records))}
	for _, rec := range records {
		res, err := NormalizeResource(rec)
		if err != nil {
			batch.Skipped = append(batch.Skipped, skipped(rec, err))
			continue
		}
		batch.Resources = append(batch.Resources, res)
	}
	return batch
}

// NormalizeResource converts one category breakdown. The id is derived from
// the record's position in its wrapper since the source has no natural key.
func NormalizeResource(rec RawRecord) (NormalizedResource, error) {
	var item RawResourceItem
	if err := json.Unmarshal(rec.Payload, &item); err != nil {
		return NormalizedResource{}, fmt.Errorf("decode resource: %w", err)
	}

	name := strings.TrimSpace(item.Category)
	if name == "" {
		return NormalizedResource{}, errors.New("missing category")
	}
	if item.GrandTotal == nil {
		return NormalizedResource{}, errors.New("missing grand_total")
	}
	if *item.GrandTotal < 0 {
		return NormalizedResource{}, fmt.Errorf("negative grand_total %d", *item.GrandTotal)
	}

	return NormalizedResource{
		ID:       fmt.Sprintf("RES_AGG_%d", rec.Index),
		Name:     name,
		Capacity: *item.GrandTotal,
		Details: Details{
			{Code: "DME", Count: item.DME},
			{Code: "DM_RHS", Count: item.DMRHS},
			{Code: "DPH", Count: item.DPH},
			{Code: "DIR_ESI", Count: item.DIRESI},
		},
	}, nil
}

// naiveLayouts are the ISO-8601 forms accepted without a UTC offset. Such
// timestamps are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseReportedAt accepts RFC 3339 timestamps, including a trailing "Z" and a
// space instead of "T". Timestamps without an offset are taken as UTC so every
// result is zone-aware.
func parseReportedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("missing reported_at")
	}
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if naive, naiveErr := time.ParseInLocation(layout, value, time.UTC); naiveErr == nil {
			return naive, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse reported_at %q: %w", value, err)
}

// wholeNumber accepts integral JSON numbers written either way, so 4 and 4.0
// are both 4.
func wholeNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", n.String())
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not a whole number", n.String())
	}
	return int(f), nil
}

func bulletinSummary(shape Shape, b RawBulletin) string {
	if shape == ShapeBulletinA {
		return firstNonEmpty(b.Description, b.Summary, defaultSummary)
	}
	return firstNonEmpty(b.Summary, defaultSummary)
}

func facilitySummary(rawSeverity string, icu, oxygen, ventilator int) string {
	advice := "Limit referrals to this facility."
	if rawSeverity == "STABLE" {
		advice = "Facility can absorb referrals."
	}
	return fmt.Sprintf(
		"Critical care capacity is %s.\nICU beds: %d | Oxygen beds: %d | Ventilators: %d\n%s",
		strings.ToLower(rawSeverity), icu, oxygen, ventilator, advice,
	)
}

func cleanLocations(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// skipped builds a SkippedRecord, recovering the record id when the payload
// is at least an object with an "id" field.
func skipped(rec RawRecord, err error) SkippedRecord {
	var probe struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rec.Payload, &probe)
	return SkippedRecord{
		Feed:   rec.Feed,
		Index:  rec.Index,
		ID:     strings.TrimSpace(probe.ID),
		Reason: err.Error(),
	}
}
