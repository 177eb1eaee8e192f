package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Shape identifies which raw layout a record follows. It doubles as the
// raw_data_type audit tag on normalized crises.
type Shape string

const (
	ShapeBulletinA      Shape = "disaster_a"
	ShapeBulletinB      Shape = "disaster_b"
	ShapeFacilityStatus Shape = "hospital_status"
	ShapeResourceItem   Shape = "resource_aggregate"
)

// Severity is the normalized crisis severity category.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// Confidence is a reliability label. On crises it describes the reporting
// source; on recommendations it combines source confidence and data freshness.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RawRecord is one unparsed record as delivered by a source. Records are
// decoded individually so a corrupt entry only costs itself.
type RawRecord struct {
	Feed    string
	Shape   Shape
	Index   int
	Payload json.RawMessage
}

// RawBulletin covers both bulletin shapes. Shape A lists areas in Locations,
// shape B in RegionsCovered (with PrimaryFocusArea as a fallback).
type RawBulletin struct {
	ID               string       `json:"id"`
	Type             string       `json:"type"`
	Source           string       `json:"source"`
	ReportedAt       string       `json:"reported_at"`
	ValidTill        string       `json:"valid_till"`
	Locations        []string     `json:"locations"`
	RegionsCovered   []string     `json:"regions_covered"`
	PrimaryFocusArea string       `json:"primary_focus_area"`
	Urgency          *json.Number `json:"urgency"`
	SeverityLevel    string       `json:"severity_level"`
	Confidence       string       `json:"confidence"`
	Summary          string       `json:"summary"`
	Description      string       `json:"description"`
}

// RawFacilityStatus is a supplementary facility bed-availability record.
type RawFacilityStatus struct {
	Name       string `json:"name"`
	ICU        *int   `json:"icu"`
	Oxygen     int    `json:"oxygen"`
	Ventilator int    `json:"ventilator"`
	Location   string `json:"location"`
	ReportedAt string `json:"reported_at,omitempty"`
}

// RawResourceItem is one category breakdown inside the hospital resource
// aggregate wrapper.
type RawResourceItem struct {
	Category   string `json:"category"`
	DME        int    `json:"DME"`
	DMRHS      int    `json:"DM_RHS"`
	DPH        int    `json:"DPH"`
	DIRESI     int    `json:"DIR_ESI"`
	GrandTotal *int   `json:"grand_total"`
}

// RawResourceAggregate is the on-disk wrapper for resource breakdowns.
type RawResourceAggregate struct {
	Resources []json.RawMessage `json:"resources"`
}

// Geo is a WGS-84 coordinate pair attached by geocoding enrichment.
type Geo struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PlaceName string  `json:"place_name,omitempty"`
}

// NormalizedCrisis is the canonical incident record.
type NormalizedCrisis struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Source       string     `json:"source"`
	Timestamp    time.Time  `json:"timestamp"`
	Locations    []string   `json:"locations"`
	UrgencyScore int        `json:"urgency_score"`
	Severity     Severity   `json:"severity"`
	RawSeverity  string     `json:"raw_severity"`
	Confidence   Confidence `json:"confidence"`
	Summary      string     `json:"summary"`
	RawDataType  Shape      `json:"raw_data_type"`
	Geo          *Geo       `json:"geo,omitempty"`
}

// Detail is one sub-category count of a resource breakdown.
type Detail struct {
	Code  string
	Count int
}

// Details is an ordered breakdown. It encodes as a JSON object whose keys
// keep insertion order so justification text renders the same every time.
type Details []Detail

// MarshalJSON writes the breakdown as an object in slice order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Code)
		if err != nil {
			return nil, fmt.Errorf("encode detail code: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the count for code and whether it was present.
func (d Details) Get(code string) (int, bool) {
	for _, entry := range d {
		if entry.Code == code {
			return entry.Count, true
		}
	}
	return 0, false
}

// NormalizedResource is the canonical capacity record. Capacity is an
// aggregate grand total, not real-time availability.
type NormalizedResource struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Details  Details `json:"details"`
}

// ResourceRecommendation is one scored (crisis, resource) pair.
type ResourceRecommendation struct {
	ResourceID   string     `json:"resource_id"`
	ResourceName string     `json:"resource_name"`
	Score        float64    `json:"score"`
	Confidence   Confidence `json:"confidence"`
	Reasoning    []string   `json:"reasoning"`
	Details      Details    `json:"details"`
}

// SkippedRecord explains why a raw record did not make it into a batch.
type SkippedRecord struct {
	Feed   string `json:"feed"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// CrisisBatch is the outcome of normalizing a set of crisis records.
type CrisisBatch struct {
	Crises  []NormalizedCrisis
	Skipped []SkippedRecord
}

// ResourceBatch is the outcome of normalizing a set of resource records.
type ResourceBatch struct {
	Resources []NormalizedResource
	Skipped   []SkippedRecord
}
