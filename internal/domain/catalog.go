package domain

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

var defaultTypeLabels = map[string]string{
	"flash_flood_guidance":    "Flash Flood Risk",
	"regional_flood_bulletin": "Regional Flood Alert",
	"heavy_rainfall_warning":  "Heavy Rainfall Warning",
	"cyclone_alert":           "Cyclone Alert",
	"storm_surge_warning":     "Storm Surge Warning",
	"earthquake_report":       "Earthquake Impact",
	"landslide_warning":       "Landslide Risk",
	"heatwave_advisory":       "Heatwave Advisory",
	"wildfire_alert":          "Wildfire Alert",
}

var defaultFallbacks = map[Shape]string{
	ShapeBulletinA: "Incident Report",
	ShapeBulletinB: "Regional Monitoring",
}

// TitleCatalog maps raw bulletin type codes to human-readable labels.
// Codes are matched case-insensitively; unknown codes use a per-shape fallback.
type TitleCatalog struct {
	labels    map[string]string
	fallbacks map[Shape]string
}

// catalogFile is the YAML layout accepted by LoadTitleCatalog.
//
//	labels:
//	  flash_flood_guidance: Flash Flood Risk
//	fallbacks:
//	  disaster_a: Incident Report
type catalogFile struct {
	Labels    map[string]string `yaml:"labels"`
	Fallbacks map[string]string `yaml:"fallbacks"`
}

// DefaultTitleCatalog returns the built-in type labels.
func DefaultTitleCatalog() TitleCatalog {
	return TitleCatalog{
		labels:    maps.Clone(defaultTypeLabels),
		fallbacks: maps.Clone(defaultFallbacks),
	}
}

// LoadTitleCatalog reads a YAML catalog and merges it over the defaults.
// An empty path returns the defaults unchanged.
func LoadTitleCatalog(path string) (TitleCatalog, error) {
	catalog := DefaultTitleCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return TitleCatalog{}, fmt.Errorf("read title catalog: %w", err)
	}
	return catalog.mergeYAML(data)
}

func (c TitleCatalog) mergeYAML(data []byte) (TitleCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return TitleCatalog{}, fmt.Errorf("parse title catalog: %w", err)
	}

	merged := c.WithLabels(file.Labels)
	for shape, label := range file.Fallbacks {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		merged.fallbacks[Shape(strings.ToLower(strings.TrimSpace(shape)))] = label
	}
	return merged, nil
}

// WithLabels returns a copy of the catalog with labels added or replaced.
func (c TitleCatalog) WithLabels(labels map[string]string) TitleCatalog {
	out := TitleCatalog{
		labels:    maps.Clone(c.labels),
		fallbacks: maps.Clone(c.fallbacks),
	}
	if out.labels == nil {
		out.labels = make(map[string]string, len(labels))
	}
	if out.fallbacks == nil {
		out.fallbacks = make(map[Shape]string)
	}
	for code, label := range labels {
		code = normalizeTypeCode(code)
		label = strings.TrimSpace(label)
		if code == "" || label == "" {
			continue
		}
		out.labels[code] = label
	}
	return out
}

// Label resolves a type code for the given shape.
func (c TitleCatalog) Label(shape Shape, code string) string {
	if label, ok := c.labels[normalizeTypeCode(code)]; ok {
		return label
	}
	if fallback, ok := c.fallbacks[shape]; ok {
		return fallback
	}
	return "Incident Report"
}

// Len reports how many type codes the catalog knows.
func (c TitleCatalog) Len() int {
	return len(c.labels)
}

func normalizeTypeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
