// Package app wires configuration into the pipeline and audit log shared by
// the service and the command-line tool.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/crisis-triage-service/internal/adapter/auditlog"
	"github.com/couchcryptid/crisis-triage-service/internal/adapter/kafka"
	"github.com/couchcryptid/crisis-triage-service/internal/adapter/mapbox"
	"github.com/couchcryptid/crisis-triage-service/internal/config"
	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/observability"
	"github.com/couchcryptid/crisis-triage-service/internal/pipeline"
	"github.com/couchcryptid/crisis-triage-service/internal/source"
	"github.com/jonboulle/clockwork"
)

// Sources returns the crisis feeds and the resource feed for cfg.
func Sources(cfg *config.Config, logger *slog.Logger) ([]pipeline.Source, pipeline.Source) {
	var crisisSources []pipeline.Source
	for _, s := range source.DefaultBulletinSources(cfg.DataDir, logger) {
		crisisSources = append(crisisSources, s)
	}
	if cfg.FacilityFixtureEnabled {
		crisisSources = append(crisisSources, source.NewFacilityFixtureSource())
	}

	resources := source.NewFileResourceSource(filepath.Join(cfg.DataDir, source.ResourceFile), logger)
	return crisisSources, resources
}

// Geocoder returns the cached Mapbox geocoder, or nil when geocoding is disabled.
func Geocoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (domain.Geocoder, error) {
	if !cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
		return nil, nil
	}

	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxMinInterval, metrics, logger)
	cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	if err != nil {
		return nil, err
	}

	metrics.GeocodeEnabled.Set(1)
	logger.Info("mapbox geocoding enabled",
		"cache_size", cfg.MapboxCacheSize,
		"timeout", cfg.MapboxTimeout,
		"min_interval", cfg.MapboxMinInterval,
	)
	return cached, nil
}

// NewPipeline builds the snapshot pipeline described by cfg. A nil clock uses
// the real clock.
func NewPipeline(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, error) {
	catalog, err := domain.LoadTitleCatalog(cfg.TitleCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load title catalog: %w", err)
	}
	if cfg.TitleCatalogPath != "" {
		logger.Info("title catalog loaded", "path", cfg.TitleCatalogPath, "labels", catalog.Len())
	}

	geocoder, err := Geocoder(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	crisisSources, resources := Sources(cfg, logger)
	return pipeline.New(
		crisisSources,
		resources,
		domain.NewNormalizer(catalog, clock),
		domain.NewRecommender(clock),
		pipeline.NewEnricher(geocoder, logger),
		logger,
		metrics,
	), nil
}

// AuditLog returns the Kafka audit writer when brokers are configured and the
// log-backed audit sink otherwise. The returned close function is never nil.
func AuditLog(cfg *config.Config, logger *slog.Logger) (domain.AuditLog, func() error) {
	if cfg.AuditToKafka() {
		writer := kafka.NewAuditWriter(cfg, logger)
		logger.Info("audit log publishing to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAuditTopic)
		return writer, writer.Close
	}
	logger.Info("audit log writing to service log")
	return auditlog.New(logger), func() error { return nil }
}
