package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/observability"
)

// ErrCrisisNotFound is returned when a crisis id is not in the current snapshot.
var ErrCrisisNotFound = errors.New("crisis not found")

// Source yields raw records for one feed.
type Source interface {
	Name() string
	Records(ctx context.Context) ([]domain.RawRecord, error)
}

// Pipeline rebuilds the crisis and resource snapshot from its sources on
// every call and serves lookups and recommendations from it. Apart from the
// readiness flag it holds no state between calls.
type Pipeline struct {
	crisisSources []Source
	resources     Source
	normalizer    *domain.Normalizer
	recommender   *domain.Recommender
	enricher      *Enricher
	logger        *slog.Logger
	metrics       *observability.Metrics
	ready         atomic.Bool
}

// New creates a Pipeline. crisisSources are read in order; their records are
// normalized together so urgency ordering spans all feeds.
func New(
	crisisSources []Source,
	resources Source,
	normalizer *domain.Normalizer,
	recommender *domain.Recommender,
	enricher *Enricher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		crisisSources: crisisSources,
		resources:     resources,
		normalizer:    normalizer,
		recommender:   recommender,
		enricher:      enricher,
		logger:        logger,
		metrics:       metrics,
	}
}

// FeedReport summarizes one feed of a snapshot.
type FeedReport struct {
	Feed       string                 `json:"feed"`
	Records    int                    `json:"records"`
	Normalized int                    `json:"normalized"`
	Skipped    []domain.SkippedRecord `json:"skipped,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// OK reports whether the feed was readable and every record normalized.
func (f FeedReport) OK() bool {
	return f.Error == "" && len(f.Skipped) == 0
}

// Report is the full outcome of one snapshot, including what was dropped.
type Report struct {
	Crises    []domain.NormalizedCrisis   `json:"crises"`
	Resources []domain.NormalizedResource `json:"resources"`
	Feeds     []FeedReport                `json:"feeds"`
}

// CheckReadiness returns nil once a snapshot has been built at least once.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no snapshot has been built yet")
	}
	return nil
}

// Crises returns the normalized crises, highest urgency first, enriched with
// coordinates when a geocoder is configured.
func (p *Pipeline) Crises(ctx context.Context) ([]domain.NormalizedCrisis, error) {
	crises, _, err := p.buildCrises(ctx)
	if err != nil {
		return nil, err
	}
	return p.enricher.Enrich(ctx, crises), nil
}

// Resources returns the normalized resources in source order.
func (p *Pipeline) Resources(ctx context.Context) ([]domain.NormalizedResource, error) {
	resources, _, err := p.buildResources(ctx)
	return resources, err
}

// Crisis returns the crisis with the given id.
func (p *Pipeline) Crisis(ctx context.Context, id string) (domain.NormalizedCrisis, error) {
	crises, _, err := p.buildCrises(ctx)
	if err != nil {
		return domain.NormalizedCrisis{}, err
	}
	return findCrisis(crises, id)
}

// Recommend ranks the current resources against the crisis with the given id.
func (p *Pipeline) Recommend(ctx context.Context, crisisID string) ([]domain.ResourceRecommendation, error) {
	crisis, err := p.Crisis(ctx, crisisID)
	if err != nil {
		reason := "source"
		if errors.Is(err, ErrCrisisNotFound) {
			reason = "not_found"
		}
		p.metrics.RecommendationErrors.WithLabelValues(reason).Inc()
		return nil, err
	}

	resources, err := p.Resources(ctx)
	if err != nil {
		p.metrics.RecommendationErrors.WithLabelValues("source").Inc()
		return nil, err
	}

	recs, err := p.recommender.Recommend(crisis, resources)
	if err != nil {
		reason := "rules"
		if errors.Is(err, domain.ErrUndatedCrisis) {
			reason = "undated"
		}
		p.metrics.RecommendationErrors.WithLabelValues(reason).Inc()
		return nil, err
	}

	p.metrics.Recommendations.Inc()
	p.logger.Debug("recommendations built",
		"crisis_id", crisis.ID,
		"candidates", len(resources),
		"returned", len(recs),
	)
	return recs, nil
}

// Report builds a full snapshot and returns it with per-feed accounting.
func (p *Pipeline) Report(ctx context.Context) (Report, error) {
	crises, crisisFeeds, err := p.buildCrises(ctx)
	if err != nil {
		return Report{}, err
	}
	resources, resourceFeed, err := p.buildResources(ctx)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Crises:    crises,
		Resources: resources,
		Feeds:     append(crisisFeeds, resourceFeed),
	}, nil
}

func (p *Pipeline) buildCrises(ctx context.Context) ([]domain.NormalizedCrisis, []FeedReport, error) {
	start := time.Now()

	var records []domain.RawRecord
	feeds := make([]FeedReport, 0, len(p.crisisSources))
	for _, src := range p.crisisSources {
		recs, report, err := p.read(ctx, src)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, recs...)
		feeds = append(feeds, report)
	}

	batch := p.normalizer.NormalizeCrises(records)
	p.account(feeds, batch.Skipped)

	p.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return batch.Crises, feeds, nil
}

func (p *Pipeline) buildResources(ctx context.Context) ([]domain.NormalizedResource, FeedReport, error) {
	recs, report, err := p.read(ctx, p.resources)
	if err != nil {
		return nil, FeedReport{}, err
	}

	batch := p.normalizer.NormalizeResources(recs)
	feeds := []FeedReport{report}
	p.account(feeds, batch.Skipped)
	return batch.Resources, feeds[0], nil
}

// read pulls records from one source. A broken source is logged and reported
// but does not fail the snapshot; only context cancellation does.
func (p *Pipeline) read(ctx context.Context, src Source) ([]domain.RawRecord, FeedReport, error) {
	report := FeedReport{Feed: src.Name()}

	recs, err := src.Records(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, report, fmt.Errorf("read %s: %w", src.Name(), ctx.Err())
		}
		p.logger.Error("source read failed, continuing without feed", "feed", src.Name(), "error", err)
		p.metrics.SourceErrors.WithLabelValues(src.Name()).Inc()
		report.Error = err.Error()
		return nil, report, nil
	}

	report.Records = len(recs)
	return recs, report, nil
}

// account attaches skipped records to their feed reports, logs them and
// updates the per-feed counters.
func (p *Pipeline) account(feeds []FeedReport, skipped []domain.SkippedRecord) {
	byFeed := make(map[string]int, len(feeds))
	for i := range feeds {
		byFeed[feeds[i].Feed] = i
	}

	for _, s := range skipped {
		p.logger.Warn("record skipped",
			"feed", s.Feed,
			"index", s.Index,
			"id", s.ID,
			"reason", s.Reason,
		)
		p.metrics.RecordsSkipped.WithLabelValues(s.Feed).Inc()
		if i, ok := byFeed[s.Feed]; ok {
			feeds[i].Skipped = append(feeds[i].Skipped, s)
		}
	}

	for i := range feeds {
		feeds[i].Normalized = feeds[i].Records - len(feeds[i].Skipped)
		p.metrics.RecordsNormalized.WithLabelValues(feeds[i].Feed).Add(float64(feeds[i].Normalized))
	}
}

func findCrisis(crises []domain.NormalizedCrisis, id string) (domain.NormalizedCrisis, error) {
	for _, c := range crises {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.NormalizedCrisis{}, fmt.Errorf("%w: %q", ErrCrisisNotFound, id)
}
