// Package auditlog records operator activity as structured log lines. It is
// the audit sink used when no Kafka brokers are configured.
package auditlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
)

// Logger implements domain.AuditLog on top of slog.
type Logger struct {
	logger *slog.Logger
}

// New creates an audit Logger writing through logger.
func New(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With("component", "audit")}
}

func (l *Logger) RecordDecision(ctx context.Context, d domain.Decision) error {
	l.logger.InfoContext(ctx, "human decision",
		"decision_id", d.ID,
		"crisis_id", d.CrisisID,
		"resource_id", d.ResourceID,
		"action", d.Action,
		"comment", d.Comment,
		"decided_at", d.DecidedAt.Format(time.RFC3339),
	)
	return nil
}

func (l *Logger) RecordReport(ctx context.Context, r domain.ManualReport) error {
	l.logger.InfoContext(ctx, "manual report received",
		"report_id", r.ID,
		"title", r.Title,
		"location", r.Location,
		"type", r.Type,
		"severity", r.Severity,
		"status", r.Status,
		"received_at", r.ReceivedAt.Format(time.RFC3339),
	)
	return nil
}
