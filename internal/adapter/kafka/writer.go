package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/config"
	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Audit entry kinds, carried in the "kind" message header.
const (
	KindDecision = "decision"
	KindReport   = "report"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AuditWriter publishes operator decisions and manual reports to an
// append-only Kafka topic. It implements domain.AuditLog.
type AuditWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewAuditWriter creates a Kafka producer for the configured audit topic.
func NewAuditWriter(cfg *config.Config, logger *slog.Logger) *AuditWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaAuditTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &AuditWriter{writer: w, logger: logger}
}

// RecordDecision publishes a decision keyed by crisis id, so all decisions
// for one crisis land on the same partition in order.
func (w *AuditWriter) RecordDecision(ctx context.Context, d domain.Decision) error {
	msg, err := serializeToMessage(KindDecision, d.CrisisID, d.DecidedAt, d)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish decision %s: %w", d.ID, err)
	}
	w.logger.Info("decision recorded",
		"decision_id", d.ID,
		"crisis_id", d.CrisisID,
		"resource_id", d.ResourceID,
		"action", d.Action,
	)
	return nil
}

// RecordReport publishes a manual report keyed by its own id.
func (w *AuditWriter) RecordReport(ctx context.Context, r domain.ManualReport) error {
	msg, err := serializeToMessage(KindReport, r.ID, r.ReceivedAt, r)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report %s: %w", r.ID, err)
	}
	w.logger.Info("manual report recorded",
		"report_id", r.ID,
		"type", r.Type,
		"severity", r.Severity,
		"status", r.Status,
	)
	return nil
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an audit entry into a Kafka message.
func serializeToMessage(kind, key string, recordedAt time.Time, entry any) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s: %w", kind, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
			{Key: "recorded_at", Value: []byte(recordedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
