package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/config"
	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessageWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockMessageWriter) Close() error {
	m.closed = true
	return nil
}

func newTestWriter(mw *mockMessageWriter) *AuditWriter {
	return &AuditWriter{writer: mw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 7, 14, 17, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	d := domain.Decision{
		ID:         "dec-1",
		CrisisID:   "FFG-1",
		ResourceID: "RES_AGG_0",
		Action:     domain.ActionApprove,
		DecidedAt:  now,
	}

	msg, err := serializeToMessage(KindDecision, d.CrisisID, d.DecidedAt, d)
	require.NoError(t, err)

	assert.Equal(t, []byte("FFG-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"action":"approve"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("decision"), msg.Headers[0].Value)
	assert.Equal(t, "recorded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-07-14T12:00:00Z"), msg.Headers[1].Value)
}

func TestSerializeToMessage_Unencodable(t *testing.T) {
	_, err := serializeToMessage(KindReport, "k", time.Now(), make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialize report")
}

func TestAuditWriter_RecordDecision(t *testing.T) {
	mw := &mockMessageWriter{}
	w := newTestWriter(mw)

	err := w.RecordDecision(context.Background(), domain.Decision{ID: "dec-1", CrisisID: "FFG-1", ResourceID: "RES_AGG_0", Action: "reject"})
	require.NoError(t, err)

	require.Len(t, mw.msgs, 1)
	assert.Equal(t, []byte("FFG-1"), mw.msgs[0].Key)
}

func TestAuditWriter_RecordReport(t *testing.T) {
	mw := &mockMessageWriter{}
	w := newTestWriter(mw)

	err := w.RecordReport(context.Background(), domain.ManualReport{ID: "rep-1", Title: "Bridge", Status: domain.ReportStatusAwaitingVerification})
	require.NoError(t, err)

	require.Len(t, mw.msgs, 1)
	assert.Equal(t, []byte("rep-1"), mw.msgs[0].Key)
	assert.Equal(t, []byte("report"), mw.msgs[0].Headers[0].Value)
	assert.Contains(t, string(mw.msgs[0].Value), `"status":"awaiting_verification"`)
}

func TestAuditWriter_PublishError(t *testing.T) {
	w := newTestWriter(&mockMessageWriter{err: errors.New("leader not available")})

	err := w.RecordDecision(context.Background(), domain.Decision{ID: "dec-9", CrisisID: "FFG-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish decision dec-9")
}

func TestAuditWriter_Close(t *testing.T) {
	mw := &mockMessageWriter{}
	require.NoError(t, newTestWriter(mw).Close())
	assert.True(t, mw.closed)
}

func TestNewAuditWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker:9092"}, KafkaAuditTopic: "audit"}
	w := NewAuditWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "audit", kw.Topic)
	assert.Equal(t, "broker:9092", kw.Addr.String())
}
