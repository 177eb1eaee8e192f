package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(buf *bytes.Buffer) *Logger {
	return New(slog.New(slog.NewJSONHandler(buf, nil)))
}

func TestLogger_RecordDecision(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	err := l.RecordDecision(context.Background(), domain.Decision{
		ID:         "dec-1",
		CrisisID:   "FFG-1",
		ResourceID: "RES_AGG_0",
		Action:     domain.ActionApprove,
		Comment:    "dispatch now",
		DecidedAt:  time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "human decision", entry["msg"])
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "FFG-1", entry["crisis_id"])
	assert.Equal(t, "approve", entry["action"])
	assert.Equal(t, "2025-07-14T12:00:00Z", entry["decided_at"])
}

func TestLogger_RecordReport(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	err := l.RecordReport(context.Background(), domain.ManualReport{
		ID:       "rep-1",
		Title:    "Bridge washed out",
		Location: "Nalbari",
		Type:     "flood",
		Severity: 4,
		Status:   domain.ReportStatusAwaitingVerification,
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "manual report received", entry["msg"])
	assert.Equal(t, "awaiting_verification", entry["status"])
	assert.EqualValues(t, 4, entry["severity"])
}

func TestLogger_ImplementsAuditLog(t *testing.T) {
	var _ domain.AuditLog = New(slog.Default())
}
