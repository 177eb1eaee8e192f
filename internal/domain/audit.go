package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Decision actions an operator can take on a recommendation.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ReportStatusAwaitingVerification is the only status a manual report gets on
// intake. Manual reports never join the active crisis list automatically.
const ReportStatusAwaitingVerification = "awaiting_verification"

var reportTypes = map[string]bool{
	"flood": true, "earthquake": true, "fire": true,
	"medical": true, "landslide": true, "other": true,
}

// ErrInvalidAuditEntry marks a decision or report that failed validation.
var ErrInvalidAuditEntry = errors.New("invalid audit entry")

// Decision is a human-in-the-loop verdict on one recommended resource.
type Decision struct {
	ID         string    `json:"id"`
	CrisisID   string    `json:"crisis_id"`
	ResourceID string    `json:"resource_id"`
	Action     string    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// Validate checks required fields and normalizes the action.
func (d *Decision) Validate() error {
	d.CrisisID = strings.TrimSpace(d.CrisisID)
	d.ResourceID = strings.TrimSpace(d.ResourceID)
	d.Action = strings.ToLower(strings.TrimSpace(d.Action))

	switch {
	case d.CrisisID == "":
		return fmt.Errorf("%w: crisis_id is required", ErrInvalidAuditEntry)
	case d.ResourceID == "":
		return fmt.Errorf("%w: resource_id is required", ErrInvalidAuditEntry)
	case d.Action != ActionApprove && d.Action != ActionReject:
		return fmt.Errorf("%w: action must be %q or %q", ErrInvalidAuditEntry, ActionApprove, ActionReject)
	}
	return nil
}

// ManualReport is a field report submitted by an operator. It is logged for
// verification, never scored.
type ManualReport struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Location          string     `json:"location"`
	Type              string     `json:"type"`
	Severity          int        `json:"severity"`
	Description       string     `json:"description"`
	Notes             string     `json:"notes,omitempty"`
	Status            string     `json:"status"`
	Confidence        Confidence `json:"confidence"`
	EscalationAllowed bool       `json:"escalation_allowed"`
	ReceivedAt        time.Time  `json:"received_at"`
}

// Validate checks required fields and stamps the intake status.
func (r *ManualReport) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))

	switch {
	case r.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidAuditEntry)
	case r.Location == "":
		return fmt.Errorf("%w: location is required", ErrInvalidAuditEntry)
	case !reportTypes[r.Type]:
		return fmt.Errorf("%w: unknown report type %q", ErrInvalidAuditEntry, r.Type)
	case r.Severity < 1 || r.Severity > 5:
		return fmt.Errorf("%w: severity %d outside 1-5", ErrInvalidAuditEntry, r.Severity)
	}

	r.Status = ReportStatusAwaitingVerification
	r.Confidence = ConfidenceLow
	r.EscalationAllowed = false
	return nil
}

// AuditLog is an append-only sink for operator activity.
type AuditLog interface {
	RecordDecision(ctx context.Context, d Decision) error
	RecordReport(ctx context.Context, r ManualReport) error
}
