package events

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated        EventType = "issue_created"
	EventIssueStatusChanged  EventType = "issue_status_changed"
	EventIssueAssigned       EventType = "issue_assigned"
	EventResolutionConfirmed EventType = "resolution_confirmed"
	EventResolutionRejected  EventType = "resolution_rejected"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   string             `json:"id"`
	Name string             `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category   domain.Category      `json:"category"`
	Priority   domain.IssuePriority `json:"priority"`
	Title      string               `json:"title"`
	Classified bool                 `json:"classified"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Note      string             `json:"note,omitempty"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	Department   domain.Category `json:"department"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
}

// ResolutionConfirmedPayload payload.
type ResolutionConfirmedPayload struct {
	ResidentName string `json:"resident_name"`
}

// ResolutionRejectedPayload payload.
type ResolutionRejectedPayload struct {
	ResidentName string `json:"resident_name"`
	Feedback     string `json:"feedback"`
}
