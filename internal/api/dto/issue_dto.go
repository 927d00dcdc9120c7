package dto

import (
	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// CreateIssueRequest is a resident's submission. Category is optional; when
// omitted the classifier supplies a suggestion.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.Category      `json:"category,omitempty"`
	Priority    domain.IssuePriority `json:"priority,omitempty"`
	Location    string               `json:"location"`
	Latitude    *float64             `json:"latitude,omitempty"`
	Longitude   *float64             `json:"longitude,omitempty"`
	PhotoRef    *string              `json:"photoRef,omitempty"`
}

// UpdateStatusRequest moves an issue through the workflow.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
	Note   string             `json:"note,omitempty"`
}

// AssignRequest routes an issue to a department employee.
type AssignRequest struct {
	Department domain.Category `json:"department"`
	EmployeeID string          `json:"employeeId"`
}

// RejectResolutionRequest reopens a resolved issue with mandatory feedback.
type RejectResolutionRequest struct {
	Feedback string `json:"feedback"`
}

// StaffNotesRequest updates internal notes.
type StaffNotesRequest struct {
	Notes string `json:"notes"`
}

// IssueListResponse wraps a page of issues.
type IssueListResponse struct {
	Issues []domain.Issue `json:"issues"`
	Count  int            `json:"count"`
}

// EmployeeResponse is the public view of an employee.
type EmployeeResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Department domain.Category `json:"department"`
}
