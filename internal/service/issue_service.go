package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civic-issue-service/internal/classify"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// IssueService owns the issue collection and is the only component permitted
// to mutate an issue. Writers are serialized per issue id so concurrent staff
// updates cannot lose each other's changes.
type IssueService struct {
	issues      repository.IssueRepository
	assignments *AssignmentService
	suggester   *classify.Suggester
	dispatcher  events.Dispatcher
	locks       keyedMutex
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo   repository.IssueRepository
	Assignments *AssignmentService
	Suggester   *classify.Suggester
	Dispatcher  events.Dispatcher
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:      deps.IssueRepo,
		assignments: deps.Assignments,
		suggester:   deps.Suggester,
		dispatcher:  deps.Dispatcher,
	}
}

// IssueCreateInput describes a submission. An empty Category requests a
// classifier suggestion; an explicit category skips classification entirely.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.Category
	Location    string
	Latitude    *float64
	Longitude   *float64
	PhotoRef    *string
	Priority    domain.IssuePriority
}

// IssueListFilter narrows listings for staff views.
type IssueListFilter struct {
	Statuses   []domain.IssueStatus
	Priorities []domain.IssuePriority
	Categories []domain.Category
	Department *domain.Category
	AssigneeID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// Create validates a submission and persists it with status pending and a
// seeded history entry. Classification failures never fail creation.
func (s *IssueService) Create(ctx context.Context, reporter domain.Actor, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	now := time.Now()
	issue := &domain.Issue{
		ID:           uuid.NewString(),
		ReporterID:   reporter.ID,
		ReporterName: reporter.Name,
		Title:        title,
		Description:  description,
		Category:     input.Category,
		Location:     strings.TrimSpace(input.Location),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		PhotoRef:     input.PhotoRef,
		Status:       domain.StatusPending,
		Priority:     priority,
		CreatedAt:    now,
		UpdatedAt:    now,
		StatusHistory: []domain.StatusChange{{
			Status:    domain.StatusPending,
			ChangedBy: "system",
			ChangedAt: now,
			Note:      "created",
		}},
	}

	classified := false
	if issue.Category == "" {
		// AI-assisted path: the suggestion is untrusted input and gets the
		// same membership check as a manual submission.
		suggestion := s.suggester.Suggest(ctx, title, description)
		if !suggestion.Category.Valid() {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": suggestion.Category})
		}
		issue.Category = suggestion.Category
		confidence := suggestion.Confidence
		issue.Confidence = &confidence
		issue.Keywords = suggestion.Keywords
		if suggestion.IssueType != "" {
			issueType := suggestion.IssueType
			issue.IssueType = &issueType
		}
		if suggestion.RiskLevel != "" {
			riskLevel := suggestion.RiskLevel
			issue.RiskLevel = &riskLevel
		}
		classified = true
	} else if !issue.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   eventActor(reporter),
		Payload: events.IssueCreatedPayload{
			Category:   issue.Category,
			Priority:   issue.Priority,
			Title:      issue.Title,
			Classified: classified,
		},
	})
	return issue, nil
}

// Suggest exposes the classifier for submission previews.
func (s *IssueService) Suggest(ctx context.Context, title, description string) classify.Suggestion {
	return s.suggester.Suggest(ctx, title, description)
}

// allowedTransitions is the status graph enforced by UpdateStatus. A resolved
// issue can only be reopened through RejectResolution, which guarantees an
// audit trail explaining the reopen.
var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.StatusPending:    {domain.StatusInProgress, domain.StatusResolved, domain.StatusRejected},
	domain.StatusInProgress: {domain.StatusPending, domain.StatusResolved, domain.StatusRejected},
	domain.StatusResolved:   {},
	domain.StatusRejected:   {domain.StatusPending, domain.StatusInProgress},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// UpdateStatus moves an issue through the status graph. Re-asserting the
// current status is accepted and still appends a history entry, since an
// explicit staff re-confirmation is an observable action.
func (s *IssueService) UpdateStatus(ctx context.Context, actor domain.Actor, issueID string, newStatus domain.IssueStatus, note string) (*domain.Issue, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff capability required")
	}
	unlock := s.locks.lock(issueID)
	defer unlock()

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewInvalidTransition("unknown status", map[string]any{"status": newStatus})
	}
	if newStatus != issue.Status && !isValidTransition(issue.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("cannot move issue from %s to %s", issue.Status, newStatus),
			map[string]any{"from": issue.Status, "to": newStatus},
		)
	}

	now := time.Now()
	oldStatus := issue.Status
	issue.Status = newStatus
	issue.UpdatedAt = now
	if newStatus == domain.StatusResolved && issue.ResolvedAt == nil {
		// resolvedAt is sticky: set on first resolution, never cleared.
		issue.ResolvedAt = &now
	}
	issue.StatusHistory = append(issue.StatusHistory, domain.StatusChange{
		Status:    newStatus,
		ChangedBy: actorLabel(actor),
		ChangedAt: now,
		Note:      note,
	})

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Note:      note,
		},
	})
	return issue, nil
}

// Assign routes an issue to a department and employee. Assignment does not
// change the status; callers typically follow up with UpdateStatus.
func (s *IssueService) Assign(ctx context.Context, actor domain.Actor, issueID string, department domain.Category, employeeID string) (*domain.Issue, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff capability required")
	}
	if !department.Valid() {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": department})
	}

	candidates, err := s.assignments.CandidatesFor(ctx, department)
	if err != nil {
		return nil, err
	}
	var assignee *domain.Employee
	for i := range candidates {
		if candidates[i].ID == employeeID {
			assignee = &candidates[i]
			break
		}
	}
	if assignee == nil {
		return nil, apperrors.NewInvalidAssignment(
			fmt.Sprintf("employee is not in the %s candidate pool", department),
			map[string]any{"department": department, "employee_id": employeeID},
		)
	}

	unlock := s.locks.lock(issueID)
	defer unlock()

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dept := department
	assignedBy := actorLabel(actor)
	issue.Department = &dept
	issue.AssignedEmployeeID = &assignee.ID
	issue.AssignedEmployeeName = &assignee.Name
	issue.AssignedBy = &assignedBy
	issue.UpdatedAt = now
	issue.StatusHistory = append(issue.StatusHistory, domain.StatusChange{
		Status:    issue.Status,
		ChangedBy: assignedBy,
		ChangedAt: now,
		Note:      fmt.Sprintf("assigned to %s (%s)", assignee.Name, department),
	})

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.IssueAssignedPayload{
			Department:   department,
			EmployeeID:   assignee.ID,
			EmployeeName: assignee.Name,
		},
	})
	return issue, nil
}

// ConfirmResolution records the reporting resident's acceptance of a
// resolved issue. The status stays resolved.
func (s *IssueService) ConfirmResolution(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	if actor.Type != domain.SubjectTypeResident {
		return nil, apperrors.NewForbidden("resident capability required")
	}
	unlock := s.locks.lock(issueID)
	defer unlock()

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporting resident can confirm")
	}
	if issue.Status != domain.StatusResolved {
		return nil, apperrors.NewInvalidTransition("cannot confirm a non-resolved issue",
			map[string]any{"status": issue.Status})
	}

	now := time.Now()
	issue.ResidentConfirmed = true
	issue.UpdatedAt = now
	issue.StatusHistory = append(issue.StatusHistory, domain.StatusChange{
		Status:    issue.Status,
		ChangedBy: actorLabel(actor),
		ChangedAt: now,
		Note:      "resolution confirmed by resident",
	})

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventResolutionConfirmed,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.ResolutionConfirmedPayload{ResidentName: actor.Name},
	})
	return issue, nil
}

// RejectResolution contests a resolved issue and forces it back to
// in-progress. This is the only path out of resolved; the feedback text
// becomes the audit note explaining the reopen.
func (s *IssueService) RejectResolution(ctx context.Context, actor domain.Actor, issueID, feedback string) (*domain.Issue, error) {
	if actor.Type != domain.SubjectTypeResident {
		return nil, apperrors.NewForbidden("resident capability required")
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, apperrors.NewValidationError("feedback is required to reject a resolution", nil)
	}
	unlock := s.locks.lock(issueID)
	defer unlock()

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporting resident can reject")
	}
	if issue.Status != domain.StatusResolved {
		return nil, apperrors.NewInvalidTransition("cannot reject a non-resolved issue",
			map[string]any{"status": issue.Status})
	}

	now := time.Now()
	issue.ResidentRejected = true
	issue.ResidentFeedback = &feedback
	issue.Status = domain.StatusInProgress
	issue.UpdatedAt = now
	issue.StatusHistory = append(issue.StatusHistory, domain.StatusChange{
		Status:    domain.StatusInProgress,
		ChangedBy: actorLabel(actor),
		ChangedAt: now,
		Note:      feedback,
	})

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventResolutionRejected,
		IssueID: issue.ID,
		Actor:   eventActor(actor),
		Payload: events.ResolutionRejectedPayload{
			ResidentName: actor.Name,
			Feedback:     feedback,
		},
	})
	return issue, nil
}

// UpdateStaffNotes replaces the internal notes on an issue. Notes are not a
// status-affecting mutation, so no history entry is recorded.
func (s *IssueService) UpdateStaffNotes(ctx context.Context, actor domain.Actor, issueID, notes string) (*domain.Issue, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff capability required")
	}
	unlock := s.locks.lock(issueID)
	defer unlock()

	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	if notes == "" {
		issue.StaffNotes = nil
	} else {
		issue.StaffNotes = &notes
	}
	issue.UpdatedAt = time.Now()

	if err := s.issues.Put(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

// Get fetches a single issue for staff consumption.
func (s *IssueService) Get(ctx context.Context, issueID string) (*domain.Issue, error) {
	return s.getIssue(ctx, issueID)
}

// GetForResident fetches a single issue ensuring ownership.
func (s *IssueService) GetForResident(ctx context.Context, residentID, issueID string) (*domain.Issue, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != residentID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return issue, nil
}

// List returns issues for staff triage views.
func (s *IssueService) List(ctx context.Context, filter IssueListFilter) ([]domain.Issue, error) {
	repoFilter := repository.IssueFilter{
		Statuses:           filter.Statuses,
		Priorities:         filter.Priorities,
		Categories:         filter.Categories,
		Department:         filter.Department,
		AssignedEmployeeID: filter.AssigneeID,
		SearchTerm:         filter.SearchTerm,
		Limit:              filter.Limit,
		Offset:             filter.Offset,
	}
	issues, err := s.issues.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// ListForResident returns the resident's own submissions.
func (s *IssueService) ListForResident(ctx context.Context, residentID string, limit, offset int) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, repository.IssueFilter{
		ReporterID: &residentID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// Snapshot returns the full collection for read-side projections.
func (s *IssueService) Snapshot(ctx context.Context) ([]domain.Issue, error) {
	issues, err := s.issues.List(ctx, repository.IssueFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

func (s *IssueService) getIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.Get(ctx, issueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func validateCoordinates(latitude, longitude *float64) error {
	if (latitude == nil) != (longitude == nil) {
		return apperrors.NewValidationError("latitude and longitude must be provided together", nil)
	}
	if latitude == nil {
		return nil
	}
	lat, lon := *latitude, *longitude
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return apperrors.NewValidationError("coordinates must be finite numbers", nil)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return apperrors.NewValidationError("coordinates out of range",
			map[string]any{"latitude": lat, "longitude": lon})
	}
	return nil
}

func actorLabel(actor domain.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.ID
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{Type: actor.Type, ID: actor.ID, Name: actor.Name}
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// keyedMutex serializes writers per issue id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
