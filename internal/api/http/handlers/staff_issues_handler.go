package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// StaffIssuesHandler manages staff-facing issue endpoints.
type StaffIssuesHandler struct {
	issues      *service.IssueService
	assignments *service.AssignmentService
}

// NewStaffIssuesHandler constructs handler.
func NewStaffIssuesHandler(issues *service.IssueService, assignments *service.AssignmentService) *StaffIssuesHandler {
	return &StaffIssuesHandler{issues: issues, assignments: assignments}
}

// List GET /staff/issues.
func (h *StaffIssuesHandler) List(c *fiber.Ctx) error {
	filter := parseStaffIssueQuery(c)
	issues, err := h.issues.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueListResponse{Issues: issues, Count: len(issues)}})
}

// Get GET /staff/issues/:id.
func (h *StaffIssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.issues.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// UpdateStatus PATCH /staff/issues/:id/status.
func (h *StaffIssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.issues.UpdateStatus(c.Context(), principal.Actor(), c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// Assign POST /staff/issues/:id/assign.
func (h *StaffIssuesHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EmployeeID == "" {
		return apperrors.NewValidationError("employeeId required", nil)
	}
	issue, err := h.issues.Assign(c.Context(), principal.Actor(), c.Params("id"), req.Department, req.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// UpdateNotes PUT /staff/issues/:id/notes.
func (h *StaffIssuesHandler) UpdateNotes(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.StaffNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.issues.UpdateStaffNotes(c.Context(), principal.Actor(), c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// Candidates GET /staff/departments/:department/candidates lists active
// employees eligible for assignment in a department.
func (h *StaffIssuesHandler) Candidates(c *fiber.Ctx) error {
	department := domain.Category(c.Params("department"))
	employees, err := h.assignments.CandidatesFor(c.Context(), department)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for _, employee := range employees {
		items = append(items, dto.EmployeeResponse{
			ID:         employee.ID,
			Name:       employee.Name,
			Department: employee.Department,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseStaffIssueQuery(c *fiber.Ctx) service.IssueListFilter {
	filter := service.IssueListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.IssueStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.IssuePriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.Category(strings.TrimSpace(part)))
		}
	}
	if department := c.Query("department"); department != "" {
		d := domain.Category(department)
		filter.Department = &d
	}
	if assignee := c.Query("assignee"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
