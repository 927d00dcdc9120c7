package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/export"
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// ExportHandler serves CSV downloads of the issue collection.
type ExportHandler struct {
	issues *service.IssueService
}

// NewExportHandler constructs handler.
func NewExportHandler(issues *service.IssueService) *ExportHandler {
	return &ExportHandler{issues: issues}
}

// IssuesCSV GET /staff/issues/export respects the same filters as the staff
// listing so an operator can export exactly what they see.
func (h *ExportHandler) IssuesCSV(c *fiber.Ctx) error {
	filter := parseStaffIssueQuery(c)
	// exports are unpaginated unless the caller asks otherwise
	if c.Query("page_size") == "" {
		filter.Limit = 0
		filter.Offset = 0
	}
	issues, err := h.issues.List(c.Context(), filter)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteIssuesCSV(&buf, issues); err != nil {
		return err
	}

	filename := fmt.Sprintf("issues-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
