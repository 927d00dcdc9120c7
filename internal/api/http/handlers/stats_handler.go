package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/service"
)

// StatsHandler serves dashboard aggregates.
type StatsHandler struct {
	issues *service.IssueService
	stats  *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(issues *service.IssueService, stats *service.StatsService) *StatsHandler {
	return &StatsHandler{issues: issues, stats: stats}
}

// Overview GET /staff/stats computes all aggregates from one snapshot so the
// figures are mutually consistent.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	snapshot, err := h.issues.Snapshot(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"total":                 len(snapshot),
		"byStatus":              h.stats.CountsByStatus(snapshot),
		"byPriority":            h.stats.CountsByPriority(snapshot),
		"byCategory":            h.stats.CountsByCategory(snapshot),
		"averageResolutionDays": h.stats.AverageResolutionDays(snapshot),
		"averageConfidence":     h.stats.AverageClassificationConfidence(snapshot),
	}})
}
