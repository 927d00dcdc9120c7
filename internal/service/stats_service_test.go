package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestCountsByCategoryRoundingAndOrder(t *testing.T) {
	stats := NewStatsService()
	issues := []domain.Issue{
		{Category: domain.CategoryRoads},
		{Category: domain.CategoryRoads},
		{Category: domain.CategoryWater},
	}

	result := stats.CountsByCategory(issues)
	require.Len(t, result, 2)
	require.Equal(t, domain.CategoryRoads, result[0].Category)
	require.Equal(t, 2, result[0].Count)
	require.Equal(t, 67, result[0].Percentage, "2/3 rounds to 67")
	require.Equal(t, domain.CategoryWater, result[1].Category)
	require.Equal(t, 33, result[1].Percentage, "1/3 rounds to 33")
}

func TestCountsByCategoryTieOrderedByName(t *testing.T) {
	stats := NewStatsService()
	issues := []domain.Issue{
		{Category: domain.CategoryWater},
		{Category: domain.CategoryParks},
	}

	result := stats.CountsByCategory(issues)
	require.Len(t, result, 2)
	require.Equal(t, domain.CategoryParks, result[0].Category, "equal counts sort by category name")
	require.Equal(t, domain.CategoryWater, result[1].Category)
}

func TestCountsByCategoryEmpty(t *testing.T) {
	stats := NewStatsService()
	require.Empty(t, stats.CountsByCategory(nil))
}

func TestCountsByStatusAndPriority(t *testing.T) {
	stats := NewStatsService()
	issues := []domain.Issue{
		{Status: domain.StatusPending, Priority: domain.PriorityHigh},
		{Status: domain.StatusPending, Priority: domain.PriorityLow},
		{Status: domain.StatusResolved, Priority: domain.PriorityHigh},
	}

	byStatus := stats.CountsByStatus(issues)
	require.Equal(t, 2, byStatus[domain.StatusPending])
	require.Equal(t, 1, byStatus[domain.StatusResolved])

	byPriority := stats.CountsByPriority(issues)
	require.Equal(t, 2, byPriority[domain.PriorityHigh])
	require.Equal(t, 1, byPriority[domain.PriorityLow])
}

func TestAverageResolutionDays(t *testing.T) {
	stats := NewStatsService()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issues := []domain.Issue{
		{
			Status:    domain.StatusResolved,
			CreatedAt: base,
			UpdatedAt: base.Add(50 * time.Hour), // ceil(50/24) = 3 days
		},
		{
			Status:    domain.StatusResolved,
			CreatedAt: base,
			UpdatedAt: base.Add(12 * time.Hour), // ceil(12/24) = 1 day
		},
		{
			Status:    domain.StatusInProgress,
			CreatedAt: base,
			UpdatedAt: base.Add(200 * time.Hour), // not resolved, ignored
		},
	}

	require.Equal(t, 2.0, stats.AverageResolutionDays(issues))
}

func TestAverageResolutionDaysNoResolved(t *testing.T) {
	stats := NewStatsService()
	issues := []domain.Issue{{Status: domain.StatusPending}}
	require.Equal(t, 0.0, stats.AverageResolutionDays(issues))
}

func TestAverageClassificationConfidence(t *testing.T) {
	stats := NewStatsService()
	high, low := 0.9, 0.5

	issues := []domain.Issue{
		{Confidence: &high},
		{Confidence: &low},
		{}, // unclassified, ignored
	}
	require.InDelta(t, 0.7, stats.AverageClassificationConfidence(issues), 1e-9)
	require.Equal(t, 0.0, stats.AverageClassificationConfidence(nil))
}
