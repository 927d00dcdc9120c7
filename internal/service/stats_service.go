package service

import (
	"math"
	"sort"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// StatsService derives dashboard projections from an issue snapshot. Every
// method is a pure function of its input; nothing here mutates issues.
type StatsService struct{}

// NewStatsService constructs the aggregator.
func NewStatsService() *StatsService {
	return &StatsService{}
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category   domain.Category `json:"category"`
	Count      int             `json:"count"`
	Percentage int             `json:"percentage"`
}

// CountsByStatus tallies issues per status.
func (s *StatsService) CountsByStatus(issues []domain.Issue) map[domain.IssueStatus]int {
	counts := make(map[domain.IssueStatus]int)
	for _, issue := range issues {
		counts[issue.Status]++
	}
	return counts
}

// CountsByPriority tallies issues per priority.
func (s *StatsService) CountsByPriority(issues []domain.Issue) map[domain.IssuePriority]int {
	counts := make(map[domain.IssuePriority]int)
	for _, issue := range issues {
		counts[issue.Priority]++
	}
	return counts
}

// CountsByCategory returns the category breakdown sorted by count descending,
// ties broken by category name ascending, with rounded integer percentages.
// The ordering is deterministic so dashboard and test output stay stable.
func (s *StatsService) CountsByCategory(issues []domain.Issue) []CategoryCount {
	counts := make(map[domain.Category]int)
	for _, issue := range issues {
		counts[issue.Category]++
	}

	result := make([]CategoryCount, 0, len(counts))
	total := len(issues)
	for category, count := range counts {
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(count) / float64(total) * 100))
		}
		result = append(result, CategoryCount{Category: category, Count: count, Percentage: percentage})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// AverageResolutionDays returns the mean, over resolved issues, of the
// ceiling day difference between creation and last update. Returns 0 when no
// issue is resolved so callers never see NaN.
func (s *StatsService) AverageResolutionDays(issues []domain.Issue) float64 {
	var total float64
	var resolved int
	for _, issue := range issues {
		if issue.Status != domain.StatusResolved {
			continue
		}
		days := math.Ceil(issue.UpdatedAt.Sub(issue.CreatedAt).Hours() / 24)
		total += days
		resolved++
	}
	if resolved == 0 {
		return 0
	}
	return total / float64(resolved)
}

// AverageClassificationConfidence returns the mean confidence over issues
// that carry a classification, or 0 when none do.
func (s *StatsService) AverageClassificationConfidence(issues []domain.Issue) float64 {
	var total float64
	var classified int
	for _, issue := range issues {
		if issue.Confidence == nil {
			continue
		}
		total += *issue.Confidence
		classified++
	}
	if classified == 0 {
		return 0
	}
	return total / float64(classified)
}
