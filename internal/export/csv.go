package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// csvHeader is the fixed column order of issue exports.
var csvHeader = []string{
	"id", "title", "description", "category", "priority", "status",
	"location", "lat", "lon", "reporter", "createdAt", "updatedAt",
	"assignedTo", "confidence", "issueType", "keywords", "riskLevel",
}

// WriteIssuesCSV streams the given issues as an RFC 4180 CSV document.
// Optional fields render as empty cells; keywords are joined with
// semicolons so the cell stays a single CSV field.
func WriteIssuesCSV(w io.Writer, issues []domain.Issue) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for i := range issues {
		if err := writer.Write(issueRow(&issues[i])); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func issueRow(issue *domain.Issue) []string {
	return []string{
		issue.ID,
		issue.Title,
		issue.Description,
		string(issue.Category),
		string(issue.Priority),
		string(issue.Status),
		issue.Location,
		floatCell(issue.Latitude),
		floatCell(issue.Longitude),
		issue.ReporterName,
		timeCell(issue.CreatedAt),
		timeCell(issue.UpdatedAt),
		stringCell(issue.AssignedEmployeeName),
		floatCell(issue.Confidence),
		stringCell(issue.IssueType),
		strings.Join(issue.Keywords, ";"),
		stringCell(issue.RiskLevel),
	}
}

func stringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
