package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// IssueFilter captures listing parameters for resident and staff views.
type IssueFilter struct {
	ReporterID         *string
	Statuses           []domain.IssueStatus
	Priorities         []domain.IssuePriority
	Categories         []domain.Category
	Department         *domain.Category
	AssignedEmployeeID *string
	SearchTerm         *string
	Limit              int
	Offset             int
}

// IssueRepository is the injected storage abstraction for issue records.
// Put persists a full record (insert or replace); implementations never
// interpret the record beyond its identity.
type IssueRepository interface {
	Put(ctx context.Context, issue *domain.Issue) error
	Get(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository returns a Postgres-backed implementation.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, reporter_id, reporter_name, title, description, category, location,
        latitude, longitude, photo_ref, status, priority, department,
        assigned_employee_id, assigned_employee_name, assigned_by, staff_notes,
        resident_confirmed, resident_rejected, resident_feedback,
        confidence, issue_type, keywords, risk_level,
        created_at, updated_at, resolved_at, status_history`

func (r *issueRepository) Put(ctx context.Context, issue *domain.Issue) error {
	history, err := json.Marshal(issue.StatusHistory)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}
	const query = `
        INSERT INTO issues (` + issueColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
        ON CONFLICT (id) DO UPDATE SET
            status=EXCLUDED.status, priority=EXCLUDED.priority, department=EXCLUDED.department,
            assigned_employee_id=EXCLUDED.assigned_employee_id,
            assigned_employee_name=EXCLUDED.assigned_employee_name,
            assigned_by=EXCLUDED.assigned_by, staff_notes=EXCLUDED.staff_notes,
            resident_confirmed=EXCLUDED.resident_confirmed,
            resident_rejected=EXCLUDED.resident_rejected,
            resident_feedback=EXCLUDED.resident_feedback,
            updated_at=EXCLUDED.updated_at, resolved_at=EXCLUDED.resolved_at,
            status_history=EXCLUDED.status_history`
	_, err = r.pool.Exec(ctx, query,
		issue.ID,
		issue.ReporterID,
		issue.ReporterName,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.Latitude,
		issue.Longitude,
		issue.PhotoRef,
		issue.Status,
		issue.Priority,
		issue.Department,
		issue.AssignedEmployeeID,
		issue.AssignedEmployeeName,
		issue.AssignedBy,
		issue.StaffNotes,
		issue.ResidentConfirmed,
		issue.ResidentRejected,
		issue.ResidentFeedback,
		issue.Confidence,
		issue.IssueType,
		issue.Keywords,
		issue.RiskLevel,
		issue.CreatedAt,
		issue.UpdatedAt,
		issue.ResolvedAt,
		history,
	)
	return err
}

func (r *issueRepository) Get(ctx context.Context, id string) (*domain.Issue, error) {
	const query = `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := `SELECT ` + issueColumns + ` FROM issues`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.AssignedEmployeeID != nil {
		args = append(args, *filter.AssignedEmployeeID)
		clauses = append(clauses, fmt.Sprintf("assigned_employee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY created_at DESC", base, strings.Join(clauses, " AND "))
	// Limit <= 0 means no cap; stats projections need the full snapshot.
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	var issue domain.Issue
	var history []byte
	if err := row.Scan(
		&issue.ID,
		&issue.ReporterID,
		&issue.ReporterName,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Location,
		&issue.Latitude,
		&issue.Longitude,
		&issue.PhotoRef,
		&issue.Status,
		&issue.Priority,
		&issue.Department,
		&issue.AssignedEmployeeID,
		&issue.AssignedEmployeeName,
		&issue.AssignedBy,
		&issue.StaffNotes,
		&issue.ResidentConfirmed,
		&issue.ResidentRejected,
		&issue.ResidentFeedback,
		&issue.Confidence,
		&issue.IssueType,
		&issue.Keywords,
		&issue.RiskLevel,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ResolvedAt,
		&history,
	); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &issue.StatusHistory); err != nil {
			return nil, fmt.Errorf("decode status history: %w", err)
		}
	}
	return &issue, nil
}
