package service

import (
	"context"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// AssignmentService resolves the pool of employees eligible to receive an
// assignment for a department. It only reads the employee directory; the
// directory is owned by the identity collaborator.
type AssignmentService struct {
	directory repository.EmployeeDirectory
}

// NewAssignmentService creates the service.
func NewAssignmentService(directory repository.EmployeeDirectory) *AssignmentService {
	return &AssignmentService{directory: directory}
}

// CandidatesFor returns the active employees of the department. An empty
// pool is a normal outcome, not an error; callers must handle it.
func (s *AssignmentService) CandidatesFor(ctx context.Context, department domain.Category) ([]domain.Employee, error) {
	if !department.Valid() {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": department})
	}
	employees, err := s.directory.ListByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	candidates := make([]domain.Employee, 0, len(employees))
	for _, employee := range employees {
		if employee.Active {
			candidates = append(candidates, employee)
		}
	}
	return candidates, nil
}

// Validate reports whether the employee belongs to the department's current
// candidate pool. The directory may change between calls; nothing is cached.
func (s *AssignmentService) Validate(ctx context.Context, department domain.Category, employeeID string) (bool, error) {
	candidates, err := s.CandidatesFor(ctx, department)
	if err != nil {
		return false, err
	}
	for _, candidate := range candidates {
		if candidate.ID == employeeID {
			return true, nil
		}
	}
	return false, nil
}
