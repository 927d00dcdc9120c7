package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func TestCandidatesForFiltersInactive(t *testing.T) {
	directory := repository.NewMemoryEmployeeDirectory()
	ctx := context.Background()
	require.NoError(t, directory.Create(ctx, &domain.Employee{
		ID: "a", Name: "Active", Email: "a@city.test", Department: domain.CategoryWater, Active: true,
	}))
	require.NoError(t, directory.Create(ctx, &domain.Employee{
		ID: "b", Name: "Benched", Email: "b@city.test", Department: domain.CategoryWater, Active: false,
	}))

	svc := NewAssignmentService(directory)
	candidates, err := svc.CandidatesFor(ctx, domain.CategoryWater)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "a", candidates[0].ID)
}

func TestCandidatesForUnknownDepartment(t *testing.T) {
	svc := NewAssignmentService(repository.NewMemoryEmployeeDirectory())
	_, err := svc.CandidatesFor(context.Background(), domain.Category("sanitation"))
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCandidatesForEmptyPool(t *testing.T) {
	svc := NewAssignmentService(repository.NewMemoryEmployeeDirectory())
	candidates, err := svc.CandidatesFor(context.Background(), domain.CategoryParks)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestValidate(t *testing.T) {
	directory := repository.NewMemoryEmployeeDirectory()
	ctx := context.Background()
	require.NoError(t, directory.Create(ctx, &domain.Employee{
		ID: "a", Name: "Active", Email: "a@city.test", Department: domain.CategoryWater, Active: true,
	}))

	svc := NewAssignmentService(directory)
	ok, err := svc.Validate(ctx, domain.CategoryWater, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Validate(ctx, domain.CategoryWater, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
