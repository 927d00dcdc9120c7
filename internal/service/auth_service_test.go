package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

func newAuthServiceForTest(t *testing.T) (*AuthService, *repository.MemoryEmployeeDirectory) {
	t.Helper()
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 15
	cfg.Auth.PasswordResetTTLMinutes = 30
	cfg.Auth.BcryptCost = 4 // min cost keeps tests fast

	directory := repository.NewMemoryEmployeeDirectory()
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          repository.NewMemoryUserRepository(),
		EmployeeDirectory: directory,
		PasswordResetRepo: repository.NewMemoryPasswordResetRepository(),
	})
	return svc, directory
}

func hashForTest(password string) (string, error) {
	return auth.HashPassword(password, 4)
}

func TestRegisterAndLoginResident(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	user, token, exp, err := svc.RegisterResident(ctx, "Rita", "rita@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, token)
	require.False(t, exp.IsZero())

	_, _, _, err = svc.RegisterResident(ctx, "Rita", "rita@example.com", "hunter22")
	require.True(t, apperrors.IsCode(err, "CONFLICT"), "duplicate email rejected")

	loggedIn, _, _, err := svc.LoginResident(ctx, "rita@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	_, _, _, err = svc.LoginResident(ctx, "rita@example.com", "wrong")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.LoginResident(ctx, "nobody@example.com", "hunter22")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), "unknown email looks like bad credentials")
}

func TestLoginEmployee(t *testing.T) {
	svc, directory := newAuthServiceForTest(t)
	ctx := context.Background()

	hash, err := hashForTest("citypass")
	require.NoError(t, err)
	require.NoError(t, directory.Create(ctx, &domain.Employee{
		ID: "emp-1", Name: "Dana", Email: "dana@city.test",
		PasswordHash: hash, Department: domain.CategoryWater, Active: true,
	}))
	require.NoError(t, directory.Create(ctx, &domain.Employee{
		ID: "emp-2", Name: "Gone", Email: "gone@city.test",
		PasswordHash: hash, Department: domain.CategoryWater, Active: false,
	}))

	employee, token, _, err := svc.LoginEmployee(ctx, "dana@city.test", "citypass")
	require.NoError(t, err)
	require.Equal(t, "emp-1", employee.ID)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, domain.SubjectTypeStaff, claims.Subject)
	require.NotNil(t, claims.Department)
	require.Equal(t, domain.CategoryWater, *claims.Department)

	_, _, _, err = svc.LoginEmployee(ctx, "gone@city.test", "citypass")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), "inactive employees cannot log in")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	_, _, _, err := svc.RegisterResident(ctx, "Rita", "rita@example.com", "hunter22")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "rita@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "newpass99"))

	_, _, _, err = svc.LoginResident(ctx, "rita@example.com", "hunter22")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), "old password no longer valid")

	_, _, _, err = svc.LoginResident(ctx, "rita@example.com", "newpass99")
	require.NoError(t, err)

	err = svc.ConfirmPasswordReset(ctx, token.Token, "again")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), "token is single use")

	_, err = svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	err = svc.ConfirmPasswordReset(ctx, "bogus-token", "whatever")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	user, _, _, err := svc.RegisterResident(ctx, "Rita", "rita@example.com", "hunter22")
	require.NoError(t, err)

	subject := AuthSubject{Type: domain.SubjectTypeResident, ID: user.ID}
	err = svc.ChangePassword(ctx, subject, "wrong", "newpass99")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	require.NoError(t, svc.ChangePassword(ctx, subject, "hunter22", "newpass99"))

	_, _, _, err = svc.LoginResident(ctx, "rita@example.com", "newpass99")
	require.NoError(t, err)
}
