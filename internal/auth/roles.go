package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RequireResident ensures a resident is authenticated.
func RequireResident() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeResident {
			return fiber.NewError(http.StatusForbidden, "resident required")
		}
		return c.Next()
	}
}

// RequireStaff ensures a staff principal.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeStaff || principal.Employee == nil {
			return fiber.NewError(http.StatusForbidden, "staff required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (resident or staff).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
