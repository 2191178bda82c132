package service

import (
	"errors"
	"fmt"

	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// ErrUnauthorized is returned when no authenticated actor is present in the context
var ErrUnauthorized = errors.New("unauthorized")

// lookupError maps a missing row to notFound and wraps anything else
func lookupError(err error, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, domain.ErrTenantIsolationViolation) {
		return err
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// requirePermission returns the actor when it holds permission
func requirePermission(user *auth.UserContext, ok bool, permission domain.PermissionType) (*auth.UserContext, error) {
	if !ok {
		return nil, ErrUnauthorized
	}
	if !user.HasPermission(permission) {
		return nil, fmt.Errorf("%w: %s required", domain.ErrPermissionDenied, permission)
	}
	return user, nil
}
