package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

var (
	ErrNoAuthContext = errors.Unauthorized("no authentication context")
	ErrAccessDenied  = errors.Forbidden("access denied")
)

// Enforcer checks the context user against a role to permission mapping. It
// implements user.Authorizer.
type Enforcer struct {
	mu     sync.RWMutex
	grants user.RolePermissions
	logger logging.Logger
}

// NewEnforcer uses user.DefaultRolePermissions when grants is nil.
func NewEnforcer(grants user.RolePermissions, logger logging.Logger) *Enforcer {
	if grants == nil {
		grants = user.DefaultRolePermissions()
	}
	return &Enforcer{grants: grants, logger: logger}
}

func (e *Enforcer) UpdateMapping(grants user.RolePermissions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.grants = grants
}

func (e *Enforcer) HasPermission(ctx context.Context, p user.Permission) bool {
	u, ok := user.FromContext(ctx)
	if !ok {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grants.Grants(u.Role, p)
}

// Authorize returns the caller when it holds p.
func (e *Enforcer) Authorize(ctx context.Context, p user.Permission) (*user.User, error) {
	u, ok := user.FromContext(ctx)
	if !ok {
		return nil, ErrNoAuthContext
	}
	e.mu.RLock()
	granted := e.grants.Grants(u.Role, p)
	e.mu.RUnlock()
	if !granted {
		e.logger.Warn("permission denied",
			logging.String("user_id", u.ID),
			logging.String("role", string(u.Role)),
			logging.String("permission", string(p)))
		return nil, errors.Forbidden("access denied").WithDetail(string(p))
	}
	return u, nil
}

// RequirePermission rejects requests whose user lacks p.
func (e *Enforcer) RequirePermission(p user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := e.Authorize(r.Context(), p); err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose user ranks below min.
func (e *Enforcer) RequireRole(min user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := user.FromContext(r.Context())
			if !ok {
				writeAuthError(w, ErrNoAuthContext)
				return
			}
			if !u.Role.AtLeast(min) {
				writeAuthError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
