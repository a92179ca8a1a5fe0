package handlers

import (
	"net/http"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// SessionHandler reports who the caller is and what they may do. The web
// client uses the permission list to hide controls.
type SessionHandler struct {
	grants user.RolePermissions
}

func NewSessionHandler(grants user.RolePermissions) *SessionHandler {
	if grants == nil {
		grants = user.DefaultRolePermissions()
	}
	return &SessionHandler{grants: grants}
}

type MeResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email,omitempty"`
	Role        user.Role         `json:"role"`
	Permissions []user.Permission `json:"permissions"`
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Code:    string(errors.ErrCodeUnauthorized),
			Message: "authentication required",
		})
		return
	}
	perms := append([]user.Permission{}, h.grants[u.Role]...)
	writeJSON(w, http.StatusOK, MeResponse{
		ID:          u.ID,
		Name:        u.DisplayName(),
		Email:       u.Email,
		Role:        u.Role,
		Permissions: perms,
	})
}
