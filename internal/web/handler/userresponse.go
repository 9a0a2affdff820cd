package handler

import (
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// UserResponse is the JSON shape of a user returned by the auth endpoints.
type UserResponse struct {
	ID           string  `json:"id"`
	Email        *string `json:"email"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	IsAdmin      bool    `json:"isAdmin"`
	AuthProvider string  `json:"authProvider"`
	EmployeeID   *uint64 `json:"employeeId"`

	// Department and Position come from the linked employee record and are
	// empty for unlinked users.
	Department string   `json:"department,omitempty"`
	Position   string   `json:"position,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// NewUserResponse builds the response shape from a user record.
func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsAdmin:      user.IsAdmin,
		AuthProvider: string(user.AuthProvider),
		EmployeeID:   user.EmployeeID,
	}
}

// NewCurrentUserResponse builds the response shape for the authenticated
// requester, including the role set the unifier resolved.
func NewCurrentUserResponse(current *auth.CurrentUser) UserResponse {
	resp := NewUserResponse(&current.User)
	resp.Roles = current.Roles

	return resp
}
