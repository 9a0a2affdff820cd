package auth

import (
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// CurrentUser is the provider-independent identity of the authenticated
// requester. It is rebuilt from the database on every request, so the admin
// flag and role set never outlive a revocation by more than one request.
type CurrentUser struct {
	ID           string
	IsAdmin      bool
	EmployeeID   *uint64
	AuthProvider models.AuthProvider
	Roles        []string
	User         models.User
}

// HasRole reports whether the requester carries the named role. The admin
// flag does not imply any role; callers that want an admin bypass check
// IsAdmin separately.
func (u *CurrentUser) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role == name {
			return true
		}
	}
	return false
}
