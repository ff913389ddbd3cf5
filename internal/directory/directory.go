// Package directory provides tenant-scoped access to the platform's user
// store: user lookups and prefix searches, profile property definitions,
// and role membership.
package directory

import (
	"context"
	"errors"
	"strings"
)

// AnonymousUserID is reserved for the synthetic anonymous entry and never
// belongs to a stored user.
const AnonymousUserID = -1

var (
	// ErrUserNotFound is returned when a user id cannot be resolved within
	// the requested tenant.
	ErrUserNotFound = errors.New("user not found")
	// ErrPropertyNotFound is returned when a profile property name is not
	// defined for the tenant.
	ErrPropertyNotFound = errors.New("profile property not found")
)

// User is an immutable snapshot of a directory user. DisplayName is empty
// when the user has no display name.
type User struct {
	ID          int    `json:"id"`
	TenantID    int    `json:"tenant_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsHost      bool   `json:"is_host"`
}

// UserRepository exposes the user lookup and search operations of the
// directory. All prefix searches append the wildcard on the directory side;
// case sensitivity follows the database collation.
type UserRepository interface {
	// ListByTenant returns all users of the tenant in directory order.
	ListByTenant(ctx context.Context, tenantID int) ([]User, error)
	// SearchByEmail returns tenant users whose email starts with prefix.
	SearchByEmail(ctx context.Context, tenantID int, prefix string) ([]User, error)
	// SearchByUsername returns tenant users whose username starts with prefix.
	SearchByUsername(ctx context.Context, tenantID int, prefix string) ([]User, error)
	// SearchByProfileProperty returns tenant users whose value of the named
	// profile property starts with prefix, windowed by offset and limit.
	SearchByProfileProperty(ctx context.Context, tenantID int, property, prefix string, offset, limit int) ([]User, error)
	// ListHostUsers returns all host-level accounts in directory order.
	ListHostUsers(ctx context.Context) ([]User, error)
	// GetByID resolves a user by id within the tenant.
	GetByID(ctx context.Context, tenantID, userID int) (*User, error)
}

// ProfileRepository lists the profile property definitions of a tenant.
type ProfileRepository interface {
	// ListPropertyNames returns the property names in definition order.
	ListPropertyNames(ctx context.Context, tenantID int) ([]string, error)
}

// RoleRepository resolves role membership.
type RoleRepository interface {
	// ListUsersByRole returns tenant users holding the exactly-named role.
	ListUsersByRole(ctx context.Context, tenantID int, roleName string) ([]User, error)
}

// escapeLike escapes LIKE metacharacters so user input is matched literally
// before the wildcard suffix is appended.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
