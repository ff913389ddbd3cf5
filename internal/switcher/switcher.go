// Package switcher implements the identity switcher pipeline: listing the
// searchable profile fields of a tenant, querying and shaping the
// selectable user list, and switching the active session to a chosen user.
package switcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/identityswitcher/internal/cache"
	"github.com/fluxbase-eu/identityswitcher/internal/directory"
	"github.com/fluxbase-eu/identityswitcher/internal/session"
)

// Synthetic search fields appended after the tenant's profile properties.
const (
	FieldRoleName = "RoleName"
	FieldEmail    = "Email"
	FieldUsername = "Username"
)

// AnonymousUsername names the synthetic anonymous entry.
const AnonymousUsername = "Anonymous"

// profileSearchLimit caps profile-property searches.
const profileSearchLimit = 1000

// SortOrder selects how the matched users are ordered.
type SortOrder string

const (
	SortNone          SortOrder = "none"
	SortByDisplayName SortOrder = "display_name"
	SortByUserName    SortOrder = "username"
)

// ParseSortOrder maps a configuration string to a SortOrder. Unknown
// values fall back to SortNone.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(s)) {
	case SortByDisplayName:
		return SortByDisplayName
	case SortByUserName:
		return SortByUserName
	default:
		return SortNone
	}
}

// Settings are the module settings applied to every ListUsers call. They
// are read from configuration once and passed by value per request.
type Settings struct {
	SortBy      SortOrder
	IncludeHost bool
}

// Query carries the user search parameters. A nil SearchText means "list
// everything"; OnlyDefault skips search and sort entirely.
type Query struct {
	SearchText  *string
	SearchField string
	OnlyDefault bool
}

// UserEntry is one selectable row of the user list.
type UserEntry struct {
	ID                 int    `json:"id"`
	UserName           string `json:"userName"`
	UserAndDisplayName string `json:"userAndDisplayName"`
}

// UserList is the shaped response of ListUsers.
type UserList struct {
	Users          []UserEntry `json:"users"`
	SelectedUserID int         `json:"selectedUserId"`
}

// SwitchRequest identifies the impersonation target and the session being
// replaced.
type SwitchRequest struct {
	SelectedUserID   int
	SelectedUserName string
	CurrentSessionID uuid.UUID
	RemoteAddr       string
}

// SwitchResult is the outcome of a Switch call. When LogOff is true the
// caller has been signed off and no new session exists.
type SwitchResult struct {
	LogOff  bool
	Session *session.Session
	Token   string
}

// Service orchestrates the directory, cache, and session collaborators.
type Service struct {
	users    directory.UserRepository
	profiles directory.ProfileRepository
	roles    directory.RoleRepository
	cache    cache.Invalidator
	sessions *session.Service
}

// NewService creates the switcher service.
func NewService(users directory.UserRepository, profiles directory.ProfileRepository, roles directory.RoleRepository, userCache cache.Invalidator, sessions *session.Service) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		roles:    roles,
		cache:    userCache,
		sessions: sessions,
	}
}

// SearchFields returns the field names users can be searched by: the
// tenant's profile property names in definition order, followed by the
// fixed RoleName, Email, and Username fields.
func (s *Service) SearchFields(ctx context.Context, tenantID int) ([]string, error) {
	names, err := s.profiles.ListPropertyNames(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list profile properties: %w", err)
	}
	return append(names, FieldRoleName, FieldEmail, FieldUsername), nil
}

// ListUsers runs the query, sort, and default-injection pipeline and
// returns the shaped list together with the caller's user id.
func (s *Service) ListUsers(ctx context.Context, tenantID int, q Query, settings Settings, currentUserID int) (*UserList, error) {
	var matched []directory.User

	if !q.OnlyDefault {
		var err error
		if q.SearchText == nil {
			matched, err = s.users.ListByTenant(ctx, tenantID)
		} else {
			matched, err = s.findUsers(ctx, tenantID, *q.SearchText, q.SearchField)
		}
		if err != nil {
			return nil, err
		}
		sortUsers(matched, settings.SortBy)
	}

	matched, err := s.addDefaultUsers(ctx, matched, settings)
	if err != nil {
		return nil, err
	}

	entries := make([]UserEntry, len(matched))
	for i, u := range matched {
		entries[i] = UserEntry{
			ID:                 u.ID,
			UserName:           u.Username,
			UserAndDisplayName: displayLabel(u),
		}
	}
	return &UserList{Users: entries, SelectedUserID: currentUserID}, nil
}

// findUsers dispatches the search to the directory query matching the
// selected field. Any field other than the fixed three is treated as a
// profile property name.
func (s *Service) findUsers(ctx context.Context, tenantID int, searchText, field string) ([]directory.User, error) {
	switch field {
	case FieldEmail:
		users, err := s.users.SearchByEmail(ctx, tenantID, searchText)
		if err != nil {
			return nil, fmt.Errorf("search by email: %w", err)
		}
		return users, nil
	case FieldUsername:
		users, err := s.users.SearchByUsername(ctx, tenantID, searchText)
		if err != nil {
			return nil, fmt.Errorf("search by username: %w", err)
		}
		return users, nil
	case FieldRoleName:
		users, err := s.roles.ListUsersByRole(ctx, tenantID, searchText)
		if err != nil {
			return nil, fmt.Errorf("search by role: %w", err)
		}
		return users, nil
	default:
		users, err := s.users.SearchByProfileProperty(ctx, tenantID, field, searchText, 0, profileSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("search by profile property %q: %w", field, err)
		}
		return users, nil
	}
}

// sortUsers orders users in place. Sorting is stable and case-insensitive;
// a missing display name sorts as the empty string.
func sortUsers(users []directory.User, order SortOrder) {
	switch order {
	case SortByDisplayName:
		sort.SliceStable(users, func(i, j int) bool {
			return strings.ToLower(users[i].DisplayName) < strings.ToLower(users[j].DisplayName)
		})
	case SortByUserName:
		sort.SliceStable(users, func(i, j int) bool {
			return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
		})
	}
}

// addDefaultUsers prepends the configured host accounts and the anonymous
// sentinel. Each host is inserted at the front in directory order, then
// the anonymous entry is prepended so it is always element 0.
func (s *Service) addDefaultUsers(ctx context.Context, users []directory.User, settings Settings) ([]directory.User, error) {
	if settings.IncludeHost {
		hosts, err := s.users.ListHostUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list host users: %w", err)
		}
		for _, h := range hosts {
			entry := directory.User{ID: h.ID, Username: h.Username}
			users = append([]directory.User{entry}, users...)
		}
	}

	anonymous := directory.User{ID: directory.AnonymousUserID, Username: AnonymousUsername}
	return append([]directory.User{anonymous}, users...), nil
}

// displayLabel renders the selectable label: "<display> - <username>"
// when a display name is present, otherwise just the username.
func displayLabel(u directory.User) string {
	if u.DisplayName != "" {
		return u.DisplayName + " - " + u.Username
	}
	return u.Username
}

// Switch replaces the caller's session with one belonging to the selected
// user. Selecting the anonymous sentinel signs the caller off instead.
// The sign-out/sign-in pair is not transactional: a sign-in failure after
// sign-out leaves the caller logged out.
func (s *Service) Switch(ctx context.Context, tenantID int, req SwitchRequest) (*SwitchResult, error) {
	if req.SelectedUserID == directory.AnonymousUserID {
		if err := s.sessions.SignOut(ctx, req.CurrentSessionID); err != nil {
			return nil, fmt.Errorf("sign off: %w", err)
		}
		log.Info().Int("tenant_id", tenantID).Msg("identity switch: signed off")
		return &SwitchResult{LogOff: true}, nil
	}

	target, err := s.users.GetByID(ctx, tenantID, req.SelectedUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", req.SelectedUserID, err)
	}

	if err := s.cache.Invalidate(ctx, tenantID, req.SelectedUserName); err != nil {
		return nil, fmt.Errorf("invalidate user cache: %w", err)
	}

	if err := s.sessions.SignOut(ctx, req.CurrentSessionID); err != nil {
		return nil, fmt.Errorf("sign out: %w", err)
	}

	sess, token, err := s.sessions.SignIn(ctx, tenantID, target, req.RemoteAddr, target.IsHost)
	if err != nil {
		return nil, fmt.Errorf("sign in as user %d: %w", target.ID, err)
	}

	log.Info().
		Int("tenant_id", tenantID).
		Int("target_user_id", target.ID).
		Str("session_id", sess.ID.String()).
		Msg("identity switch: session established")
	return &SwitchResult{Session: sess, Token: token}, nil
}
