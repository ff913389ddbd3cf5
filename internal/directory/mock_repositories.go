package directory

import (
	"context"
	"strings"
	"sync"
)

// MockUserRepository is an in-memory implementation of UserRepository for testing.
type MockUserRepository struct {
	mu       sync.RWMutex
	users    []User
	profiles map[int]map[string]string // user id -> property name -> value
	roles    map[int][]string          // user id -> role names

	FailWith error // Optional override: every call returns this error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		profiles: make(map[int]map[string]string),
		roles:    make(map[int][]string),
	}
}

// Add stores a user. Directory order is insertion order.
func (m *MockUserRepository) Add(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// SetProfileValue sets a profile property value for a user.
func (m *MockUserRepository) SetProfileValue(userID int, property, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles[userID] == nil {
		m.profiles[userID] = make(map[string]string)
	}
	m.profiles[userID][property] = value
}

// GrantRole adds a role to a user.
func (m *MockUserRepository) GrantRole(userID int, roleName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = append(m.roles[userID], roleName)
}

func (m *MockUserRepository) filter(keep func(User) bool) []User {
	m.mu.RLock()
	snapshot := make([]User, len(m.users))
	copy(snapshot, m.users)
	m.mu.RUnlock()

	var out []User
	for _, u := range snapshot {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

func (m *MockUserRepository) ListByTenant(ctx context.Context, tenantID int) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(u User) bool { return u.TenantID == tenantID && !u.IsHost }), nil
}

func (m *MockUserRepository) SearchByEmail(ctx context.Context, tenantID int, prefix string) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(u User) bool {
		return u.TenantID == tenantID && strings.HasPrefix(u.Email, prefix)
	}), nil
}

func (m *MockUserRepository) SearchByUsername(ctx context.Context, tenantID int, prefix string) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(u User) bool {
		return u.TenantID == tenantID && strings.HasPrefix(u.Username, prefix)
	}), nil
}

func (m *MockUserRepository) SearchByProfileProperty(ctx context.Context, tenantID int, property, prefix string, offset, limit int) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	matched := m.filter(func(u User) bool {
		return u.TenantID == tenantID && strings.HasPrefix(m.profileValue(u.ID, property), prefix)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockUserRepository) profileValue(userID int, property string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	props, ok := m.profiles[userID]
	if !ok {
		return ""
	}
	return props[property]
}

func (m *MockUserRepository) ListHostUsers(ctx context.Context) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.filter(func(u User) bool { return u.IsHost }), nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, userID int) (*User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && u.ID == userID {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

// HasRole reports whether the user holds the role. Exposed for assertions.
func (m *MockUserRepository) HasRole(userID int, roleName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.roles[userID] {
		if r == roleName {
			return true
		}
	}
	return false
}

// MockRoleRepository resolves role membership against a MockUserRepository.
type MockRoleRepository struct {
	Users *MockUserRepository

	FailWith error
}

// NewMockRoleRepository creates a role repository view over users.
func NewMockRoleRepository(users *MockUserRepository) *MockRoleRepository {
	return &MockRoleRepository{Users: users}
}

func (m *MockRoleRepository) ListUsersByRole(ctx context.Context, tenantID int, roleName string) ([]User, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return m.Users.filter(func(u User) bool {
		return u.TenantID == tenantID && m.Users.HasRole(u.ID, roleName)
	}), nil
}

// MockProfileRepository is an in-memory implementation of ProfileRepository.
type MockProfileRepository struct {
	mu         sync.RWMutex
	properties map[int][]string // tenant id -> property names in definition order

	FailWith error
}

// NewMockProfileRepository creates a new mock profile repository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{properties: make(map[int][]string)}
}

// Define appends property names for a tenant.
func (m *MockProfileRepository) Define(tenantID int, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[tenantID] = append(m.properties[tenantID], names...)
}

func (m *MockProfileRepository) ListPropertyNames(ctx context.Context, tenantID int) ([]string, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.properties[tenantID]))
	copy(names, m.properties[tenantID])
	return names, nil
}
