package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"jo", "jo"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\temp`, `c:\\temp`},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, escapeLike(tc.input))
		})
	}
}

func TestMockUserRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepository()
	repo.Add(User{ID: 1, TenantID: 1, Username: "john", Email: "john@example.com"})
	repo.Add(User{ID: 2, TenantID: 1, Username: "joan", Email: "joan@example.com"})
	repo.Add(User{ID: 3, TenantID: 1, Username: "bob", Email: "bob@example.com"})
	repo.Add(User{ID: 4, TenantID: 2, Username: "jody", Email: "jody@example.com"})

	t.Run("username prefix is tenant scoped", func(t *testing.T) {
		users, err := repo.SearchByUsername(ctx, 1, "jo")
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "john", users[0].Username)
		assert.Equal(t, "joan", users[1].Username)
	})

	t.Run("email prefix", func(t *testing.T) {
		users, err := repo.SearchByEmail(ctx, 1, "bob@")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, 3, users[0].ID)
	})

	t.Run("profile property prefix honors offset and limit", func(t *testing.T) {
		repo.SetProfileValue(1, "City", "Amsterdam")
		repo.SetProfileValue(2, "City", "Amersfoort")
		repo.SetProfileValue(3, "City", "Rotterdam")

		users, err := repo.SearchByProfileProperty(ctx, 1, "City", "Am", 0, 1000)
		require.NoError(t, err)
		require.Len(t, users, 2)

		users, err = repo.SearchByProfileProperty(ctx, 1, "City", "Am", 1, 1000)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, 2, users[0].ID)
	})

	t.Run("get by id enforces tenant", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 1, 4)
		assert.ErrorIs(t, err, ErrUserNotFound)

		u, err := repo.GetByID(ctx, 2, 4)
		require.NoError(t, err)
		assert.Equal(t, "jody", u.Username)
	})

	t.Run("injected failure propagates", func(t *testing.T) {
		failing := NewMockUserRepository()
		failing.FailWith = errors.New("directory down")
		_, err := failing.ListByTenant(ctx, 1)
		assert.Error(t, err)
	})
}

func TestMockRoleRepository(t *testing.T) {
	ctx := context.Background()
	users := NewMockUserRepository()
	users.Add(User{ID: 1, TenantID: 1, Username: "admin1"})
	users.Add(User{ID: 2, TenantID: 1, Username: "editor1"})
	users.GrantRole(1, "Administrators")
	users.GrantRole(2, "Editors")

	roles := NewMockRoleRepository(users)

	members, err := roles.ListUsersByRole(ctx, 1, "Administrators")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "admin1", members[0].Username)

	// Exact match only, no prefix semantics for roles.
	members, err = roles.ListUsersByRole(ctx, 1, "Admin")
	require.NoError(t, err)
	assert.Empty(t, members)
}
