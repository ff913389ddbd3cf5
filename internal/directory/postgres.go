package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, COALESCE(tenant_id, 0), username, COALESCE(display_name, ''), email, is_host`

// PgUserRepository is the Postgres implementation of UserRepository.
type PgUserRepository struct {
	db *pgxpool.Pool
}

// NewPgUserRepository creates a Postgres-backed user repository.
func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Username, &u.DisplayName, &u.Email, &u.IsHost); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	return users, nil
}

func (r *PgUserRepository) ListByTenant(ctx context.Context, tenantID int) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY id`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return scanUsers(rows)
}

func (r *PgUserRepository) SearchByEmail(ctx context.Context, tenantID int, prefix string) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND email LIKE $2 ORDER BY id`,
		tenantID, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("search users by email: %w", err)
	}
	return scanUsers(rows)
}

func (r *PgUserRepository) SearchByUsername(ctx context.Context, tenantID int, prefix string) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND username LIKE $2 ORDER BY id`,
		tenantID, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("search users by username: %w", err)
	}
	return scanUsers(rows)
}

func (r *PgUserRepository) SearchByProfileProperty(ctx context.Context, tenantID int, property, prefix string, offset, limit int) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 WHERE u.tenant_id = $1 AND EXISTS (
		   SELECT 1 FROM profile_values v
		   JOIN profile_properties p ON p.id = v.property_id
		   WHERE v.user_id = u.id AND p.name = $2 AND v.value LIKE $3
		 )
		 ORDER BY u.id OFFSET $4 LIMIT $5`,
		tenantID, property, escapeLike(prefix)+"%", offset, limit)
	if err != nil {
		return nil, fmt.Errorf("search users by profile property: %w", err)
	}
	return scanUsers(rows)
}

func (r *PgUserRepository) ListHostUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_host ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list host users: %w", err)
	}
	return scanUsers(rows)
}

func (r *PgUserRepository) GetByID(ctx context.Context, tenantID, userID int) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`,
		tenantID, userID).
		Scan(&u.ID, &u.TenantID, &u.Username, &u.DisplayName, &u.Email, &u.IsHost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return &u, nil
}

// PgProfileRepository is the Postgres implementation of ProfileRepository.
type PgProfileRepository struct {
	db *pgxpool.Pool
}

// NewPgProfileRepository creates a Postgres-backed profile repository.
func NewPgProfileRepository(db *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{db: db}
}

func (r *PgProfileRepository) ListPropertyNames(ctx context.Context, tenantID int) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name FROM profile_properties WHERE tenant_id = $1 ORDER BY view_order, id`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("list profile properties: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan profile property: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read profile properties: %w", err)
	}
	return names, nil
}

// PgRoleRepository is the Postgres implementation of RoleRepository.
type PgRoleRepository struct {
	db *pgxpool.Pool
}

// NewPgRoleRepository creates a Postgres-backed role repository.
func NewPgRoleRepository(db *pgxpool.Pool) *PgRoleRepository {
	return &PgRoleRepository{db: db}
}

func (r *PgRoleRepository) ListUsersByRole(ctx context.Context, tenantID int, roleName string) ([]User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 WHERE u.tenant_id = $1 AND EXISTS (
		   SELECT 1 FROM user_roles ur
		   JOIN roles ro ON ro.id = ur.role_id
		   WHERE ur.user_id = u.id AND ro.tenant_id = $1 AND ro.name = $2
		 )
		 ORDER BY u.id`,
		tenantID, roleName)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return scanUsers(rows)
}
