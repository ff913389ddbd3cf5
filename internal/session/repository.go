package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository is the Postgres implementation of Repository.
type PgRepository struct {
	db *pgxpool.Pool
}

// NewPgRepository creates a Postgres-backed session repository.
func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) Create(ctx context.Context, s *Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, tenant_id, user_id, ip_address, is_admin, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TenantID, s.UserID, s.IPAddress, s.Admin, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, ip_address, is_admin, created_at, expires_at
		 FROM sessions WHERE id = $1`,
		id).
		Scan(&s.ID, &s.TenantID, &s.UserID, &s.IPAddress, &s.Admin, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	CreateFn func(ctx context.Context, s *Session) error // Optional override
	DeleteFn func(ctx context.Context, id uuid.UUID) error
}

// NewMockRepository creates a new mock session repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{sessions: make(map[uuid.UUID]*Session)}
}

func (m *MockRepository) Create(ctx context.Context, s *Session) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Count returns the number of live sessions. Exposed for assertions.
func (m *MockRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
