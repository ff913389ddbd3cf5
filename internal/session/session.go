// Package session manages authenticated sessions: persistent session rows
// plus the signed access tokens handed to clients.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fluxbase-eu/identityswitcher/internal/directory"
)

var (
	// ErrSessionNotFound is returned when a session id has no live row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidToken is returned for tokens that fail signature, expiry,
	// or claim validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Session is a live authenticated session.
type Session struct {
	ID        uuid.UUID `json:"id"`
	TenantID  int       `json:"tenant_id"`
	UserID    int       `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the JWT claims carried by an access token.
type Claims struct {
	TenantID  int    `json:"tid"`
	SessionID string `json:"sid"`
	Admin     bool   `json:"adm"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a directory user id.
func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric subject", ErrInvalidToken)
	}
	return id, nil
}

// Repository persists session rows.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	// Delete removes a session row. Deleting an absent session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service signs users in and out and verifies access tokens.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
}

// NewService creates a session service. secret signs HS256 access tokens,
// ttl bounds session lifetime.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl}
}

// SignIn establishes a new session for the user and returns it together
// with a signed access token. The caller's network address is recorded on
// the session row.
func (s *Service) SignIn(ctx context.Context, tenantID int, user *directory.User, remoteAddr string, admin bool) (*Session, string, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    user.ID,
		IPAddress: remoteAddr,
		Admin:     admin,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	claims := Claims{
		TenantID:  tenantID,
		SessionID: sess.ID.String(),
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return sess, token, nil
}

// SignOut terminates the session. Signing out an already-terminated
// session is a no-op.
func (s *Service) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Verify validates an access token and confirms the backing session row is
// still live. Returns the token claims on success.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sid, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.repo.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return claims, nil
}
