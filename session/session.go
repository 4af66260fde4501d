// Package session issues signed session tokens backed by server-side
// session records.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"stocksim/models"
)

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrNoSession    = errors.New("session: not found")
)

// Manager creates, resolves and destroys sessions. The token is an HS256
// JWT whose ID names the server-side record; a token is only accepted while
// that record exists.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, now: time.Now}
}

// TTL is how long a new session lives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for the user and returns its token.
func (m *Manager) Create(ctx context.Context, userID uint, username string) (string, error) {
	now := m.now()
	id := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        id,
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	if err := m.store.Save(ctx, id, Record{UserID: userID, Username: username, Created: now}, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve validates a token and returns the identity it belongs to.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := m.parse(token, true)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.Load(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if strconv.FormatUint(uint64(rec.UserID), 10) != claims.Subject {
		return nil, ErrInvalidToken
	}

	return &models.Identity{UserID: rec.UserID, Username: rec.Username, SessionID: claims.ID}, nil
}

// Destroy removes the session named by a token. Tokens that do not parse
// are ignored; an expired but well-signed token still clears its record.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.parse(token, false)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *Manager) parse(token string, checkExpiry bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if checkExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
