// Package accounts registers users and checks their credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"stocksim/database"
	"stocksim/models"
)

var (
	ErrMissingUsername     = errors.New("missing username")
	ErrMissingPassword     = errors.New("missing password")
	ErrMissingConfirmation = errors.New("missing password confirmation")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrUsernameTaken       = errors.New("username already exists")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)

type Registration struct {
	Username     string
	Password     string
	Confirmation string
}

type Service struct {
	store        *database.Store
	startingCash decimal.Decimal
	cost         int
	log          zerolog.Logger
}

func NewService(store *database.Store, startingCash decimal.Decimal, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		startingCash: startingCash,
		cost:         bcrypt.DefaultCost,
		log:          log.With().Str("service", "accounts").Logger(),
	}
}

// Register creates an account holding the starting cash balance and no
// transactions. Usernames are compared case-sensitively.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	switch {
	case r.Username == "":
		return nil, ErrMissingUsername
	case r.Password == "":
		return nil, ErrMissingPassword
	case r.Confirmation == "":
		return nil, ErrMissingConfirmation
	case r.Password != r.Confirmation:
		return nil, ErrPasswordMismatch
	}

	_, err := s.store.UserByUsername(ctx, r.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     r.Username,
		PasswordHash: string(hash),
		Cash:         s.startingCash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("Registered user")
	return user, nil
}

// Authenticate returns the user when the password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	switch {
	case username == "":
		return nil, ErrMissingUsername
	case password == "":
		return nil, ErrMissingPassword
	}

	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
