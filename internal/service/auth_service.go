package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/repository/ports"
	"github.com/pmarinho/accounts-api/internal/util"
)

// AuthService verifies credentials and issues login tokens.
type AuthService struct {
	users ports.UserRepository
	jwt   *util.JWTManager
}

func NewAuthService(users ports.UserRepository, jwt *util.JWTManager) *AuthService {
	return &AuthService{users: users, jwt: jwt}
}

// Login checks the password against the stored hash and returns a signed
// token. Unknown email and wrong password produce the same error so a caller
// cannot probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", time.Time{}, domain.ErrInvalidCredentials
		}
		return nil, "", time.Time{}, fmt.Errorf("find account: %w", err)
	}

	ok, err := util.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !ok {
		return nil, "", time.Time{}, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return user, token, expiresAt, nil
}

// Authenticate resolves the account behind a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}
