package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/media"
	"github.com/pmarinho/accounts-api/internal/repository/ports"
	"github.com/pmarinho/accounts-api/internal/util"
)

const uniqueViolationCode = "23505"

// AccountService owns registration and profile CRUD.
type AccountService struct {
	users        ports.UserRepository
	mailer       MailSender
	storage      ports.ObjectStorage
	normalizer   *media.Normalizer
	avatarBucket string
}

func NewAccountService(users ports.UserRepository, mailer MailSender, storage ports.ObjectStorage, normalizer *media.Normalizer, avatarBucket string) *AccountService {
	return &AccountService{
		users:        users,
		mailer:       mailer,
		storage:      storage,
		normalizer:   normalizer,
		avatarBucket: avatarBucket,
	}
}

// Register validates the candidate password, hashes it and creates the
// account. A duplicate email reports ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, name, email, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcomeEmail(user.Email, user.Name); err != nil {
			// creation already succeeded; the welcome mail is best effort
			log.Printf("register: send welcome mail to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, name, email *string) (*domain.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		name = &trimmed
	}
	if email != nil {
		normalized := normalizeEmail(*email)
		if !validEmail(normalized) {
			return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
		}
		email = &normalized
	}

	user, err := s.users.UpdateProfile(ctx, id, name, email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, domain.ErrNotFound
		case isUniqueViolation(err):
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of an authenticated account after
// verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id uuid.UUID, current, updated string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	ok, err := util.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}

	if err := util.ValidatePassword(updated); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	hash, err := util.HashPassword(updated)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UploadAvatar normalizes the uploaded image, stores it and records the
// public URL on the account.
func (s *AccountService) UploadAvatar(ctx context.Context, id uuid.UUID, upload media.Upload) (*domain.User, error) {
	if s.storage == nil || s.normalizer == nil {
		return nil, errors.New("avatar storage not configured")
	}

	result, err := s.normalizer.Normalize(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	objectName := fmt.Sprintf("avatars/%s.jpg", id)
	url, err := s.storage.Upload(ctx, s.avatarBucket, objectName, result.ContentType, bytes.NewReader(result.Bytes), int64(len(result.Bytes)))
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	user, err := s.users.UpdateAvatar(ctx, id, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return user, nil
}

func (s *AccountService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
