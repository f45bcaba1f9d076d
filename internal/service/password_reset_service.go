package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/repository/ports"
	"github.com/pmarinho/accounts-api/internal/util"
)

const defaultResetTTL = time.Hour

// MailSender delivers account mail out of band. Delivery runs after state is
// persisted and is never rolled back.
type MailSender interface {
	SendPasswordResetEmail(email, code string) error
	SendWelcomeEmail(email, name string) error
}

// PasswordResetService issues and redeems single-use, time-limited password
// reset codes.
type PasswordResetService struct {
	users  ports.UserRepository
	mailer MailSender
	ttl    time.Duration
	now    func() time.Time
}

func NewPasswordResetService(users ports.UserRepository, mailer MailSender, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &PasswordResetService{
		users:  users,
		mailer: mailer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// RequestReset generates a fresh reset code for the account registered under
// email, persists it together with its expiry and mails it to the account
// owner. Issuing a new code supersedes any previously pending one. When the
// mail send fails the code stays persisted and valid; the failure is reported
// as ErrDeliveryFailed so the caller can offer a retry.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	code, err := util.GenerateResetCode(util.ResetCodeBytes)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetResetCode(ctx, user.ID, code, expiresAt); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(user.Email, code); err != nil {
			log.Printf("password reset: send mail to %s: %v", user.Email, err)
			return domain.ErrDeliveryFailed
		}
	}
	return nil
}

// ResetPassword redeems a pending reset code. The code only matches the
// account it was issued to; unknown account, no pending code and code
// mismatch all collapse into ErrResetCodeInvalid. The new password hash is
// installed and the reset fields are cleared in one atomic store update, so a
// given code succeeds at most once even under concurrent attempts.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	code = strings.ToLower(strings.TrimSpace(code))
	if email == "" || code == "" {
		return domain.ErrResetCodeInvalid
	}

	user, err := s.users.FindByEmailAndResetCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrResetCodeInvalid
		}
		return fmt.Errorf("find pending reset: %w", err)
	}

	if user.ResetCodeExpiresAt == nil || s.now().After(*user.ResetCodeExpiresAt) {
		// expired codes are left in place; the next issuance overwrites them
		return domain.ErrResetCodeExpired
	}

	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.users.CompleteReset(ctx, user.ID, hash, code)
	if err != nil {
		return fmt.Errorf("complete reset: %w", err)
	}
	if !ok {
		// a concurrent redemption consumed the code between lookup and update
		return domain.ErrResetCodeInvalid
	}
	return nil
}
