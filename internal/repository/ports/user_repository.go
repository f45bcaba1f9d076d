package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pmarinho/accounts-api/internal/domain"
)

// UserRepository is the persistence contract for account credentials and
// reset state. Lookup misses surface as sql.ErrNoRows. SetResetCode and
// CompleteReset are single-row updates applied atomically with respect to
// concurrent reads and writes on the same account.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByEmailAndResetCode resolves an account only when the presented
	// code matches the one issued to that account.
	FindByEmailAndResetCode(ctx context.Context, email, code string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email *string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// SetResetCode stores a pending reset code and its expiry, overwriting
	// any previously issued code for the account.
	SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	// CompleteReset installs the new password hash and clears the reset
	// fields in one atomic transition, guarded by the presented code. It
	// reports false when the code was already consumed or superseded.
	CompleteReset(ctx context.Context, id uuid.UUID, passwordHash, code string) (bool, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
