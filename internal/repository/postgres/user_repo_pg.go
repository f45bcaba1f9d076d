package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pmarinho/accounts-api/internal/domain"
)

const userColumns = `id, name, email, password_hash, reset_code, reset_code_expires_at, avatar_url, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, name, email, passwordHash)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmailAndResetCode(ctx context.Context, email, code string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1 AND reset_code = $2
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email, code); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, email *string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET name = COALESCE($2, name),
            email = COALESCE($3, email),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, name, email)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *UserRepository) SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	const query = `
        UPDATE user_account
        SET reset_code = $2,
            reset_code_expires_at = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id, code, expiresAt)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// CompleteReset swaps in the new password hash and clears the reset fields in
// a single guarded UPDATE. When the guard misses (the code was consumed or
// superseded concurrently) no row is affected and false is reported, so one
// issued code can succeed at most once.
func (r *UserRepository) CompleteReset(ctx context.Context, id uuid.UUID, passwordHash, code string) (bool, error) {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            reset_code = NULL,
            reset_code_expires_at = NULL,
            updated_at = NOW()
        WHERE id = $1 AND reset_code = $3
    `
	result, err := r.db.ExecContext(ctx, query, id, passwordHash, code)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET avatar_url = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, avatarURL)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	users := []domain.User{}
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `
        DELETE FROM user_account
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
