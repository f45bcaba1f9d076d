package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record. ResetCode and ResetCodeExpiresAt are either
// both set (a reset is pending) or both null; the schema enforces the pair.
type User struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	ResetCode          *string    `db:"reset_code" json:"-"`
	ResetCodeExpiresAt *time.Time `db:"reset_code_expires_at" json:"-"`
	AvatarURL          *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPendingReset reports whether an unconsumed reset code is outstanding.
func (u *User) HasPendingReset() bool {
	return u.ResetCode != nil && u.ResetCodeExpiresAt != nil
}
