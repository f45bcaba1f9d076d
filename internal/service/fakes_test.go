package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pmarinho/accounts-api/internal/domain"
)

// memUserRepo is an in-memory UserRepository with the same atomicity
// semantics the postgres implementation provides: SetResetCode overwrites any
// pending code and CompleteReset only succeeds while the guard code is still
// the pending one.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	findErr   error
	updateErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (m *memUserRepo) seed(name, email, passwordHash string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user
}

func (m *memUserRepo) get(id uuid.UUID) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		clone := *user
		return &clone
	}
	return nil
}

func (m *memUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "user_account_email_key"}
		}
	}
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if user := m.get(id); user != nil {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByEmailAndResetCode(ctx context.Context, email, code string) (*domain.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email && user.ResetCode != nil && *user.ResetCode == code {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, name, email *string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *email {
				return nil, &pgconn.PgError{Code: "23505", ConstraintName: "user_account_email_key"}
			}
		}
		user.Email = *email
	}
	if name != nil {
		user.Name = *name
	}
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *memUserRepo) SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.ResetCode = &code
	user.ResetCodeExpiresAt = &expiresAt
	return nil
}

func (m *memUserRepo) CompleteReset(ctx context.Context, id uuid.UUID, passwordHash, code string) (bool, error) {
	if m.updateErr != nil {
		return false, m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok || user.ResetCode == nil || *user.ResetCode != code {
		return false, nil
	}
	user.PasswordHash = passwordHash
	user.ResetCode = nil
	user.ResetCodeExpiresAt = nil
	return true, nil
}

func (m *memUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.AvatarURL = &avatarURL
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, nil
}

func (m *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type fakeMailer struct {
	resetSent []struct {
		email string
		code  string
	}
	welcomeSent []struct {
		email string
		name  string
	}
	resetErr   error
	welcomeErr error
}

func (f *fakeMailer) SendPasswordResetEmail(email, code string) error {
	f.resetSent = append(f.resetSent, struct {
		email string
		code  string
	}{email: email, code: code})
	return f.resetErr
}

func (f *fakeMailer) SendWelcomeEmail(email, name string) error {
	f.welcomeSent = append(f.welcomeSent, struct {
		email string
		name  string
	}{email: email, name: name})
	return f.welcomeErr
}

func (f *fakeMailer) lastResetCode() string {
	if len(f.resetSent) == 0 {
		return ""
	}
	return f.resetSent[len(f.resetSent)-1].code
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}
	url string
	err error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size})
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://storage/" + bucket + "/" + objectName, nil
}

var errStorageDown = errors.New("storage unavailable")
