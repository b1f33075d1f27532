package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// AdminUserID is the id of the configured operator account.
const AdminUserID int64 = 1

// Repository defines lookup operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// StaticRepository serves accounts defined in configuration.
type StaticRepository struct {
	users map[string]User
}

// NewStaticRepository indexes users by lower-cased email.
func NewStaticRepository(users ...User) *StaticRepository {
	repo := &StaticRepository{users: make(map[string]User, len(users))}
	for _, u := range users {
		repo.users[strings.ToLower(strings.TrimSpace(u.Email))] = u
	}
	return repo
}

// FindByEmail fetches a user by email.
func (r *StaticRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

// AdminAccount builds the operator account. A bcrypt hash wins over the
// plaintext password, which is hashed once here and never kept.
func AdminAccount(email, name, password, passwordHash string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, errors.New("auth: admin email required")
	}
	hash := strings.TrimSpace(passwordHash)
	if hash == "" {
		if password == "" {
			return User{}, errors.New("auth: admin password required")
		}
		generated, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		hash = string(generated)
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return User{}, errors.New("auth: admin password hash is not a bcrypt hash")
	}
	return User{ID: AdminUserID, Email: email, Name: name, PasswordHash: hash, IsActive: true}, nil
}

var _ Repository = (*StaticRepository)(nil)
