package auth

import (
	"context"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockgrid/stockgrid/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	audit shared.AuditRecorder
}

// NewService constructs a new Service. audit may be nil.
func NewService(repo Repository, audit shared.AuditRecorder) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{repo: repo, audit: audit}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RecordLogin writes a sign-in entry to the audit log.
func (s *Service) RecordLogin(ctx context.Context, userID int64, ip, ua string) error {
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  userID,
		Action:   "auth.login",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"ip": ip, "user_agent": ua},
	})
}

// RecordLogout writes a sign-out entry to the audit log.
func (s *Service) RecordLogout(ctx context.Context, userID int64) error {
	return s.audit.Record(ctx, shared.AuditLog{
		ActorID:  userID,
		Action:   "auth.logout",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
	})
}
