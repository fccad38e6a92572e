// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Arusey/Huduma/internal/auth"
	"github.com/Arusey/Huduma/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindByCredentials returns the user owning email when password matches,
// and nil otherwise. Unknown emails still pay for a hash computation so
// response timing does not reveal which addresses are registered.
func (s *Service) FindByCredentials(
	ctx context.Context,
	email, password string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.BurnVerification(password)
			return nil, nil
		}
		return nil, fmt.Errorf("find by credentials: %w", err)
	}

	ok, rehash, err := core.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("find by credentials: %w", err)
	}
	if !ok {
		return nil, nil
	}

	if rehash != "" {
		if err := s.repo.UpdatePassword(ctx, user.ID, rehash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, password string,
) (*auth.UserInfo, error) {
	hash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, id string) error {
	return s.repo.IncrementTokenVersion(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
