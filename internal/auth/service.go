// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/middleware"
)

const loginMessage = "You have been successfully logged in"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// errAuthUnavailable is returned when a token cannot be checked because
	// Redis or the database is down. The token itself may be fine.
	errAuthUnavailable = core.UnavailableError("authentication is temporarily unavailable")
)

type UserInfo struct {
	ID           string
	Email        string
	TokenVersion int
	CreatedAt    time.Time
}

// UserProvider is the slice of the identity store that authentication
// depends on.
type UserProvider interface {
	// FindByCredentials returns nil, nil when the email is unknown or the
	// password does not match.
	FindByCredentials(ctx context.Context, email, password string) (*UserInfo, error)
	Create(ctx context.Context, email, password string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, id string) error
}

type Service struct {
	jwt       *JWTManager
	users     UserProvider
	blacklist Blacklist
}

func NewService(jwt *JWTManager, users UserProvider, blacklist Blacklist) *Service {
	return &Service{
		jwt:       jwt,
		users:     users,
		blacklist: blacklist,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserInfo, error) {
	user, err := s.users.Create(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("register: %w", core.DuplicateError("user with this email"))
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*LoginResponse, error) {
	user, err := s.users.FindByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("login: %w", ErrInvalidCredentials)
	}

	issued, err := s.jwt.CreateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &LoginResponse{
		Token:     issued.Token,
		Message:   loginMessage,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := s.blacklist.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// LogoutAll invalidates every token issued to the user so far.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return nil
}

// VerifyAccessToken implements middleware.TokenVerifier. On top of the
// signature and expiry checks it rejects blacklisted tokens and tokens
// minted before the user's last logout-all.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		slog.ErrorContext(ctx, "token blacklist lookup failed", "error", err)
		return nil, fmt.Errorf("verify token: %w", errAuthUnavailable)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		slog.ErrorContext(ctx, "token owner lookup failed", "error", err)
		return nil, fmt.Errorf("verify token: %w", errAuthUnavailable)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

var _ middleware.TokenVerifier = (*Service)(nil)
