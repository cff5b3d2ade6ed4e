package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stationdesk-server/internal/apperr"
)

type Service struct {
	repository Repository
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repository Repository, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repository,
		ttl:        ttl,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
	}
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login checks the credentials and opens a fresh session. Any other session
// of the same user is dropped afterwards.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.repository.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return Session{}, apperr.Unauthorized("invalid username or password")
	}
	if err != nil {
		return Session{}, apperr.Server("failed to log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, apperr.Unauthorized("invalid username or password")
	}

	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		StationID: user.StationID,
		ExpiresAt: s.now().UTC().Add(s.ttl).Truncate(time.Second),
	}
	if err := s.repository.CreateSession(ctx, session); err != nil {
		return Session{}, apperr.Server("failed to log in", err)
	}
	dropped, err := s.repository.DeleteOtherSessions(ctx, user.ID, session.ID)
	if err != nil {
		s.logger.Warn("drop previous sessions failed", "user_id", user.ID, "error", err)
	} else if dropped > 0 {
		s.logger.Info("previous sessions dropped", "user_id", user.ID, "count", dropped)
	}
	return session, nil
}

// Resolve returns the live session for id. Unknown and expired ids resolve
// to nil without an error; expired rows are removed on the way.
func (s *Service) Resolve(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	session, err := s.repository.GetSession(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Server("failed to load session", err)
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.repository.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("delete expired session failed", "error", err)
		}
		return nil, nil
	}
	return &session, nil
}

func (s *Service) Logout(ctx context.Context, id string) error {
	if err := s.repository.DeleteSession(ctx, id); err != nil {
		return apperr.Server("failed to log out", err)
	}
	return nil
}

// PurgeExpired deletes sessions whose expiry has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repository.DeleteExpiredSessions(ctx, s.now())
}
