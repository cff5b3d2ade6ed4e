package auth

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"
)

//go:embed sql/get-user-by-username.sql
var getUserByUsernameSQL string

//go:embed sql/upsert-user.sql
var upsertUserSQL string

//go:embed sql/insert-session.sql
var insertSessionSQL string

//go:embed sql/get-session.sql
var getSessionSQL string

//go:embed sql/delete-session.sql
var deleteSessionSQL string

//go:embed sql/delete-other-sessions.sql
var deleteOtherSessionsSQL string

//go:embed sql/delete-expired-sessions.sql
var deleteExpiredSessionsSQL string

var ErrNotFound = errors.New("not found")

type Repository interface {
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpsertUser(ctx context.Context, u User) error
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteOtherSessions(ctx context.Context, userID, keepID string) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	var role string
	err := r.db.QueryRowContext(ctx, getUserByUsernameSQL, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.StationID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %q: %w", username, err)
	}
	u.Role = Role(role)
	return u, nil
}

func (r *repositoryImpl) UpsertUser(ctx context.Context, u User) error {
	var station any
	if u.StationID != "" {
		station = u.StationID
	}
	if _, err := r.db.ExecContext(ctx, upsertUserSQL, u.ID, u.Username, u.PasswordHash, string(u.Role), station); err != nil {
		return fmt.Errorf("upsert user %q: %w", u.Username, err)
	}
	return nil
}

func (r *repositoryImpl) CreateSession(ctx context.Context, s Session) error {
	if _, err := r.db.ExecContext(ctx, insertSessionSQL, s.ID, s.UserID, s.ExpiresAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetSession(ctx context.Context, id string) (Session, error) {
	var s Session
	var role, expires string
	err := r.db.QueryRowContext(ctx, getSessionSQL, id).
		Scan(&s.ID, &s.UserID, &s.Username, &role, &s.StationID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	s.Role = Role(role)
	s.ExpiresAt, err = time.Parse(time.RFC3339, expires)
	if err != nil {
		return Session{}, fmt.Errorf("parse session expiry %q: %w", expires, err)
	}
	return s, nil
}

func (r *repositoryImpl) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *repositoryImpl) DeleteOtherSessions(ctx context.Context, userID, keepID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteOtherSessionsSQL, userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("delete other sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *repositoryImpl) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSessionsSQL, now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
