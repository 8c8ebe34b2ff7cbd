// Package users manages accounts: the identity behind every session
// principal and post author.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/wrenhq/wren/internal/db"
)

var (
	// ErrInvalidCredentials is returned on unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveUser is returned when the account is disabled.
	ErrInactiveUser = errors.New("user is inactive")
	// ErrEmptyDisplayName is returned when a profile update carries a
	// blank display name.
	ErrEmptyDisplayName = errors.New("display name is empty")
	// ErrUsernameTaken is returned when creating a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
)

// Service provides account reads and writes.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a users service backed by the given pool.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "users")),
	}
}

const userColumns = "id, username, display_name, avatar_url, is_active, created_at"

// Get returns one account by ID.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("users service not configured")
	}
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return User{}, err
	}
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", pgID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	return user, nil
}

// Login validates credentials and returns the account.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("users service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return User{}, ErrInvalidCredentials
	}

	row := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+", password_hash FROM users WHERE username = $1", username)
	var (
		id          pgtype.UUID
		name        string
		displayName pgtype.Text
		avatarURL   pgtype.Text
		isActive    bool
		createdAt   pgtype.Timestamptz
		hash        string
	)
	if err := row.Scan(&id, &name, &displayName, &avatarURL, &isActive, &createdAt, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !isActive {
		return User{}, ErrInactiveUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{
		ID:          db.UUIDToString(id),
		Username:    name,
		DisplayName: db.TextToString(displayName),
		AvatarURL:   db.TextToString(avatarURL),
		IsActive:    isActive,
		CreatedAt:   db.TimeFromPg(createdAt),
	}, nil
}

// Create inserts a new account with a bcrypt password hash. The display
// name defaults to the username.
func (s *Service) Create(ctx context.Context, req CreateRequest) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("users service not configured")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return User{}, ErrInvalidCredentials
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	row := s.pool.QueryRow(ctx,
		"INSERT INTO users (username, display_name, password_hash) VALUES ($1, $2, $3) RETURNING "+userColumns,
		username, displayName, string(hashed))
	user, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return user, nil
}

// Count returns the number of accounts.
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("users service not configured")
	}
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&count)
	return count, err
}

// UpdateProfile applies a partial profile update. A present-but-blank
// display name is rejected with ErrEmptyDisplayName; a nil field is left
// unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (User, error) {
	if s.pool == nil {
		return User{}, fmt.Errorf("users service not configured")
	}
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return User{}, ErrEmptyDisplayName
	}
	pgID, err := db.ParseUUID(userID)
	if err != nil {
		return User{}, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE users SET
			display_name = COALESCE($2, display_name),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = now()
		WHERE id = $1 RETURNING `+userColumns,
		pgID, textPtr(req.DisplayName), textPtr(req.AvatarURL))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	return user, nil
}

func textPtr(value *string) pgtype.Text {
	if value == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: strings.TrimSpace(*value), Valid: true}
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id          pgtype.UUID
		username    string
		displayName pgtype.Text
		avatarURL   pgtype.Text
		isActive    bool
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &username, &displayName, &avatarURL, &isActive, &createdAt); err != nil {
		return User{}, err
	}
	return User{
		ID:          db.UUIDToString(id),
		Username:    username,
		DisplayName: db.TextToString(displayName),
		AvatarURL:   db.TextToString(avatarURL),
		IsActive:    isActive,
		CreatedAt:   db.TimeFromPg(createdAt),
	}, nil
}
