package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"docbrief/internal/database"
	"docbrief/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour

	tokenBytes = 32
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrUserExists         = errors.New("email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrInvalidSession     = errors.New("session is missing or expired")
)

// Store is the persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UserExists(ctx context.Context, email string, username string) (bool, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (domain.User, error)
	UpdateUserProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (domain.User, error)
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, token string) (domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	cost  int
	log   *slog.Logger
}

func NewService(store Store, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Service{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		cost:  bcrypt.DefaultCost,
		log:   log,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Name == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		return domain.User{}, ErrMissingFields
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.User{}, ErrInvalidEmail
	}

	exists, err := s.store.UserExists(ctx, in.Email, in.Username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check user: %w", err)
	}

	if exists {
		return domain.User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return domain.User{}, ErrUserExists
		}

		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "User is registered",
		"userID", user.ID,
		"username", user.Username)

	return user, nil
}

// Login checks the password of the user identified by email or username
// and opens a new session.
func (s *Service) Login(ctx context.Context, identifier string, password string) (domain.Session, error) {
	identifier = strings.TrimSpace(identifier)
	password = strings.TrimSpace(password)

	if identifier == "" || password == "" {
		return domain.Session{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return domain.Session{}, ErrInvalidCredentials
		}

		return domain.Session{}, fmt.Errorf("get user: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Session{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return domain.Session{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	session := domain.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err = s.store.CreateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.log.InfoContext(ctx, "User is logged in",
		"userID", user.ID)

	return session, nil
}

// Authenticate resolves a session token to its user id.
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}

	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrInvalidSession
		}

		return 0, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if err = s.store.DeleteSession(ctx, token); err != nil {
			s.log.WarnContext(ctx, "Failed to delete expired session",
				"error", err,
				"userID", session.UserID)
		}

		return 0, ErrInvalidSession
	}

	return session.UserID, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *Service) User(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return domain.User{}, ErrInvalidSession
		}

		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (domain.User, error) {
	for _, v := range []*string{update.Name, update.Email, update.Username} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return domain.User{}, ErrMissingFields
		}
	}

	if update.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*update.Email)); err != nil {
			return domain.User{}, ErrInvalidEmail
		}
	}

	user, err := s.store.UpdateUserProfile(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrConflict):
			return domain.User{}, ErrUserExists
		case errors.Is(err, database.ErrNotFound):
			return domain.User{}, ErrInvalidSession
		}

		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

// PurgeExpired drops sessions past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
