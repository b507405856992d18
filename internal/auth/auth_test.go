package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"docbrief/internal/database"
	"docbrief/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "auth.sqlite"), log)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewService(db, time.Hour, log)
	s.cost = bcrypt.MinCost
	s.now = func() time.Time { return now }

	return s, &now
}

func register(t *testing.T, s *Service) domain.User {
	t.Helper()

	u, err := s.Register(context.Background(), RegisterInput{
		Name:     "Ann",
		Email:    "ann@example.com",
		Username: "ann",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	u := register(t, s)
	if u.ID == 0 || u.PasswordHash == "secret" {
		t.Fatalf("unexpected user: %+v", u)
	}

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "missing", in: RegisterInput{Name: "B", Email: "b@example.com", Username: "b"}, want: ErrMissingFields},
		{name: "blank", in: RegisterInput{Name: " ", Email: "b@example.com", Username: "b", Password: "x"}, want: ErrMissingFields},
		{name: "email", in: RegisterInput{Name: "B", Email: "not-an-email", Username: "b", Password: "x"}, want: ErrInvalidEmail},
		{name: "duplicate email", in: RegisterInput{Name: "B", Email: "ann@example.com", Username: "b", Password: "x"}, want: ErrUserExists},
		{name: "duplicate username", in: RegisterInput{Name: "B", Email: "b@example.com", Username: "ann", Password: "x"}, want: ErrUserExists},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("Register() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s, now := newTestService(t)

	u := register(t, s)

	for _, identifier := range []string{"ann", "ann@example.com"} {
		session, err := s.Login(ctx, identifier, "secret")
		if err != nil {
			t.Fatalf("login with %q: %v", identifier, err)
		}

		if len(session.Token) != 2*tokenBytes || session.UserID != u.ID {
			t.Fatalf("unexpected session: %+v", session)
		}

		userID, err := s.Authenticate(ctx, session.Token)
		if err != nil || userID != u.ID {
			t.Fatalf("authenticate: %d, %v", userID, err)
		}
	}

	if _, err := s.Login(ctx, "ann", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := s.Login(ctx, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := s.Authenticate(ctx, "unknown"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	session, err := s.Login(ctx, "ann", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	*now = now.Add(2 * time.Hour)

	if _, err = s.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	register(t, s)

	session, err := s.Login(ctx, "ann", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err = s.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err = s.Authenticate(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after logout, got %v", err)
	}

	if err = s.Logout(ctx, ""); err != nil {
		t.Fatalf("logout without token: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	u := register(t, s)

	name := "Ann Smith"
	got, err := s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Name: &name})
	if err != nil || got.Name != name {
		t.Fatalf("unexpected profile: %+v, %v", got, err)
	}

	bad := "nope"
	if _, err = s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Email: &bad}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	blank := ""
	if _, err = s.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Username: &blank}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	s, now := newTestService(t)

	register(t, s)

	for range 2 {
		if _, err := s.Login(ctx, "ann", "secret"); err != nil {
			t.Fatalf("login: %v", err)
		}
	}

	*now = now.Add(time.Hour)

	removed, err := s.PurgeExpired(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("unexpected purge result: %d, %v", removed, err)
	}
}
