package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"docbrief/internal/domain"
)

const userColumns = "id, name, email, username, password_hash, created_at"

func (d *Database) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	user.Username = strings.TrimSpace(user.Username)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `insert into users (name, email, username, password_hash, created_at)
	values (?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Username, user.PasswordHash, user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrConflict
		}

		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	if user.ID, err = res.LastInsertId(); err != nil {
		return domain.User{}, fmt.Errorf("fetch user id: %w", err)
	}

	user.CreatedAt = time.Unix(user.CreatedAt.Unix(), 0).UTC()

	return user, nil
}

// UserExists reports whether the email or the username is already taken.
func (d *Database) UserExists(ctx context.Context, email string, username string) (bool, error) {
	query := "select exists (select 1 from users where email = ? or username = ?)"

	var exists bool
	if err := d.db.QueryRowContext(ctx, query,
		strings.TrimSpace(email), strings.TrimSpace(username)).Scan(&exists); err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}

	return exists, nil
}

// GetUserByIdentifier looks a user up by email or username.
func (d *Database) GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	query := "select " + userColumns + " from users where email = ? or username = ? order by id limit 1"

	return scanUser(d.db.QueryRowContext(ctx, query, identifier, identifier))
}

func (d *Database) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	query := "select " + userColumns + " from users where id = ?"

	return scanUser(d.db.QueryRowContext(ctx, query, userID))
}

func (d *Database) UpdateUserProfile(
	ctx context.Context,
	userID int64,
	update domain.ProfileUpdate,
) (domain.User, error) {
	var (
		sets []string
		args []any
	)

	for column, value := range map[string]*string{
		"name":     update.Name,
		"email":    update.Email,
		"username": update.Username,
	} {
		if value == nil {
			continue
		}

		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return domain.User{}, fmt.Errorf("%s is empty", column)
		}

		sets = append(sets, column+" = ?")
		args = append(args, trimmed)
	}

	if len(sets) > 0 {
		query := "update users set " + strings.Join(sets, ", ") + " where id = ?"

		res, err := d.db.ExecContext(ctx, query, append(args, userID)...)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.User{}, ErrConflict
			}

			return domain.User{}, fmt.Errorf("update user: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.User{}, ErrNotFound
		}
	}

	return d.GetUserByID(ctx, userID)
}

func (d *Database) CreateSession(ctx context.Context, session domain.Session) error {
	query := "insert into sessions (token, user_id, created_at, expires_at) values (?, ?, ?, ?)"

	_, err := d.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}

		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (d *Database) GetSession(ctx context.Context, token string) (domain.Session, error) {
	query := "select token, user_id, created_at, expires_at from sessions where token = ?"

	var (
		s                  domain.Session
		created, expiresAt int64
	)

	err := d.db.QueryRowContext(ctx, query, token).Scan(&s.Token, &s.UserID, &created, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, ErrNotFound
		}

		return domain.Session{}, fmt.Errorf("query session: %w", err)
	}

	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return s, nil
}

func (d *Database) DeleteSession(ctx context.Context, token string) error {
	_, err := d.db.ExecContext(ctx, "delete from sessions where token = ?", token)

	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (d *Database) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "delete from sessions where expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}

	return res.RowsAffected()
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u       domain.User
		created int64
	)

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}

		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}

	u.CreatedAt = time.Unix(created, 0).UTC()

	return u, nil
}
