package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ProfileUpdate carries the user fields to change; nil fields are kept.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
}

type SummaryRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	Source       string    `json:"source"`
	Method       string    `json:"method"`
	Provider     string    `json:"provider,omitempty"`
	LengthTier   string    `json:"lengthTier,omitempty"`
	Summary      string    `json:"summary"`
	WordCountIn  int       `json:"wordCountIn"`
	WordCountOut int       `json:"wordCountOut"`
	CreatedAt    time.Time `json:"createdAt"`
}
