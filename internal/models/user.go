package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	IsVerified      bool       `json:"is_verified"`
	LastEmailSentAt *time.Time `json:"last_email_sent_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MarkVerified flips the verified flag. It never reverts.
func (u *User) MarkVerified() {
	u.IsVerified = true
}

func (u *User) TouchEmailSent(at time.Time) {
	u.LastEmailSentAt = &at
}

type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) ToPublic() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
