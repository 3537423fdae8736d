package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat turn
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// PhoneSource records how the phone number was obtained during registration
type PhoneSource string

const (
	PhoneSkipped PhoneSource = ""
	PhoneText    PhoneSource = "text"
	PhoneContact PhoneSource = "contact"
)

// UserProfile is a registered user. It is written once when onboarding completes.
type UserProfile struct {
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	ExternalID    int64       `json:"external_id" db:"external_id"`
	FirstName     string      `json:"first_name" db:"first_name"`
	LastName      string      `json:"last_name" db:"last_name"`
	Phone         string      `json:"phone" db:"phone"`
	PhoneSource   PhoneSource `json:"phone_source" db:"phone_source"`
	DisplayHandle string      `json:"display_handle" db:"display_handle"`
	RegisteredAt  time.Time   `json:"registered_at" db:"registered_at"`
}

// ChatRecord is one logged turn of a conversation
type ChatRecord struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ExternalID int64     `json:"external_id" db:"external_id"`
	Message    string    `json:"message" db:"message"`
	Role       Role      `json:"role" db:"role"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
}

// NewChatRecord builds a record for the given profile with a UTC timestamp.
func NewChatRecord(user *UserProfile, role Role, message string, at time.Time) *ChatRecord {
	return &ChatRecord{
		UserID:     user.UserID,
		ExternalID: user.ExternalID,
		Message:    message,
		Role:       role,
		Timestamp:  at.UTC(),
	}
}
