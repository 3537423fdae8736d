// Package session implements the registration dialogue: an explicit per-sender
// state machine whose partial data never leaves process memory.
package session

import "github.com/xaenox/assistant-bot/internal/models"

// Step is the position of a sender in the registration dialogue
type Step int

const (
	AwaitingFirstName Step = iota + 1
	AwaitingLastName
	AwaitingPhone
	Complete
)

func (s Step) String() string {
	switch s {
	case AwaitingFirstName:
		return "awaiting_first_name"
	case AwaitingLastName:
		return "awaiting_last_name"
	case AwaitingPhone:
		return "awaiting_phone"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session is the ephemeral progress of one sender. Skipped optional fields
// stay unset and are persisted as empty strings.
type Session struct {
	Step        Step
	FirstName   string
	LastName    models.Optional[string]
	Phone       models.Optional[string]
	PhoneSource models.PhoneSource
}
