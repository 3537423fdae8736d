package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/assistant-bot/internal/models"
	"go.uber.org/zap"
)

const (
	msgAskFirstName    = "Hi! I am your AI assistant. Let's start with your registration.\n\nWhat is your first name?"
	msgFirstNameEmpty  = "Please tell me your first name."
	msgAskLastName     = "Great! Now, please tell me your last name, or send /skip if you don't want to share it."
	msgLastNameEmpty   = "Please tell me your last name, or send /skip."
	msgAskPhone        = "Great! Now, please share your contact, or send /skip."
	msgAskPhoneSkipped = "I see! Please share your contact, or send /skip."
	msgPhoneEmpty      = "Please share your contact, type your phone number, or send /skip."

	msgRegistered = "Thank you! You are now registered. You can start chatting with me!\n\n" +
		"Send me messages and I will respond using AI.\n" +
		"Send me images and I will analyze them.\n" +
		"Use /help to see all available commands."

	msgRegistrationFailed = "Sorry, there was an error during registration. Please try again later."
	msgCancelled          = "Registration cancelled. You can start again with /start"
)

// UserWriter is the persistence needed to finalize a registration.
type UserWriter interface {
	InsertUser(ctx context.Context, user *models.UserProfile) error
}

// Machine drives the registration dialogue.
type Machine struct {
	table  *Table
	users  UserWriter
	logger *zap.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

type Option func(*Machine)

// WithClock overrides the registration timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDGenerator overrides user_id generation.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(m *Machine) { m.newID = newID }
}

func NewMachine(table *Table, users UserWriter, logger *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		table:  table,
		users:  users,
		logger: logger.Named("session"),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Active reports whether the sender is mid-registration.
func (m *Machine) Active(externalID int64) bool {
	return m.table.Active(externalID)
}

// Start opens a fresh session, dropping any stale partial fields.
func (m *Machine) Start(sender models.Sender) models.Reply {
	m.table.Begin(sender.ExternalID)
	m.logger.Info("Registration started", zap.Int64("external_id", sender.ExternalID))
	return models.Reply{Text: msgAskFirstName, Keyboard: models.KeyboardRemove}
}

// Cancel discards the sender's session without creating a profile and
// reports whether a session existed.
func (m *Machine) Cancel(sender models.Sender) (models.Reply, bool) {
	existed := m.table.Discard(sender.ExternalID)
	if existed {
		m.logger.Info("Registration cancelled", zap.Int64("external_id", sender.ExternalID))
	}
	return models.Reply{Text: msgCancelled, Keyboard: models.KeyboardRemove}, existed
}

// Handle feeds one event from a sender with an active session into the dialogue.
func (m *Machine) Handle(ctx context.Context, ev models.Event) models.Reply {
	switch {
	case ev.IsCommand(models.CommandStart):
		return m.Start(ev.Sender)
	case ev.IsCommand(models.CommandCancel):
		reply, _ := m.Cancel(ev.Sender)
		return reply
	}

	var reply models.Reply
	result, ok := m.table.Advance(ev.Sender.ExternalID, func(s *Session) {
		reply = transition(s, ev)
	})
	if !ok {
		// lost a race with cancel from another update; treat as a fresh start
		return m.Start(ev.Sender)
	}

	if result.Step != Complete {
		m.logger.Debug("Registration step",
			zap.Int64("external_id", ev.Sender.ExternalID),
			zap.Stringer("step", result.Step))
		return reply
	}
	return m.finalize(ctx, ev, result)
}

// transition applies ev to s. Commands other than skip are taken literally
// where free text is expected.
func transition(s *Session, ev models.Event) models.Reply {
	switch s.Step {
	case AwaitingFirstName:
		text := freeText(ev)
		if text == "" {
			return models.Text(msgFirstNameEmpty)
		}
		s.FirstName = text
		s.Step = AwaitingLastName
		return models.Text(msgAskLastName)

	case AwaitingLastName:
		if ev.IsCommand(models.CommandSkip) {
			s.LastName = models.None[string]()
			s.Step = AwaitingPhone
			return models.Reply{Text: msgAskPhoneSkipped, Keyboard: models.KeyboardRequestContact}
		}
		text := freeText(ev)
		if text == "" {
			return models.Text(msgLastNameEmpty)
		}
		s.LastName = models.Some(text)
		s.Step = AwaitingPhone
		return models.Reply{Text: msgAskPhone, Keyboard: models.KeyboardRequestContact}

	case AwaitingPhone:
		switch {
		case ev.Kind == models.EventContact && strings.TrimSpace(ev.Phone) != "":
			s.Phone = models.Some(strings.TrimSpace(ev.Phone))
			s.PhoneSource = models.PhoneContact
		case ev.IsCommand(models.CommandSkip):
			s.Phone = models.None[string]()
			s.PhoneSource = models.PhoneSkipped
		default:
			text := freeText(ev)
			if text == "" {
				return models.Reply{Text: msgPhoneEmpty, Keyboard: models.KeyboardRequestContact}
			}
			s.Phone = models.Some(text)
			s.PhoneSource = models.PhoneText
		}
		s.Step = Complete
		return models.Reply{}
	}
	return models.Text(msgFirstNameEmpty)
}

func freeText(ev models.Event) string {
	switch ev.Kind {
	case models.EventText, models.EventCommand:
		return strings.TrimSpace(ev.Text)
	default:
		return ""
	}
}

func (m *Machine) finalize(ctx context.Context, ev models.Event, s Session) models.Reply {
	sender := ev.Sender
	user := &models.UserProfile{
		UserID:        m.newID(),
		ExternalID:    sender.ExternalID,
		FirstName:     s.FirstName,
		LastName:      s.LastName.OrZero(),
		Phone:         s.Phone.OrZero(),
		PhoneSource:   s.PhoneSource,
		DisplayHandle: sender.Username,
		RegisteredAt:  m.now().UTC(),
	}

	if err := m.users.InsertUser(ctx, user); err != nil {
		m.logger.Error("Error storing user data",
			zap.Error(err),
			zap.Int64("external_id", sender.ExternalID),
			zap.String("kind", string(ev.Kind)))
		return models.Reply{Text: msgRegistrationFailed, Keyboard: models.KeyboardRemove}
	}

	m.logger.Info("User registered",
		zap.Int64("external_id", sender.ExternalID),
		zap.String("user_id", user.UserID.String()))
	return models.Reply{Text: msgRegistered, Keyboard: models.KeyboardRemove}
}
