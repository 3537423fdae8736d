package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/assistant-bot/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("storage: not found")
	// ErrUserExists is returned when a profile with the same external id is already stored.
	ErrUserExists = errors.New("storage: user already exists")
)

// UserStore persists registered user profiles.
type UserStore interface {
	FindUser(ctx context.Context, externalID int64) (*models.UserProfile, error)
	InsertUser(ctx context.Context, user *models.UserProfile) error
}

// ChatStore is the append-only chat history.
type ChatStore interface {
	AppendChat(ctx context.Context, record *models.ChatRecord) error
	ListChats(ctx context.Context, query ChatQuery) ([]models.ChatRecord, error)
}

// ChatQuery selects the chat history of one user. Zero Since/Until leave the
// range open on that side, zero Limit returns everything. When Limit is set the
// most recent records are kept. Results are ordered oldest first.
type ChatQuery struct {
	UserID uuid.UUID
	Since  time.Time
	Until  time.Time
	Limit  int
}

func (q ChatQuery) matches(r *models.ChatRecord) bool {
	if r.UserID != q.UserID {
		return false
	}
	if !q.Since.IsZero() && r.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !r.Timestamp.Before(q.Until) {
		return false
	}
	return true
}

type Storage interface {
	UserStore
	ChatStore
	Ping(ctx context.Context) error
	Close() error
}
