package storage

import (
	"context"
	"sync"

	"github.com/xaenox/assistant-bot/internal/models"
)

type MemoryStorage struct {
	mu    sync.RWMutex
	users map[int64]*models.UserProfile
	chats []models.ChatRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[int64]*models.UserProfile),
	}
}

func (s *MemoryStorage) FindUser(ctx context.Context, externalID int64) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[externalID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) InsertUser(ctx context.Context, user *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ExternalID]; exists {
		return ErrUserExists
	}
	copied := *user
	s.users[user.ExternalID] = &copied
	return nil
}

func (s *MemoryStorage) AppendChat(ctx context.Context, record *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = append(s.chats, *record)
	return nil
}

// ListChats keeps insertion order, which is also timestamp order for appends.
func (s *MemoryStorage) ListChats(ctx context.Context, query ChatQuery) ([]models.ChatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.ChatRecord
	for i := range s.chats {
		if query.matches(&s.chats[i]) {
			result = append(result, s.chats[i])
		}
	}
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[len(result)-query.Limit:]
	}
	return result, nil
}

// Chats returns a snapshot of every appended record in order.
func (s *MemoryStorage) Chats() []models.ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.ChatRecord(nil), s.chats...)
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
