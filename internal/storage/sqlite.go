package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/xaenox/assistant-bot/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
PRAGMA busy_timeout = 5000;
CREATE TABLE IF NOT EXISTS users (
	user_id        TEXT PRIMARY KEY,
	external_id    INTEGER NOT NULL UNIQUE,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	phone_source   TEXT NOT NULL DEFAULT '',
	display_handle TEXT NOT NULL DEFAULT '',
	registered_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chats (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL REFERENCES users (user_id),
	external_id INTEGER NOT NULL,
	message     TEXT NOT NULL,
	role        TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user_created ON chats (user_id, created_at);
`

// SQLiteStorage keeps users and chats in a single SQLite file. Timestamps are
// stored as unix nanoseconds.
type SQLiteStorage struct {
	db *sqlx.DB
	// serializes writers to avoid SQLITE_BUSY under concurrent senders
	writeMu sync.Mutex
}

type sqliteUserRow struct {
	UserID        uuid.UUID `db:"user_id"`
	ExternalID    int64     `db:"external_id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Phone         string    `db:"phone"`
	PhoneSource   string    `db:"phone_source"`
	DisplayHandle string    `db:"display_handle"`
	RegisteredAt  int64     `db:"registered_at"`
}

type sqliteChatRow struct {
	ID         int64     `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	ExternalID int64     `db:"external_id"`
	Message    string    `db:"message"`
	Role       string    `db:"role"`
	CreatedAt  int64     `db:"created_at"`
}

// NewSQLiteStorage opens (creating if needed) <dir>/<name>.db.
func NewSQLiteStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*SQLiteStorage, error) {
	dbPath := filepath.Join(config.URI, config.Name+".db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Opened SQLite storage", zap.String("path", dbPath))
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) FindUser(ctx context.Context, externalID int64) (*models.UserProfile, error) {
	var row sqliteUserRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, external_id, first_name, last_name, phone, phone_source, display_handle, registered_at
		FROM users WHERE external_id = ?`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	return &models.UserProfile{
		UserID:        row.UserID,
		ExternalID:    row.ExternalID,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Phone:         row.Phone,
		PhoneSource:   models.PhoneSource(row.PhoneSource),
		DisplayHandle: row.DisplayHandle,
		RegisteredAt:  time.Unix(0, row.RegisteredAt).UTC(),
	}, nil
}

func (s *SQLiteStorage) InsertUser(ctx context.Context, user *models.UserProfile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, external_id, first_name, last_name, phone, phone_source, display_handle, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UserID.String(), user.ExternalID, user.FirstName, user.LastName, user.Phone,
		string(user.PhoneSource), user.DisplayHandle, user.RegisteredAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) AppendChat(ctx context.Context, record *models.ChatRecord) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (user_id, external_id, message, role, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		record.UserID.String(), record.ExternalID, record.Message, string(record.Role), record.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListChats(ctx context.Context, q ChatQuery) ([]models.ChatRecord, error) {
	query, args := chatListQuery(q, q.Since.UnixNano(), q.Until.UnixNano())
	args[0] = q.UserID.String()

	var rows []sqliteChatRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}

	records := make([]models.ChatRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.ChatRecord{
			UserID:     row.UserID,
			ExternalID: row.ExternalID,
			Message:    row.Message,
			Role:       models.Role(row.Role),
			Timestamp:  time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return records, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
