package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/xaenox/assistant-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const uniqueViolation = "23505"

type DatabaseConfig struct {
	URI  string
	Name string
}

// DSN returns the connection URL for the configured database.
func (c DatabaseConfig) DSN() (string, error) {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "", fmt.Errorf("parse storage uri: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported storage uri scheme %q", u.Scheme)
	}
	if c.Name != "" {
		u.Path = "/" + c.Name
	}
	return u.String(), nil
}

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type postgresChatRow struct {
	ID int64 `db:"id"`
	models.ChatRecord
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(connectCtx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(60 * time.Minute)

	if err := runPostgresMigrations(dsn, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL", zap.String("database", config.Name))
	return &PostgresStorage{db: db, logger: logger}, nil
}

func runPostgresMigrations(dsn string, logger *zap.Logger) error {
	src, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("error initializing migrations: %w", err)
	}
	defer m.Close()

	fromVer, _, _ := m.Version()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("Schema up to date", zap.Uint("version", fromVer))
			return nil
		}
		return fmt.Errorf("error executing migrations: %w", err)
	}

	toVer, _, _ := m.Version()
	logger.Info("Applied migrations", zap.Uint("from_version", fromVer), zap.Uint("to_version", toVer))
	return nil
}

func (s *PostgresStorage) FindUser(ctx context.Context, externalID int64) (*models.UserProfile, error) {
	query := `
		SELECT user_id, external_id, first_name, last_name, phone, phone_source, display_handle, registered_at
		FROM users
		WHERE external_id = $1`

	var user models.UserProfile
	if err := s.db.GetContext(ctx, &user, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	user.RegisteredAt = user.RegisteredAt.UTC()
	return &user, nil
}

func (s *PostgresStorage) InsertUser(ctx context.Context, user *models.UserProfile) error {
	query := `
		INSERT INTO users (user_id, external_id, first_name, last_name, phone, phone_source, display_handle, registered_at)
		VALUES (:user_id, :external_id, :first_name, :last_name, :phone, :phone_source, :display_handle, :registered_at)`

	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) AppendChat(ctx context.Context, record *models.ChatRecord) error {
	query := `
		INSERT INTO chats (user_id, external_id, message, role, created_at)
		VALUES (:user_id, :external_id, :message, :role, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("error appending chat: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListChats(ctx context.Context, q ChatQuery) ([]models.ChatRecord, error) {
	query, args := chatListQuery(q, q.Since, q.Until)

	var rows []postgresChatRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}

	records := make([]models.ChatRecord, 0, len(rows))
	for _, row := range rows {
		row.Timestamp = row.Timestamp.UTC()
		records = append(records, row.ChatRecord)
	}
	return records, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
