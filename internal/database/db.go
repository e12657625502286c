package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Fatebook/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New opens a PostgreSQL connection, waiting up to a minute for the server to accept it.
// The caller must import the lib/pq driver.
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = time.Minute
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("Database not ready")
	}
	if err := backoff.RetryNotify(func() error { return db.PingContext(ctx) }, backoff.WithContext(strategy, ctx), notify); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return Wrap(ctx, db)
}

// Wrap uses an existing connection and ensures the schema exists.
func Wrap(ctx context.Context, db *sql.DB) (*DB, error) {
	if err := createTables(ctx, db); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// GetSettings retrieves a user's settings. It returns nil when none are stored.
func (db *DB) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	var s models.UserSettings

	err := db.QueryRowContext(ctx, `
		SELECT user_id, chat_id, api_key, updated_at
		FROM user_settings
		WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.ChatID, &s.APIKey, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

// SaveSettings creates or replaces a user's settings
func (db *DB) SaveSettings(ctx context.Context, userID, chatID int64, apiKey string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, chat_id, api_key, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			api_key = EXCLUDED.api_key,
			updated_at = EXCLUDED.updated_at
	`, userID, chatID, apiKey, time.Now().UTC())

	return err
}

// DeleteSettings removes a user's settings
func (db *DB) DeleteSettings(ctx context.Context, userID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID)
	return err
}
