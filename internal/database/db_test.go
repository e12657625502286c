package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_settings").WillReturnResult(sqlmock.NewResult(0, 0))

	db, err := Wrap(context.Background(), conn)
	require.NoError(t, err)
	return db, mock
}

func TestWrapCreateTableError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_settings").WillReturnError(errors.New("permission denied"))

	_, err = Wrap(context.Background(), conn)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettings(t *testing.T) {
	db, mock := newMockDB(t)
	updated := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, chat_id, api_key, updated_at FROM user_settings").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "chat_id", "api_key", "updated_at"}).
			AddRow(int64(42), int64(100), "key", updated))

	settings, err := db.GetSettings(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, settings)

	assert.Equal(t, int64(100), settings.ChatID)
	assert.Equal(t, "key", settings.APIKey)
	assert.Equal(t, updated, settings.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSettingsNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT user_id").WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)

	settings, err := db.GetSettings(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestGetSettingsError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT user_id").WithArgs(int64(7)).WillReturnError(errors.New("connection reset"))

	_, err := db.GetSettings(context.Background(), 7)
	assert.Error(t, err)
}

func TestSaveSettingsUpserts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs(int64(42), int64(100), "new-key", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.SaveSettings(context.Background(), 42, 100, "new-key"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSettings(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM user_settings").WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.DeleteSettings(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
