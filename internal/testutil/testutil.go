// Package testutil builds the real dependencies used by package tests:
// an embedded sqlite database with the full schema and a no-op logger.
package testutil

import (
	"chatcord-backend/internal/database"
	"chatcord-backend/internal/keyValue"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/snowflake"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func Logger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func Config(t *testing.T) *models.ConfigFile {
	t.Helper()
	return &models.ConfigFile{
		SelfContained:     true,
		SqlitePath:        filepath.Join(t.TempDir(), "test.db"),
		JwtSecret:         "test-secret",
		FriendPolicy:      "symmetric",
		DefaultAvatar:     "default.webp",
		SnowflakeWorkerID: 1,
	}
}

func DB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Setup(Config(t), Logger())
	if err != nil {
		t.Fatalf("setting up sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})
	return db
}

// InsertProfile adds a bare profile row, bypassing the profiles service.
func InsertProfile(t *testing.T, db *sql.DB, id int64, displayName string) {
	t.Helper()

	_, err := db.Exec("INSERT INTO profiles (id, display_name) VALUES (?, ?)", id, displayName)
	if err != nil {
		t.Fatalf("inserting profile %d: %v", id, err)
	}
}

// KV returns a local key-value store that stops sweeping when the test ends.
func KV(t *testing.T) *keyValue.Store {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return keyValue.New(ctx, Logger(), nil)
}

func IDs(t *testing.T) *snowflake.Generator {
	t.Helper()

	ids, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}
	return ids
}
