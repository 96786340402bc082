package database

import (
	"chatcord-backend/internal/models"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(db *sql.DB, sugar *zap.SugaredLogger) error {
	var foreignKeysValue bool
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysValue)
	if err != nil {
		return err
	}
	if !foreignKeysValue {
		return fmt.Errorf("sqlite foreign keys couldn't be enabled")
	}

	var journalModeValue string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}

	sugar.Debugf("sqlite PRAGMA foreign_keys: %t, journal_mode: %s", foreignKeysValue, journalModeValue)
	return nil
}

func Setup(cfg *models.ConfigFile, sugar *zap.SugaredLogger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if cfg.SelfContained {
		sugar.Infof("Connecting to database sqlite at %s...", cfg.SqlitePath)

		db, err = sql.Open("sqlite", cfg.SqlitePath)
		if err != nil {
			return nil, err
		}

		// there can be sqlite busy errors if this is not set to 1,
		// it also keeps the per connection foreign_keys pragma in effect
		db.SetMaxOpenConns(1)

		err = setPragmaValues(db)
		if err != nil {
			db.Close()
			return nil, err
		}

		err = readPragmaValues(db, sugar)
		if err != nil {
			db.Close()
			return nil, err
		}
	} else {
		sugar.Infof("Connecting to database mysql/mariadb at %s:%s...", cfg.DbAddress, cfg.DbPort)

		db, err = sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s", cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase))
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(10)

		err = db.Ping()
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	err = setupTables(db, cfg.SelfContained)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func setupTables(db *sql.DB, sqlite bool) error {
	// mysql refuses referential actions on columns used in CHECK constraints,
	// so messages and dm_rooms are removed explicitly before their parents
	tables := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id BIGINT PRIMARY KEY,
			display_name VARCHAR(64) NOT NULL,
			avatar VARCHAR(255) NOT NULL DEFAULT '',
			banner VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT '',
			status_text VARCHAR(128) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS servers (
			id BIGINT PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name VARCHAR(64) NOT NULL,
			created_at BIGINT NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS server_members (
			server_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			since TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (server_id, user_id),
			FOREIGN KEY (server_id) REFERENCES servers(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			id BIGINT PRIMARY KEY,
			server_id BIGINT NOT NULL,
			name VARCHAR(32) NOT NULL,
			FOREIGN KEY (server_id) REFERENCES servers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS friends (
			user_id BIGINT NOT NULL,
			friend_id BIGINT NOT NULL,
			since TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, friend_id),
			FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE,
			FOREIGN KEY (friend_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS dm_rooms (
			id BIGINT PRIMARY KEY,
			user_one BIGINT NOT NULL,
			user_two BIGINT NOT NULL,
			created_at BIGINT NOT NULL,
			UNIQUE (user_one, user_two),
			CHECK (user_one < user_two),
			FOREIGN KEY (user_one) REFERENCES profiles(id),
			FOREIGN KEY (user_two) REFERENCES profiles(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT PRIMARY KEY,
			author_id BIGINT NOT NULL,
			author_name VARCHAR(64) NOT NULL,
			avatar VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			channel_id BIGINT NULL,
			dm_room_id BIGINT NULL,
			created_at BIGINT NOT NULL,
			CHECK ((channel_id IS NULL) <> (dm_room_id IS NULL)),
			FOREIGN KEY (author_id) REFERENCES profiles(id) ON DELETE CASCADE,
			FOREIGN KEY (channel_id) REFERENCES channels(id),
			FOREIGN KEY (dm_room_id) REFERENCES dm_rooms(id)
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}

	// mysql indexes foreign key columns on its own and has no CREATE INDEX IF NOT EXISTS
	if sqlite {
		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_profiles_display_name ON profiles (display_name)",
			"CREATE INDEX IF NOT EXISTS idx_server_members_user ON server_members (user_id)",
			"CREATE INDEX IF NOT EXISTS idx_channels_server ON channels (server_id)",
			"CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages (channel_id, created_at)",
			"CREATE INDEX IF NOT EXISTS idx_messages_dm_room ON messages (dm_room_id, created_at)",
		}
		for _, index := range indexes {
			if _, err := db.Exec(index); err != nil {
				return err
			}
		}
	}

	return nil
}
