package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

const currentSchemaVersion = 2

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createResultEntriesTable(tx); err != nil {
			return err
		}
		if err := createStalenessFlagsTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)
	// version 0 means the file exists but was never initialized
	if version == 0 {
		return db.initializeSchema()
	}
	return db.WithTx(func(tx *sql.Tx) error {
		if version < 2 {
			if err := createStalenessFlagsTable(tx); err != nil {
				return err
			}
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// createResultEntriesTable stores cached result items. Rows of one
// (root, kind, file) partition are ordered by seq; item_key is unique
// within a partition.
func createResultEntriesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS result_entries (
			root TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_key TEXT NOT NULL,
			seq INTEGER NOT NULL,
			item_key TEXT NOT NULL,
			line INTEGER NOT NULL,
			payload_json TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (root, kind, file_key, item_key)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create result_entries table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_result_entries_order
		ON result_entries(root, kind, file_key, seq)
	`)
	if err != nil {
		return fmt.Errorf("failed to create result_entries index: %w", err)
	}
	return nil
}

// createStalenessFlagsTable stores whether cached results of a kind may be
// outdated, so the flag outlives the process that set it.
func createStalenessFlagsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS staleness_flags (
			root TEXT NOT NULL,
			kind TEXT NOT NULL,
			stale INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (root, kind)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create staleness_flags table: %w", err)
	}
	return nil
}
