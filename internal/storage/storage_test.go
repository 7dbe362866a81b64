package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgtnav/internal/slogutil"
)

func openTestDB(t *testing.T, root string) *DB {
	t.Helper()
	db, err := Open(root, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesSchema(t *testing.T) {
	root := t.TempDir()
	db := openTestDB(t, root)

	assert.Equal(t, filepath.Join(root, ".lgtnav", "cache.db"), db.Path())

	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	root := t.TempDir()
	logger := slogutil.NewDiscardLogger()

	db, err := Open(root, logger)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO result_entries (root, kind, file_key, seq, item_key, line, payload_json, updated_at)
		VALUES ('r', 'metrics', '/a.lgt', 0, 'k', 1, '{}', 'now')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openTestDB(t, root)
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM result_entries").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpen_MigratesVersionOne(t *testing.T) {
	root := t.TempDir()
	logger := slogutil.NewDiscardLogger()

	db, err := Open(root, logger)
	require.NoError(t, err)
	_, err = db.Exec("DROP TABLE staleness_flags")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openTestDB(t, root)
	version, err := db.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM staleness_flags").Scan(&n))
	assert.Zero(t, n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	err := db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO result_entries (root, kind, file_key, seq, item_key, line, payload_json, updated_at)
			VALUES ('r', 'tests', '/a.lgt', 0, 'k', 1, '{}', 'now')`)
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM result_entries").Scan(&n))
	assert.Zero(t, n)
}
