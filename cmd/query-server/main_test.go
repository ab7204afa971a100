package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER)`)
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err = db.Exec(`INSERT INTO users (name) VALUES (?)`, "user")
		require.NoError(t, err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	db := testDB(t)
	names, err := tableNames(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, names)
}

func TestDescribe(t *testing.T) {
	db := testDB(t)

	desc, err := describe(context.Background(), db, "users")
	require.NoError(t, err)
	assert.Contains(t, desc, "id INTEGER")
	assert.Contains(t, desc, "PRIMARY KEY")
	assert.Contains(t, desc, "name TEXT NOT NULL")

	_, err = describe(context.Background(), db, "missing")
	require.Error(t, err)

	_, err = describe(context.Background(), db, "users; DROP TABLE users")
	require.Error(t, err)
}

func TestRunQuery(t *testing.T) {
	db := testDB(t)

	out, err := runQuery(context.Background(), db, "SELECT id, name FROM users ORDER BY id LIMIT 2")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"user"`)

	out, err = runQuery(context.Background(), db, "SELECT id FROM orders")
	require.NoError(t, err)
	assert.Equal(t, "no rows", out)
}

func TestRunQuery_RowCap(t *testing.T) {
	db := testDB(t)

	out, err := runQuery(context.Background(), db, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Contains(t, out, "(truncated to 10 rows)")
}

func TestRunQuery_RejectsWrites(t *testing.T) {
	db := testDB(t)

	for _, stmt := range []string{
		"DELETE FROM users",
		"INSERT INTO users (name) VALUES ('x')",
		"UPDATE users SET name = 'x'",
		"DROP TABLE users",
	} {
		_, err := runQuery(context.Background(), db, stmt)
		require.Error(t, err, stmt)
		assert.Contains(t, err.Error(), "SELECT")
	}
}

func TestIsSelect(t *testing.T) {
	assert.True(t, isSelect("SELECT 1"))
	assert.True(t, isSelect("  select id from users"))
	assert.True(t, isSelect("WITH t AS (SELECT 1) SELECT * FROM t"))
	assert.False(t, isSelect("DELETE FROM users"))
	assert.False(t, isSelect(""))
}
