// Package testkit holds integration helpers: a migrated throwaway database,
// a cookie-aware API client, JSON scenario files and a mock mailer.
//
//	db := testkit.NewDB(t, migrations.All())
//	srv := testkit.NewServer(t, handler)
//	srv.Post("/api/auth/login", body).AssertStatus(t, http.StatusOK)
package testkit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/farmchain/farmchain/pkg/database"
	"github.com/farmchain/farmchain/pkg/migration"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a fresh sqlite file under t.TempDir, applies migrations and
// closes it when the test ends.
func NewDB(t testing.TB, migrations []migration.Migration) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "testkit: open sqlite")
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, migrations).Run(context.Background())
	require.NoError(t, err, "testkit: migrate")
	return db
}

// NewQuery is NewDB wrapped for the repositories.
func NewQuery(t testing.TB, migrations []migration.Migration) *orm.Query {
	t.Helper()
	return orm.New(NewDB(t, migrations))
}
