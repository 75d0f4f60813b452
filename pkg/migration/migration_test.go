package migration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/farmchain/farmchain/pkg/database"
	"github.com/farmchain/farmchain/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type crop struct {
	ID   uint
	Name string
}

type farm struct {
	ID   uint
	Name string
}

func create(name string, model interface{}) migration.Migration {
	return migration.Migration{
		Name: name,
		Up:   func(db *gorm.DB) error { return db.AutoMigrate(model) },
		Down: func(db *gorm.DB) error { return db.Migrator().DropTable(model) },
	}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestRunRollbackStatus(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	first := []migration.Migration{create("20260102_create_crops", &crop{})}
	ran, err := migration.New(db, first).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260102_create_crops"}, ran)

	// unsorted input runs in name order; applied migrations are skipped
	all := []migration.Migration{create("20260103_create_farms", &farm{}), first[0]}
	runner := migration.New(db, all)
	ran, err = runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260103_create_farms"}, ran)
	assert.True(t, db.Migrator().HasTable(&farm{}))

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []migration.Status{
		{Name: "20260102_create_crops", Ran: true, Batch: 1},
		{Name: "20260103_create_farms", Ran: true, Batch: 2},
	}, status)

	rolled, err := runner.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260103_create_farms"}, rolled)
	assert.False(t, db.Migrator().HasTable(&farm{}))
	assert.True(t, db.Migrator().HasTable(&crop{}))

	status, err = runner.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status[1].Ran)

	ran, err = runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260103_create_farms"}, ran)
}

func TestRollbackWithNothingRan(t *testing.T) {
	rolled, err := migration.New(openDB(t), nil).Rollback(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rolled)
}
