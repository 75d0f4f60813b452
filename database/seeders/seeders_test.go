package seeders_test

import (
	"context"
	"testing"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/database/seeders"
	"github.com/farmchain/farmchain/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSeedersAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t, migrations.All())

	for i := 0; i < 2; i++ {
		ran, err := seeders.RunAll(ctx, db, seeders.All())
		require.NoError(t, err)
		assert.Equal(t, []string{"categories"}, ran)
	}

	var names []string
	require.NoError(t, db.Model(&models.Category{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Dairy", "Fruits", "Grains", "Pulses", "Spices", "Vegetables"}, names)
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	db := testkit.NewDB(t, migrations.All())
	boom := seeders.Seeder{Name: "boom", Run: func(context.Context, *gorm.DB) error { return assert.AnError }}

	ran, err := seeders.RunAll(context.Background(), db, []seeders.Seeder{boom, seeders.All()[0]})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, ran)
}
