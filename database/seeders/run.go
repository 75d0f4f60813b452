// Package seeders fills reference data. Seeders are idempotent and can be
// run on every deploy.
package seeders

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Seeder writes one kind of reference data.
type Seeder struct {
	Name string
	Run  func(ctx context.Context, db *gorm.DB) error
}

// All returns every seeder in the order it should run.
func All() []Seeder {
	return []Seeder{
		{Name: "categories", Run: SeedCategories},
	}
}

// RunAll executes seeders in order and stops on the first error.
func RunAll(ctx context.Context, db *gorm.DB, seeders []Seeder) ([]string, error) {
	var ran []string
	for _, s := range seeders {
		if err := s.Run(ctx, db); err != nil {
			return ran, fmt.Errorf("seeder %q: %w", s.Name, err)
		}
		ran = append(ran, s.Name)
	}
	return ran, nil
}
