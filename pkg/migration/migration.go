// Package migration runs versioned schema migrations and records them in a
// tracking table, grouped in batches so the last batch can be rolled back.
//
//	runner := migration.New(db, migrations.All())
//	ran, err := runner.Run(ctx)
//	rolled, err := runner.Rollback(ctx)
package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/farmchain/farmchain/pkg/logger"
	"gorm.io/gorm"
)

// Migration is one schema step. Name should start with a sortable
// timestamp, e.g. "20260101000000_create_users_table".
type Migration struct {
	Name string
	Up   func(db *gorm.DB) error
	Down func(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"not null"`
}

func (record) TableName() string { return "migrations" }

// Status describes one known migration.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner applies a fixed, ordered set of migrations.
type Runner struct {
	db         *gorm.DB
	migrations []Migration
}

// New sorts migrations by name and binds them to db.
func New(db *gorm.DB, migrations []Migration) *Runner {
	ms := make([]Migration, len(migrations))
	copy(ms, migrations)
	sort.Slice(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })
	return &Runner{db: db, migrations: ms}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran(ctx context.Context) (map[string]record, error) {
	var recs []record
	if err := r.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(recs))
	for _, rec := range recs {
		out[rec.Name] = rec
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&record{}).Select("MAX(batch)").Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}

// Run applies every pending migration as one new batch and returns the
// names it ran.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: load history: %w", err)
	}
	last, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch := last + 1

	var applied []string
	for _, m := range r.migrations {
		if _, ok := done[m.Name]; ok {
			continue
		}
		logger.Info("migration: running", "name", m.Name)
		if err := m.Up(r.db.WithContext(ctx)); err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", m.Name, err)
		}
		rec := record{Name: m.Name, Batch: batch, RunAt: time.Now().UTC()}
		if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return applied, fmt.Errorf("migration: record %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}

	if len(applied) > 0 {
		logger.Info("migration: done", "ran", len(applied), "batch", batch)
	}
	return applied, nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil || batch == 0 {
		return nil, err
	}

	var recs []record
	if err := r.db.WithContext(ctx).Where("batch = ?", batch).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(r.migrations))
	for _, m := range r.migrations {
		byName[m.Name] = m
	}

	var rolled []string
	for _, rec := range recs {
		m, ok := byName[rec.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db.WithContext(ctx)); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.WithContext(ctx).Delete(&rec).Error; err != nil {
			return rolled, err
		}
		rolled = append(rolled, rec.Name)
	}
	return rolled, nil
}

// Status lists every known migration and whether it has run.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.migrations))
	for _, m := range r.migrations {
		rec, ok := done[m.Name]
		out = append(out, Status{Name: m.Name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}
