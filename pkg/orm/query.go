package orm

import (
	"context"
	"errors"
	"time"

	"github.com/farmchain/farmchain/pkg/cache"
	"github.com/farmchain/farmchain/pkg/database"
	"gorm.io/gorm"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = gorm.ErrRecordNotFound

// Query is a thin chainable wrapper over *gorm.DB. Every call returns a new
// Query, so a base Query can be shared between goroutines.
type Query struct {
	db *gorm.DB
}

// New wraps db.
func New(db *gorm.DB) *Query {
	return &Query{db: db}
}

// DB wraps the process-wide connection from pkg/database.
func DB() *Query {
	return &Query{db: database.DB}
}

// Gorm exposes the underlying handle for queries the wrapper does not cover.
func (q *Query) Gorm() *gorm.DB { return q.db }

func (q *Query) WithContext(ctx context.Context) *Query {
	return &Query{db: q.db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Table(name string) *Query {
	return &Query{db: q.db.Table(name)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n)}
}

func (q *Query) Select(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Select(query, args...)}
}

func (q *Query) Joins(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Joins(query, args...)}
}

func (q *Query) Distinct(args ...interface{}) *Query {
	return &Query{db: q.db.Distinct(args...)}
}

func (q *Query) Unscoped() *Query {
	return &Query{db: q.db.Unscoped()}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

// Pluck loads a single column into dest.
func (q *Query) Pluck(column string, dest interface{}) error {
	return q.db.Pluck(column, dest).Error
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	return q.db.Save(v).Error
}

// Updates applies values to the rows matched so far and reports how many
// rows changed.
func (q *Query) Updates(values interface{}) (int64, error) {
	res := q.db.Updates(values)
	return res.RowsAffected, res.Error
}

func (q *Query) Delete(v interface{}, conds ...interface{}) (int64, error) {
	res := q.db.Delete(v, conds...)
	return res.RowsAffected, res.Error
}

// Exec runs raw SQL and reports the affected row count.
func (q *Query) Exec(sql string, args ...interface{}) (int64, error) {
	res := q.db.Exec(sql, args...)
	return res.RowsAffected, res.Error
}

// Transaction runs fn inside a database transaction. fn must use the tx
// Query it is given for every statement that belongs to the unit of work.
func (q *Query) Transaction(fn func(tx *Query) error) error {
	return q.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Query{db: tx})
	})
}

// Cache serves dest from store when present, otherwise loads it with Find
// and stores it for ttl.
func (q *Query) Cache(ctx context.Context, store cache.Store, key string, ttl time.Duration, dest interface{}) error {
	if store.Get(ctx, key, dest) {
		return nil
	}

	if err := q.db.Find(dest).Error; err != nil {
		return err
	}

	return store.Set(ctx, key, dest, ttl)
}

// IsNotFound reports whether err means "no such row".
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
