package queue

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FailedJobRecord is a row in failed_jobs. The table is created by the
// schema migrations.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// GormFailedStore writes failed jobs to the database.
type GormFailedStore struct {
	db *gorm.DB
}

func NewGormFailedStore(db *gorm.DB) *GormFailedStore {
	return &GormFailedStore{db: db}
}

func (s *GormFailedStore) Record(ctx context.Context, f FailedJob) error {
	return s.db.WithContext(ctx).Create(&FailedJobRecord{
		JobType:  f.JobType,
		Payload:  f.Payload,
		Error:    f.Error,
		Attempts: f.Attempts,
		FailedAt: f.FailedAt,
	}).Error
}
