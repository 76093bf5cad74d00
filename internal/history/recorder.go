package history

import (
	"context"

	"gorm.io/gorm"
)

// Recorder appends searches to the history table.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(ctx context.Context, s *Search) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Recent returns the newest searches first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Search, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Search
	err := r.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}
