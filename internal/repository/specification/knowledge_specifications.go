package specification

import (
	"time"

	"gorm.io/gorm"
)

// NotRejected skips catalog rows an editor rejected.
type NotRejected struct{}

func (s NotRejected) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status <> ?", "REJECTED")
}

// UpdatedSince selects rows touched after a point in time.
type UpdatedSince struct {
	Time time.Time
}

func (s UpdatedSince) Apply(db *gorm.DB) *gorm.DB {
	if s.Time.IsZero() {
		return db
	}
	return db.Where("updated_at > ?", s.Time)
}
