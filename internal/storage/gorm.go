package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Slot struct {
	Key       string    `gorm:"column:slot_key;primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Slot) TableName() string {
	return "storage_slots"
}

// GormSlot keeps slots as rows of a single key/value table.
type GormSlot struct {
	DB *gorm.DB
}

func NewGormSlot(ctx context.Context, db *gorm.DB) (*GormSlot, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Slot{}); err != nil {
		return nil, err
	}
	return &GormSlot{DB: db}, nil
}

func (r *GormSlot) Get(ctx context.Context, key string) (string, bool, error) {
	var slot Slot
	if err := r.DB.WithContext(ctx).Where("slot_key = ?", key).First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return slot.Value, true, nil
}

func (r *GormSlot) Set(ctx context.Context, key, value string) error {
	slot := Slot{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
}
