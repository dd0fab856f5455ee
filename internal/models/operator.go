package models

import "time"

// Operator is the persisted form of a support operator.
type Operator struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"size:128;not null"`
	Status        string `gorm:"size:16;default:available;index"`
	Skills        string `gorm:"type:text"`
	MaxConcurrent int    `gorm:"default:3"`
	TodayHandled  int    `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
