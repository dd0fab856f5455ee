package models

import "time"

// ArchiveEntry is one resolved chat, keyed by customer.
type ArchiveEntry struct {
	ID                string `gorm:"primaryKey;size:36"`
	CustomerID        string `gorm:"size:64;not null;index"`
	ChatID            string `gorm:"size:64;index"`
	OperatorID        string `gorm:"size:64;index"`
	Category          string `gorm:"size:64"`
	Subject           string `gorm:"size:256"`
	Priority          string `gorm:"size:8"`
	Resolution        string `gorm:"type:text"`
	Summary           string `gorm:"type:text"`
	ResponseMinutes   int
	ResolutionMinutes int
	Satisfaction      *int
	InquiryCreatedAt  time.Time
	ChatStartedAt     time.Time
	ArchivedAt        time.Time `gorm:"index"`

	Messages []ArchiveMessage `gorm:"foreignKey:EntryID"`
}

// ArchiveMessage is a transcript line copied into an ArchiveEntry.
type ArchiveMessage struct {
	ID        string `gorm:"primaryKey;size:36"`
	EntryID   string `gorm:"size:36;index"`
	Seq       int
	Sender    string `gorm:"size:16"`
	Content   string `gorm:"type:text"`
	AgentID   string `gorm:"size:64"`
	Timestamp time.Time
}
