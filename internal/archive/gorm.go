package archive

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// GormStore is a Store backed by the archive_entries and archive_messages
// tables.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db. Tables must already be migrated.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("archive: db is required")
	}
	return &GormStore{db: db}, nil
}

// Append writes the entry and its transcript in one transaction.
func (s *GormStore) Append(entry Entry) error {
	if entry.CustomerID == "" {
		return fmt.Errorf("archive: customer id is required")
	}
	row := models.ArchiveEntry{
		ID:                entry.ID,
		CustomerID:        entry.CustomerID,
		ChatID:            entry.ChatID,
		OperatorID:        entry.OperatorID,
		Category:          entry.Category,
		Subject:           entry.Subject,
		Priority:          entry.Priority,
		Resolution:        entry.Resolution,
		Summary:           entry.Summary,
		ResponseMinutes:   entry.ResponseTime,
		ResolutionMinutes: entry.ResolutionTime,
		Satisfaction:      entry.Satisfaction,
		InquiryCreatedAt:  entry.CreatedAt,
		ChatStartedAt:     entry.StartedAt,
		ArchivedAt:        entry.ArchivedAt,
	}
	msgs := make([]models.ArchiveMessage, len(entry.Messages))
	for i, m := range entry.Messages {
		msgs[i] = models.ArchiveMessage{
			ID:        m.ID,
			EntryID:   entry.ID,
			Seq:       i,
			Sender:    m.Sender,
			Content:   m.Content,
			AgentID:   m.AgentID,
			Timestamp: m.Timestamp,
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages").Create(&row).Error; err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		if len(msgs) == 0 {
			return nil
		}
		if err := tx.Create(&msgs).Error; err != nil {
			return fmt.Errorf("create messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive: append %s: %w", entry.ID, err)
	}
	return nil
}

func (s *GormStore) ForCustomer(customerID string) ([]Entry, error) {
	var rows []models.ArchiveEntry
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Where("customer_id = ?", customerID).Order("archived_at ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("archive: list %s: %w", customerID, err)
	}

	out := make([]Entry, len(rows))
	for i, r := range rows {
		msgs := make([]Message, len(r.Messages))
		for j, m := range r.Messages {
			msgs[j] = Message{
				ID:        m.ID,
				Sender:    m.Sender,
				Content:   m.Content,
				AgentID:   m.AgentID,
				Timestamp: m.Timestamp,
			}
		}
		out[i] = Entry{
			ID:             r.ID,
			CustomerID:     r.CustomerID,
			ChatID:         r.ChatID,
			OperatorID:     r.OperatorID,
			Category:       r.Category,
			Subject:        r.Subject,
			Priority:       r.Priority,
			Messages:       msgs,
			Resolution:     r.Resolution,
			Summary:        r.Summary,
			ResponseTime:   r.ResponseMinutes,
			ResolutionTime: r.ResolutionMinutes,
			Satisfaction:   r.Satisfaction,
			CreatedAt:      r.InquiryCreatedAt,
			StartedAt:      r.ChatStartedAt,
			ArchivedAt:     r.ArchivedAt,
		}
	}
	return out, nil
}

func (s *GormStore) RateSatisfaction(customerID, entryID string, score int) error {
	if !ValidScore(score) {
		return ErrInvalidScore
	}
	result := s.db.Model(&models.ArchiveEntry{}).
		Where("id = ? AND customer_id = ?", entryID, customerID).
		Update("satisfaction", score)
	if result.Error != nil {
		return fmt.Errorf("archive: rate %s: %w", entryID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, customerID, entryID)
	}
	return nil
}

var _ Store = (*GormStore)(nil)
