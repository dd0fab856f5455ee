package desk

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/switchboard/internal/archive"
)

// ResolveChat archives chatID and removes it from the desk. A chat that is
// no longer present is a silent no-op returning (nil, nil): resolve is
// commonly fired from stale views. If the archive write fails, nothing is
// changed.
func (d *Desk) ResolveChat(chatID, resolution, summary string) (*archive.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	chat, ok := d.chats[chatID]
	if !ok {
		d.log.Debug("resolve ignored, chat not active", slog.String("chat", chatID))
		return nil, nil
	}

	now := d.clock.Now()
	msgs := d.messages[chatID]
	archived := make([]archive.Message, len(msgs))
	for i, m := range msgs {
		archived[i] = archive.Message{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Content:   m.Content,
			AgentID:   m.AgentID,
			Timestamp: m.Timestamp,
		}
	}
	entry := archive.Entry{
		ID:             uuid.NewString(),
		CustomerID:     chat.CustomerID,
		ChatID:         chat.ID,
		OperatorID:     chat.AssignedTo,
		Category:       chat.Category,
		Subject:        chat.Subject,
		Priority:       string(chat.Priority),
		Messages:       archived,
		Resolution:     resolution,
		Summary:        summary,
		ResponseTime:   minutesBetween(chat.CreatedAt, chat.StartTime),
		ResolutionTime: minutesBetween(chat.StartTime, now),
		CreatedAt:      chat.CreatedAt,
		StartedAt:      chat.StartTime,
		ArchivedAt:     now,
	}
	if err := d.archive.Append(entry); err != nil {
		return nil, fmt.Errorf("desk: resolve %s: %w", chatID, err)
	}

	delete(d.chats, chatID)
	delete(d.inquiries, chatID)
	delete(d.messages, chatID)
	if _, ok := d.pending[chatID]; ok {
		delete(d.pending, chatID)
		d.board.Remove(escalationNotificationID(chatID))
	}
	d.board.Remove(slaNotificationID(chatID))
	d.reselectLocked(chat.AssignedTo, chatID)

	if chat.AssignedTo != "" {
		if err := d.roster.IncrementHandled(chat.AssignedTo); err != nil {
			d.log.Warn("handled counter not updated",
				slog.String("operator", chat.AssignedTo),
				slog.Any("err", err))
		}
	}

	d.log.Info("chat resolved",
		slog.String("chat", chatID),
		slog.String("operator", chat.AssignedTo),
		slog.String("customer", chat.CustomerID),
		slog.Int("resolution_minutes", entry.ResolutionTime))
	return &entry, nil
}

// History returns the archive entries for customerID.
func (d *Desk) History(customerID string) ([]archive.Entry, error) {
	return d.archive.ForCustomer(customerID)
}

// RateSatisfaction records a 1..5 satisfaction score on an archive entry.
func (d *Desk) RateSatisfaction(customerID, entryID string, score int) error {
	return d.archive.RateSatisfaction(customerID, entryID, score)
}

func minutesBetween(from, to time.Time) int {
	m := int(math.Round(to.Sub(from).Minutes()))
	if m < 0 {
		return 0
	}
	return m
}
