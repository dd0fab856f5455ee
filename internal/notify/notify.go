// Package notify holds operator notifications and delivers them to external
// sinks on a best-effort basis.
package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindEscalation Kind = "escalation"
	KindWarning    Kind = "warning"
	KindSLA        Kind = "sla"
	KindInfo       Kind = "info"
)

// Notification is one operator-facing event. ID is the upsert key.
type Notification struct {
	ID         string    `json:"id"`
	Type       Kind      `json:"type"`
	OperatorID string    `json:"operatorId"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	ChatID     string    `json:"chatId,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Sink accepts notifications for delivery.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n Notification) error { return f(ctx, n) }

// Board is the in-process notification list, keyed by notification id.
type Board struct {
	mu    sync.RWMutex
	items map[string]Notification
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{items: make(map[string]Notification)}
}

// Upsert stores n under n.ID, replacing any notification with the same id.
// It reports whether an existing notification was replaced.
func (b *Board) Upsert(n Notification) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, replaced := b.items[n.ID]
	b.items[n.ID] = n
	return replaced
}

// Remove deletes the notification with id and reports whether it existed.
func (b *Board) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.items[id]; !ok {
		return false
	}
	delete(b.items, id)
	return true
}

// Get returns the notification with id.
func (b *Board) Get(id string) (Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.items[id]
	return n, ok
}

// ForOperator lists notifications addressed to operatorID, oldest first.
// Notifications with an empty OperatorID are broadcasts and always included.
func (b *Board) ForOperator(operatorID string) []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Notification
	for _, n := range b.items {
		if n.OperatorID == operatorID || n.OperatorID == "" {
			out = append(out, n)
		}
	}
	sortNotifications(out)
	return out
}

// All lists every notification, oldest first.
func (b *Board) All() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Notification, 0, len(b.items))
	for _, n := range b.items {
		out = append(out, n)
	}
	sortNotifications(out)
	return out
}

func sortNotifications(ns []Notification) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].ID < ns[j].ID
		}
		return ns[i].CreatedAt.Before(ns[j].CreatedAt)
	})
}
