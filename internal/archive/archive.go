// Package archive is the terminal store of resolved chats, keyed by customer.
package archive

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when an archive entry does not exist.
	ErrNotFound = errors.New("archive: entry not found")
	// ErrInvalidScore is returned for satisfaction scores outside 1..5.
	ErrInvalidScore = errors.New("archive: satisfaction score must be between 1 and 5")
)

// Message is a transcript line as archived.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	AgentID   string    `json:"agentId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry is an immutable snapshot of one resolved chat. Only Satisfaction is
// filled in later.
type Entry struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	ChatID         string    `json:"chatId"`
	OperatorID     string    `json:"operatorId"`
	Category       string    `json:"category"`
	Subject        string    `json:"subject"`
	Priority       string    `json:"priority"`
	Messages       []Message `json:"messages"`
	Resolution     string    `json:"resolution"`
	Summary        string    `json:"summary"`
	ResponseTime   int       `json:"responseTime"`
	ResolutionTime int       `json:"resolutionTime"`
	Satisfaction   *int      `json:"satisfaction"`
	CreatedAt      time.Time `json:"createdAt"`
	StartedAt      time.Time `json:"startedAt"`
	ArchivedAt     time.Time `json:"archivedAt"`
}

// Store persists archive entries.
type Store interface {
	Append(entry Entry) error
	ForCustomer(customerID string) ([]Entry, error)
	RateSatisfaction(customerID, entryID string, score int) error
}

// ValidScore reports whether score is an accepted satisfaction rating.
func ValidScore(score int) bool {
	return score >= 1 && score <= 5
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]Entry)}
}

func (m *Memory) Append(entry Entry) error {
	if entry.CustomerID == "" {
		return fmt.Errorf("archive: customer id is required")
	}
	entry.Messages = append([]Message(nil), entry.Messages...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.CustomerID] = append(m.entries[entry.CustomerID], entry)
	return nil
}

func (m *Memory) ForCustomer(customerID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.entries[customerID]
	out := make([]Entry, len(src))
	for i, e := range src {
		e.Messages = append([]Message(nil), e.Messages...)
		if e.Satisfaction != nil {
			score := *e.Satisfaction
			e.Satisfaction = &score
		}
		out[i] = e
	}
	return out, nil
}

func (m *Memory) RateSatisfaction(customerID, entryID string, score int) error {
	if !ValidScore(score) {
		return ErrInvalidScore
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries[customerID] {
		e := &m.entries[customerID][i]
		if e.ID == entryID {
			e.Satisfaction = &score
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, customerID, entryID)
}

var _ Store = (*Memory)(nil)
