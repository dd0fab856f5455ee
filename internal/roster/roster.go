// Package roster holds operator records: status, skills, capacity and the
// daily handled counter.
package roster

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Status is an operator's presence.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusBreak     Status = "break"
	StatusOffline   Status = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusBreak, StatusOffline:
		return true
	}
	return false
}

// ErrNotFound is returned when an operator id is unknown.
var ErrNotFound = errors.New("roster: operator not found")

// Operator is a support agent.
type Operator struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Status        Status   `json:"status"`
	Skills        []string `json:"skills"`
	MaxConcurrent int      `json:"maxConcurrent"`
	TodayHandled  int      `json:"todayHandled"`
}

// Directory is the operator registry. Status may change from outside at any
// time, so callers must read through it on every evaluation.
type Directory interface {
	Get(id string) (Operator, error)
	List() ([]Operator, error)
	SetStatus(id string, status Status) error
	IncrementHandled(id string) error
	ResetHandled() error
}

// Validate checks the fields every operator must carry.
func Validate(op Operator) error {
	if op.ID == "" {
		return fmt.Errorf("roster: operator id is required")
	}
	if !op.Status.Valid() {
		return fmt.Errorf("roster: operator %s: invalid status %q", op.ID, op.Status)
	}
	if op.MaxConcurrent <= 0 {
		return fmt.Errorf("roster: operator %s: max_concurrent must be positive", op.ID)
	}
	return nil
}

// Memory is an in-process Directory.
type Memory struct {
	mu        sync.RWMutex
	operators map[string]*Operator
}

// NewMemory builds a Memory directory seeded with ops.
func NewMemory(ops ...Operator) (*Memory, error) {
	m := &Memory{operators: make(map[string]*Operator, len(ops))}
	for _, op := range ops {
		if err := m.Add(op); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers an operator. Operators are never removed.
func (m *Memory) Add(op Operator) error {
	if err := Validate(op); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.operators[op.ID]; ok {
		return fmt.Errorf("roster: operator %s already registered", op.ID)
	}
	op.Skills = append([]string(nil), op.Skills...)
	m.operators[op.ID] = &op
	return nil
}

func (m *Memory) Get(id string) (Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.operators[id]
	if !ok {
		return Operator{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyOperator(op), nil
}

func (m *Memory) List() ([]Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Operator, 0, len(m.operators))
	for _, op := range m.operators {
		out = append(out, copyOperator(op))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("roster: invalid status %q", status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operators[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	op.Status = status
	return nil
}

func (m *Memory) IncrementHandled(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operators[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	op.TodayHandled++
	return nil
}

func (m *Memory) ResetHandled() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.operators {
		op.TodayHandled = 0
	}
	return nil
}

func copyOperator(op *Operator) Operator {
	out := *op
	out.Skills = append([]string(nil), op.Skills...)
	return out
}

var _ Directory = (*Memory)(nil)
