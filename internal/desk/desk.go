package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/roster"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// defaultCategory is used when an inquiry arrives without one.
const defaultCategory = "general"

// maxSubjectLen bounds the subject derived from the initial message.
const maxSubjectLen = 60

// Options configures a Desk.
type Options struct {
	Roster  roster.Directory // required
	Archive archive.Store    // defaults to archive.NewMemory()
	Board   *notify.Board    // defaults to notify.NewBoard()
	Sink    notify.Sink      // optional external delivery
	Clock   Clock            // defaults to time.Now
	Logger  *slog.Logger     // defaults to slog.Default()
}

// Desk owns the inquiry queue, the active chat set, chat transcripts and
// pending escalations. Every mutation runs under a single mutex, so the
// check-then-write in assignment can never interleave with another writer.
// Collections hold values; a mutation stores a new value rather than editing
// one a reader may hold.
type Desk struct {
	mu sync.Mutex

	roster  roster.Directory
	archive archive.Store
	board   *notify.Board
	sink    notify.Sink
	clock   Clock
	log     *slog.Logger

	inquiries map[string]Inquiry
	chats     map[string]ActiveChat
	messages  map[string][]Message
	pending   map[string]PendingAssignment
	selected  map[string]string // operator id -> chat id
	lastID    int64
}

// New builds a Desk.
func New(opts Options) (*Desk, error) {
	if opts.Roster == nil {
		return nil, fmt.Errorf("desk: roster is required")
	}
	if opts.Archive == nil {
		opts.Archive = archive.NewMemory()
	}
	if opts.Board == nil {
		opts.Board = notify.NewBoard()
	}
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Desk{
		roster:    opts.Roster,
		archive:   opts.Archive,
		board:     opts.Board,
		sink:      opts.Sink,
		clock:     opts.Clock,
		log:       opts.Logger,
		inquiries: make(map[string]Inquiry),
		chats:     make(map[string]ActiveChat),
		messages:  make(map[string][]Message),
		pending:   make(map[string]PendingAssignment),
		selected:  make(map[string]string),
	}, nil
}

// AddInquiry queues a new inquiry for customer. Priority and SLA deadline
// are fixed here.
func (d *Desk) AddInquiry(customer Customer, initialMessage, category string) (Inquiry, error) {
	if customer.ID == "" {
		return Inquiry{}, invalidf("customer id is required")
	}
	if category == "" {
		category = defaultCategory
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	priority := DeterminePriority(customer)
	inq := Inquiry{
		ID:             d.nextInquiryID(now),
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		Category:       category,
		Subject:        subjectFrom(initialMessage, category),
		Priority:       priority,
		Status:         InquiryWaiting,
		CreatedAt:      now,
		SLADeadline:    CalculateSLA(priority, now),
		InitialMessage: initialMessage,
	}
	d.inquiries[inq.ID] = inq

	d.log.Info("inquiry queued",
		slog.String("inquiry", inq.ID),
		slog.String("customer", inq.CustomerID),
		slog.String("priority", string(inq.Priority)))
	return inq, nil
}

// nextInquiryID derives an id from the creation timestamp, bumping past the
// last issued id when two arrive in the same millisecond.
func (d *Desk) nextInquiryID(now time.Time) string {
	n := now.UnixMilli()
	if n <= d.lastID {
		n = d.lastID + 1
	}
	d.lastID = n
	return fmt.Sprintf("inq-%d", n)
}

func subjectFrom(msg, category string) string {
	s := strings.TrimSpace(msg)
	if s == "" {
		return category
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if r := []rune(s); len(r) > maxSubjectLen {
		s = string(r[:maxSubjectLen]) + "..."
	}
	return s
}

// Inquiry returns the inquiry with id.
func (d *Desk) Inquiry(id string) (Inquiry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inq, ok := d.inquiries[id]
	return inq, ok
}

// Queue lists waiting inquiries by priority, then age.
func (d *Desk) Queue() []Inquiry {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Inquiry
	for _, inq := range d.inquiries {
		if inq.Status == InquiryWaiting {
			out = append(out, inq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := priorityRank[out[i].Priority], priorityRank[out[j].Priority]
		if ri != rj {
			return ri < rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Chat returns the active chat with id.
func (d *Desk) Chat(id string) (ActiveChat, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chats[id]
	return c, ok
}

// Chats lists active chats held by operatorID, or all chats when operatorID
// is empty, oldest first.
func (d *Desk) Chats(operatorID string) []ActiveChat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chatsLocked(operatorID)
}

func (d *Desk) chatsLocked(operatorID string) []ActiveChat {
	var out []ActiveChat
	for _, c := range d.chats {
		if operatorID == "" || c.AssignedTo == operatorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Messages returns a copy of the chat transcript.
func (d *Desk) Messages(chatID string) ([]Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.chats[chatID]; !ok {
		return nil, &NotFoundError{Resource: "chat", ID: chatID}
	}
	return cloneMessages(d.messages[chatID]), nil
}

// Pending returns the in-flight escalation for chatID.
func (d *Desk) Pending(chatID string) (PendingAssignment, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[chatID]
	if ok {
		p.Messages = cloneMessages(p.Messages)
	}
	return p, ok
}

// PendingEscalations lists in-flight escalations, oldest request first.
// When targetID is non-empty only those addressed to it are returned.
func (d *Desk) PendingEscalations(targetID string) []PendingAssignment {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []PendingAssignment
	for _, p := range d.pending {
		if targetID != "" && p.TargetOperatorID != targetID {
			continue
		}
		p.Messages = cloneMessages(p.Messages)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.Before(out[j].RequestedAt)
		}
		return out[i].ChatID < out[j].ChatID
	})
	return out
}

// Notifications lists notifications addressed to operatorID.
func (d *Desk) Notifications(operatorID string) []notify.Notification {
	return d.board.ForOperator(operatorID)
}

// DismissNotification removes a notification and reports whether it existed.
func (d *Desk) DismissNotification(id string) bool {
	return d.board.Remove(id)
}

// Selected returns the chat currently open in operatorID's view.
func (d *Desk) Selected(operatorID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.selected[operatorID]
	return id, ok
}

// Select opens chatID in operatorID's view.
func (d *Desk) Select(operatorID, chatID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.chats[chatID]; !ok {
		return &NotFoundError{Resource: "chat", ID: chatID}
	}
	d.selected[operatorID] = chatID
	return nil
}

// reselectLocked moves operatorID's selection off chatID, picking another of
// their chats or clearing it.
func (d *Desk) reselectLocked(operatorID, chatID string) {
	if d.selected[operatorID] != chatID {
		return
	}
	delete(d.selected, operatorID)
	for _, c := range d.chatsLocked(operatorID) {
		if c.ID != chatID {
			d.selected[operatorID] = c.ID
			return
		}
	}
}

// operatorLocked resolves an operator through the directory, mapping an
// unknown id to a NotFoundError.
func (d *Desk) operatorLocked(id string) (roster.Operator, error) {
	op, err := d.roster.Get(id)
	if errors.Is(err, roster.ErrNotFound) {
		return roster.Operator{}, &NotFoundError{Resource: "operator", ID: id}
	}
	if err != nil {
		return roster.Operator{}, fmt.Errorf("desk: lookup operator %s: %w", id, err)
	}
	return op, nil
}

// operatorName returns the display name for id, falling back to the id.
func (d *Desk) operatorName(id string) string {
	op, err := d.roster.Get(id)
	if err != nil || op.Name == "" {
		return id
	}
	return op.Name
}

func (d *Desk) newMessage(chatID string, sender SenderKind, content, agentID string, at time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		Timestamp: at,
		AgentID:   agentID,
	}
}

// deliver hands notifications to the external sink. It runs after the
// mutation has committed and never fails the caller.
func (d *Desk) deliver(ns []notify.Notification) {
	if d.sink == nil {
		return
	}
	for _, n := range ns {
		if err := d.sink.Deliver(context.Background(), n); err != nil {
			d.log.Warn("notification not delivered", slog.String("id", n.ID), slog.Any("err", err))
		}
	}
}
