// Package desk is the support-queue engine: it queues customer inquiries,
// assigns them to operators under capacity and lock rules, runs the
// escalation approval workflow and archives resolved chats.
package desk

import (
	"time"

	"github.com/zulandar/switchboard/internal/roster"
)

// Priority orders inquiries and drives the SLA commitment.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

var priorityRank = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

// InquiryStatus is the queue-side state of an inquiry.
type InquiryStatus string

const (
	InquiryWaiting  InquiryStatus = "waiting"
	InquiryAssigned InquiryStatus = "assigned"
)

// ChatStatus is the working state of an assigned chat.
type ChatStatus string

const (
	ChatActive          ChatStatus = "active"
	ChatEscalated       ChatStatus = "escalated"
	ChatHold            ChatStatus = "hold"
	ChatResolvedPending ChatStatus = "resolved-pending-archive"
)

// Valid reports whether s is one of the known chat statuses.
func (s ChatStatus) Valid() bool {
	switch s {
	case ChatActive, ChatEscalated, ChatHold, ChatResolvedPending:
		return true
	}
	return false
}

// SenderKind identifies who authored a message.
type SenderKind string

const (
	SenderCustomer SenderKind = "customer"
	SenderAgent    SenderKind = "agent"
	SenderSystem   SenderKind = "system"
)

// Valid reports whether k is one of the known sender kinds.
func (k SenderKind) Valid() bool {
	switch k {
	case SenderCustomer, SenderAgent, SenderSystem:
		return true
	}
	return false
}

// Tier is the customer's account tier. TierGold is the top tier.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Customer is the inbound contact an inquiry is raised for.
type Customer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tier       Tier   `json:"tier"`
	VIP        bool   `json:"vip"`
	Complaints int    `json:"complaints"`
}

// Inquiry is a customer request. LockedBy and AssignedTo are always written
// together by the assignment path.
type Inquiry struct {
	ID             string        `json:"id"`
	CustomerID     string        `json:"customerId"`
	CustomerName   string        `json:"customerName"`
	Category       string        `json:"category"`
	Subject        string        `json:"subject"`
	Priority       Priority      `json:"priority"`
	Status         InquiryStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	SLADeadline    time.Time     `json:"slaDeadline"`
	AssignedTo     string        `json:"assignedTo,omitempty"`
	LockedBy       string        `json:"lockedBy,omitempty"`
	InitialMessage string        `json:"initialMessage,omitempty"`
}

// ActiveChat is the live working copy of an assigned inquiry.
type ActiveChat struct {
	Inquiry
	StartTime time.Time  `json:"startTime"`
	Status    ChatStatus `json:"chatStatus"`
}

// Message is one entry in a chat transcript.
type Message struct {
	ID        string     `json:"id"`
	ChatID    string     `json:"chatId"`
	Sender    SenderKind `json:"sender"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	AgentID   string     `json:"agentId,omitempty"`
}

// PendingType distinguishes in-flight hand-off records.
type PendingType string

const PendingEscalation PendingType = "escalation"

// PendingAssignment is an escalation awaiting accept or reject.
type PendingAssignment struct {
	ChatID           string      `json:"chatId"`
	Chat             ActiveChat  `json:"chat"`
	Messages         []Message   `json:"messages"`
	TargetOperatorID string      `json:"targetOperatorId"`
	RequestedBy      string      `json:"requestedBy"`
	RequestedAt      time.Time   `json:"requestedAt"`
	Type             PendingType `json:"type"`
	Reason           string      `json:"reason"`
}

// Capacity is the Capacity Guard's view of one operator.
type Capacity struct {
	OperatorID  string `json:"operatorId"`
	Current     int    `json:"current"`
	Max         int    `json:"max"`
	CanTakeMore bool   `json:"canTakeMore"`
}

// AssignMode selects whether the assignment safety checks run.
type AssignMode int

const (
	// AssignNormal enforces availability, lock and capacity.
	AssignNormal AssignMode = iota
	// AssignAdministrative bypasses the checks. Reserved for escalation
	// accept and the self-assignment path, which check beforehand.
	AssignAdministrative
)

func (m AssignMode) String() string {
	if m == AssignAdministrative {
		return "administrative"
	}
	return "normal"
}

// accepting reports whether an operator in status s may take new work.
func accepting(s roster.Status) bool {
	return s == roster.StatusAvailable || s == roster.StatusBusy
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
