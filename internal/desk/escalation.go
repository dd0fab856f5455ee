package desk

import (
	"fmt"
	"log/slog"

	"github.com/zulandar/switchboard/internal/notify"
)

func escalationNotificationID(chatID string) string { return "notify-escalate-" + chatID }
func rejectionNotificationID(chatID string) string { return "notify-reject-" + chatID }

// RequestEscalation asks targetID to take over chatID. The chat stays with
// its current operator until the target accepts. A second request for the
// same chat replaces the first. requestedBy defaults to the chat's holder.
func (d *Desk) RequestEscalation(requestedBy, chatID, targetID, reason string) (PendingAssignment, error) {
	var outbox []notify.Notification
	defer func() { d.deliver(outbox) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	chat, ok := d.chats[chatID]
	if !ok {
		return PendingAssignment{}, &NotFoundError{Resource: "chat", ID: chatID}
	}
	target, err := d.operatorLocked(targetID)
	if err != nil {
		return PendingAssignment{}, err
	}
	if err := d.admitLocked(target); err != nil {
		return PendingAssignment{}, err
	}
	if requestedBy == "" {
		requestedBy = chat.AssignedTo
	}

	now := d.clock.Now()
	p := PendingAssignment{
		ChatID:           chatID,
		Chat:             chat,
		Messages:         cloneMessages(d.messages[chatID]),
		TargetOperatorID: target.ID,
		RequestedBy:      requestedBy,
		RequestedAt:      now,
		Type:             PendingEscalation,
		Reason:           reason,
	}
	d.pending[chatID] = p

	n := notify.Notification{
		ID:         escalationNotificationID(chatID),
		Type:       notify.KindEscalation,
		OperatorID: target.ID,
		Title:      "Escalation request",
		Message:    fmt.Sprintf("%s asks you to take over %q: %s", d.operatorName(requestedBy), chat.Subject, reason),
		ChatID:     chatID,
		Priority:   string(chat.Priority),
		CreatedAt:  now,
	}
	d.board.Upsert(n)
	outbox = append(outbox, n)

	d.log.Info("escalation requested",
		slog.String("chat", chatID),
		slog.String("from", requestedBy),
		slog.String("to", target.ID))

	p.Messages = cloneMessages(p.Messages)
	return p, nil
}

// AcceptEscalation moves chatID to the escalation target. The transcript is
// kept and a system message records the hand-off.
func (d *Desk) AcceptEscalation(chatID string) (ActiveChat, error) {
	return d.acceptEscalation(chatID, "")
}

// acceptEscalation accepts on behalf of acceptor. An empty acceptor accepts
// for whichever operator was targeted.
func (d *Desk) acceptEscalation(chatID, acceptor string) (ActiveChat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[chatID]
	if !ok || p.Type != PendingEscalation || (acceptor != "" && p.TargetOperatorID != acceptor) {
		return ActiveChat{}, &NotFoundError{Resource: "escalation", ID: chatID}
	}
	if _, ok := d.chats[chatID]; !ok {
		return ActiveChat{}, &NotFoundError{Resource: "chat", ID: chatID}
	}
	previous := d.chats[chatID].AssignedTo

	chat, target, err := d.assignLocked(chatID, p.TargetOperatorID, AssignAdministrative)
	if err != nil {
		return ActiveChat{}, err
	}

	name := target.Name
	if name == "" {
		name = target.ID
	}
	content := fmt.Sprintf("Chat escalated to %s.", name)
	if p.Reason != "" {
		content = fmt.Sprintf("Chat escalated to %s. Reason: %s", name, p.Reason)
	}
	d.messages[chatID] = append(d.messages[chatID], d.newMessage(chatID, SenderSystem, content, "", d.clock.Now()))

	delete(d.pending, chatID)
	d.board.Remove(escalationNotificationID(chatID))
	if previous != target.ID {
		d.reselectLocked(previous, chatID)
	}
	d.selected[target.ID] = chatID

	d.log.Info("escalation accepted",
		slog.String("chat", chatID),
		slog.String("from", previous),
		slog.String("to", target.ID))
	return chat, nil
}

// RejectEscalation declines the pending escalation for chatID. Assignment
// state is untouched; the requester gets one warning notification.
func (d *Desk) RejectEscalation(chatID, reason string) (notify.Notification, error) {
	return d.rejectEscalation(chatID, reason, "")
}

func (d *Desk) rejectEscalation(chatID, reason, rejector string) (notify.Notification, error) {
	var outbox []notify.Notification
	defer func() { d.deliver(outbox) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[chatID]
	if !ok || p.Type != PendingEscalation || (rejector != "" && p.TargetOperatorID != rejector) {
		return notify.Notification{}, &NotFoundError{Resource: "escalation", ID: chatID}
	}

	delete(d.pending, chatID)
	d.board.Remove(escalationNotificationID(chatID))

	name := d.operatorName(p.TargetOperatorID)
	msg := fmt.Sprintf("%s declined the escalation of %q.", name, p.Chat.Subject)
	if reason != "" {
		msg = fmt.Sprintf("%s declined the escalation of %q: %s", name, p.Chat.Subject, reason)
	}
	n := notify.Notification{
		ID:         rejectionNotificationID(chatID),
		Type:       notify.KindWarning,
		OperatorID: p.RequestedBy,
		Title:      "Escalation declined",
		Message:    msg,
		ChatID:     chatID,
		Priority:   string(p.Chat.Priority),
		CreatedAt:  d.clock.Now(),
	}
	d.board.Upsert(n)
	outbox = append(outbox, n)

	d.log.Info("escalation rejected",
		slog.String("chat", chatID),
		slog.String("by", p.TargetOperatorID),
		slog.String("requester", p.RequestedBy))
	return n, nil
}
