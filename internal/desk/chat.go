package desk

import (
	"strings"
)

// SendMessage appends a message to chatID's transcript. Agent messages
// without an agent id are attributed to the chat's holder.
func (d *Desk) SendMessage(chatID, content string, sender SenderKind, agentID string) (Message, error) {
	if !sender.Valid() {
		return Message{}, invalidf("unknown sender %q", sender)
	}
	if strings.TrimSpace(content) == "" {
		return Message{}, invalidf("message content is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	chat, ok := d.chats[chatID]
	if !ok {
		return Message{}, &NotFoundError{Resource: "chat", ID: chatID}
	}
	if sender == SenderAgent && agentID == "" {
		agentID = chat.AssignedTo
	}
	if sender != SenderAgent {
		agentID = ""
	}
	msg := d.newMessage(chatID, sender, content, agentID, d.clock.Now())
	d.messages[chatID] = append(d.messages[chatID], msg)
	return msg, nil
}

// UpdateChatStatus sets the working status of chatID.
func (d *Desk) UpdateChatStatus(chatID string, status ChatStatus) (ActiveChat, error) {
	if !status.Valid() {
		return ActiveChat{}, invalidf("unknown chat status %q", status)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	chat, ok := d.chats[chatID]
	if !ok {
		return ActiveChat{}, &NotFoundError{Resource: "chat", ID: chatID}
	}
	chat.Status = status
	d.chats[chatID] = chat
	return chat, nil
}

// UpdateChatPriority changes the display and sort priority of chatID. The
// SLA deadline committed at creation is left as it was.
func (d *Desk) UpdateChatPriority(chatID string, priority Priority) (ActiveChat, error) {
	if !priority.Valid() {
		return ActiveChat{}, invalidf("unknown priority %q", priority)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	chat, ok := d.chats[chatID]
	if !ok {
		return ActiveChat{}, &NotFoundError{Resource: "chat", ID: chatID}
	}
	chat.Priority = priority
	d.chats[chatID] = chat
	return chat, nil
}
