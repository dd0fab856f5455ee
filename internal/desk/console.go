package desk

import "github.com/zulandar/switchboard/internal/notify"

// Console is one operator's handle on the desk. Operations that act "as the
// current operator" go through it.
type Console struct {
	desk       *Desk
	operatorID string
}

// Console returns a handle bound to operatorID.
func (d *Desk) Console(operatorID string) *Console {
	return &Console{desk: d, operatorID: operatorID}
}

// OperatorID returns the bound operator.
func (c *Console) OperatorID() string { return c.operatorID }

// Capacity reports this operator's current load.
func (c *Console) Capacity() (Capacity, error) {
	return c.desk.Capacity(c.operatorID)
}

// AssignToSelf claims inquiryID for this operator.
func (c *Console) AssignToSelf(inquiryID string) (ActiveChat, error) {
	return c.desk.AssignToSelf(c.operatorID, inquiryID)
}

// RequestEscalation asks targetID to take over chatID from this operator.
func (c *Console) RequestEscalation(chatID, targetID, reason string) (PendingAssignment, error) {
	return c.desk.RequestEscalation(c.operatorID, chatID, targetID, reason)
}

// AcceptEscalation accepts an escalation addressed to this operator.
func (c *Console) AcceptEscalation(chatID string) (ActiveChat, error) {
	return c.desk.acceptEscalation(chatID, c.operatorID)
}

// RejectEscalation declines an escalation addressed to this operator.
func (c *Console) RejectEscalation(chatID, reason string) (notify.Notification, error) {
	return c.desk.rejectEscalation(chatID, reason, c.operatorID)
}

// SendMessage posts content to chatID as this operator.
func (c *Console) SendMessage(chatID, content string) (Message, error) {
	return c.desk.SendMessage(chatID, content, SenderAgent, c.operatorID)
}

// Chats lists the chats this operator holds.
func (c *Console) Chats() []ActiveChat {
	return c.desk.Chats(c.operatorID)
}

// Selected returns the chat open in this operator's view.
func (c *Console) Selected() (string, bool) {
	return c.desk.Selected(c.operatorID)
}

// Select opens chatID in this operator's view.
func (c *Console) Select(chatID string) error {
	return c.desk.Select(c.operatorID, chatID)
}

// Notifications lists notifications addressed to this operator.
func (c *Console) Notifications() []notify.Notification {
	return c.desk.Notifications(c.operatorID)
}

// PendingEscalations lists escalations waiting on this operator.
func (c *Console) PendingEscalations() []PendingAssignment {
	return c.desk.PendingEscalations(c.operatorID)
}
