package desk

import (
	"log/slog"

	"github.com/zulandar/switchboard/internal/roster"
)

// Assign hands inquiryID to operatorID. AssignNormal enforces availability,
// lock ownership and capacity, in that order; AssignAdministrative skips
// all three.
func (d *Desk) Assign(inquiryID, operatorID string, mode AssignMode) (ActiveChat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	chat, _, err := d.assignLocked(inquiryID, operatorID, mode)
	return chat, err
}

// AssignToSelf is the queue fast path: operatorID claims inquiryID after its
// own guard check, with no hand-off bookkeeping.
func (d *Desk) AssignToSelf(operatorID, inquiryID string) (ActiveChat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inq, ok := d.inquiries[inquiryID]
	if !ok {
		return ActiveChat{}, &NotFoundError{Resource: "inquiry", ID: inquiryID}
	}
	op, err := d.operatorLocked(operatorID)
	if err != nil {
		return ActiveChat{}, err
	}
	if err := d.admitLocked(op); err != nil {
		return ActiveChat{}, err
	}
	// The lock still applies here so an inquiry held by someone else keeps
	// lockedBy == assignedTo.
	if err := d.checkLockLocked(inq, op.ID); err != nil {
		return ActiveChat{}, err
	}
	chat, _, err := d.assignLocked(inquiryID, operatorID, AssignAdministrative)
	if err != nil {
		return ActiveChat{}, err
	}
	d.selected[operatorID] = chat.ID
	return chat, nil
}

// assignLocked is the only writer of AssignedTo and LockedBy.
func (d *Desk) assignLocked(inquiryID, operatorID string, mode AssignMode) (ActiveChat, roster.Operator, error) {
	inq, ok := d.inquiries[inquiryID]
	if !ok {
		return ActiveChat{}, roster.Operator{}, &NotFoundError{Resource: "inquiry", ID: inquiryID}
	}
	op, err := d.operatorLocked(operatorID)
	if err != nil {
		return ActiveChat{}, roster.Operator{}, err
	}

	if mode == AssignNormal {
		if !accepting(op.Status) {
			return ActiveChat{}, op, &UnavailableError{OperatorID: op.ID, Status: op.Status}
		}
		if err := d.checkLockLocked(inq, op.ID); err != nil {
			return ActiveChat{}, op, err
		}
		if err := d.admitLocked(op); err != nil {
			return ActiveChat{}, op, err
		}
	}

	now := d.clock.Now()
	previous := inq.AssignedTo
	inq.AssignedTo = op.ID
	inq.LockedBy = op.ID
	inq.Status = InquiryAssigned
	d.inquiries[inq.ID] = inq

	// Every assignment restarts the clock; a hand-off keeps the edited priority.
	chat, existed := d.chats[inq.ID]
	priority := inq.Priority
	if existed {
		priority = chat.Priority
	}
	chat = ActiveChat{Inquiry: inq, StartTime: now, Status: ChatActive}
	chat.Priority = priority
	d.chats[inq.ID] = chat

	if len(d.messages[inq.ID]) == 0 && inq.InitialMessage != "" {
		// Stamped at creation so the transcript shows the real wait.
		d.messages[inq.ID] = []Message{
			d.newMessage(inq.ID, SenderCustomer, inq.InitialMessage, "", inq.CreatedAt),
		}
	}
	d.board.Remove(slaNotificationID(inq.ID))

	d.log.Info("inquiry assigned",
		slog.String("inquiry", inq.ID),
		slog.String("operator", op.ID),
		slog.String("previous", previous),
		slog.String("mode", mode.String()))
	return chat, op, nil
}

func (d *Desk) checkLockLocked(inq Inquiry, operatorID string) error {
	if inq.LockedBy == "" || inq.LockedBy == operatorID {
		return nil
	}
	return &LockConflictError{
		InquiryID:  inq.ID,
		HolderID:   inq.LockedBy,
		HolderName: d.operatorName(inq.LockedBy),
	}
}
