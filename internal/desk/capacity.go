package desk

import "github.com/zulandar/switchboard/internal/roster"

// computeCapacity derives an operator's load from the active chat set alone.
// The inquiry queue is never consulted.
func computeCapacity(op roster.Operator, chats map[string]ActiveChat) Capacity {
	current := 0
	for _, c := range chats {
		if c.AssignedTo == op.ID {
			current++
		}
	}
	return Capacity{
		OperatorID:  op.ID,
		Current:     current,
		Max:         op.MaxConcurrent,
		CanTakeMore: accepting(op.Status) && current < op.MaxConcurrent,
	}
}

// Capacity reports operatorID's current load. The operator record is read
// fresh from the directory on every call.
func (d *Desk) Capacity(operatorID string) (Capacity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, err := d.operatorLocked(operatorID)
	if err != nil {
		return Capacity{}, err
	}
	return computeCapacity(op, d.chats), nil
}

// admitLocked runs the guard for op and returns a CapacityError when it
// cannot take more work.
func (d *Desk) admitLocked(op roster.Operator) error {
	c := computeCapacity(op, d.chats)
	if c.CanTakeMore {
		return nil
	}
	return &CapacityError{OperatorID: op.ID, Current: c.Current, Max: c.Max, Status: op.Status}
}
