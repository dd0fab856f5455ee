package desk

import (
	"fmt"
	"log/slog"

	"github.com/zulandar/switchboard/internal/notify"
)

func slaNotificationID(inquiryID string) string { return "notify-sla-" + inquiryID }

// SweepSLA raises one broadcast notification per waiting inquiry whose SLA
// deadline has passed. Re-running it does not duplicate them. It
// returns the number of breached inquiries.
func (d *Desk) SweepSLA() int {
	var outbox []notify.Notification
	defer func() { d.deliver(outbox) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	breached := 0
	for _, inq := range d.inquiries {
		if inq.Status != InquiryWaiting || !now.After(inq.SLADeadline) {
			continue
		}
		breached++
		id := slaNotificationID(inq.ID)
		if _, seen := d.board.Get(id); seen {
			continue
		}
		n := notify.Notification{
			ID:        id,
			Type:      notify.KindSLA,
			Title:     "SLA breached",
			Message:   fmt.Sprintf("%s has waited past its %s deadline", inq.Subject, inq.Priority),
			ChatID:    inq.ID,
			Priority:  string(inq.Priority),
			CreatedAt: now,
		}
		d.board.Upsert(n)
		outbox = append(outbox, n)
	}
	if breached > 0 {
		d.log.Warn("sla breaches", slog.Int("waiting", breached))
	}
	return breached
}
