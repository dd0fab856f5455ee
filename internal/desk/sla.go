package desk

import "time"

// slaMinutes is the response commitment per priority.
var slaMinutes = map[Priority]int{
	PriorityUrgent: 5,
	PriorityHigh:   15,
	PriorityNormal: 30,
	PriorityLow:    60,
}

// complaintThreshold is the prior-complaint count above which a customer is
// treated as high priority.
const complaintThreshold = 2

// DeterminePriority picks the inbound priority for a customer. Inbound
// inquiries are only ever high or normal; urgent and low come from manual
// edits after assignment.
func DeterminePriority(c Customer) Priority {
	if c.Tier == TierGold || c.VIP || c.Complaints > complaintThreshold {
		return PriorityHigh
	}
	return PriorityNormal
}

// SLAWindow returns the response window for p. Unknown priorities get the
// normal window.
func SLAWindow(p Priority) time.Duration {
	m, ok := slaMinutes[p]
	if !ok {
		m = slaMinutes[PriorityNormal]
	}
	return time.Duration(m) * time.Minute
}

// CalculateSLA returns the deadline committed at now for priority p. The
// deadline is fixed at creation; later priority edits do not move it.
func CalculateSLA(p Priority, now time.Time) time.Time {
	return now.Add(SLAWindow(p))
}
