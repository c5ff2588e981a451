package events

import "time"

const LeaveDecidedTopic = "ops.leave.decision.v1"

type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	DaysDebit  int       `json:"days_debit"`
	OccurredAt time.Time `json:"occurred_at"`
}
