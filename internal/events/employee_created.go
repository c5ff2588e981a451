package events

import "time"

const EmployeeCreatedTopic = "ops.employee.lifecycle.v1"

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	EmployeeID string    `json:"employee_id"`
	Department string    `json:"department"`
	OccurredAt time.Time `json:"occurred_at"`
}
