package leave

import (
	"time"

	"github.com/google/uuid"
)

// Leave request states. APPROVED and REJECTED are terminal.
const (
	StatusPendingHOD = "PENDING_HOD"
	StatusPendingHR  = "PENDING_HR"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
)

// Approval actions.
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`

	LeaveType string    `gorm:"type:varchar(30);not null"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	TotalDays int       `gorm:"not null;default:1"`
	Reason    string    `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(30);not null;default:'PENDING_HOD';index:idx_leave_requests_status"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ActedBy         *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// transitions maps a current status to the statuses each action may move
// it to. Terminal states have no entry, so any action on them fails.
var transitions = map[string]map[string]string{
	StatusPendingHOD: {
		ActionApprove: StatusPendingHR,
		ActionReject:  StatusRejected,
	},
	StatusPendingHR: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
}

func nextStatus(current, action string) (string, bool) {
	next, ok := transitions[current][action]
	return next, ok
}
