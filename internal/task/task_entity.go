package task

import (
	"time"

	"github.com/google/uuid"
)

// Task states. CLOSED is terminal; REOPENED re-enters the active cycle.
const (
	StatusOpen          = "OPEN"
	StatusInProgress    = "IN_PROGRESS"
	StatusPendingReview = "PENDING_REVIEW"
	StatusClosed        = "CLOSED"
	StatusReopened      = "REOPENED"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description *string   `gorm:"type:text"`
	Assignee    uuid.UUID `gorm:"type:uuid;not null;index:idx_tasks_assignee"`

	Status string `gorm:"type:varchar(30);not null;default:'OPEN'"`

	CompletionRemarks *string    `gorm:"type:text"`
	RejectionRemarks  *string    `gorm:"type:text"`
	CompletedDate     *time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	History []TaskHistory `gorm:"foreignKey:TaskID"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskHistory is one audit entry. Entries are append-only: the (task_id,
// seq) pair is unique and existing rows are never rewritten.
type TaskHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null"`
	Seq       int       `gorm:"not null"`
	Action    string    `gorm:"type:varchar(50);not null"`
	Actor     uuid.UUID `gorm:"type:uuid;not null"`
	Details   *string   `gorm:"type:text"`
	CreatedAt time.Time
}

func (TaskHistory) TableName() string {
	return "task_histories"
}

// transitions is the closed set of allowed status moves.
var transitions = map[string]map[string]bool{
	StatusOpen:          {StatusInProgress: true},
	StatusInProgress:    {StatusPendingReview: true},
	StatusPendingReview: {StatusClosed: true, StatusReopened: true},
	StatusReopened:      {StatusInProgress: true},
}

func canTransition(from, to string) bool {
	return transitions[from][to]
}
