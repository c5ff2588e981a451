package attendance

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"
)

type Attendance struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	AttendanceDate time.Time  `gorm:"type:date;not null;index:idx_attendances_date"`
	ClockIn        time.Time  `gorm:"type:timestamptz;not null"`
	ClockOut       *time.Time `gorm:"type:timestamptz"`
	Status         string     `gorm:"type:varchar(20);not null;default:PRESENT"`
	Notes          *string    `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Attendance) TableName() string {
	return "attendances"
}
