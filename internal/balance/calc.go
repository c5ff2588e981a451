package balance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Leave types recognized by the allocation and approval flows.
const (
	LeaveAnnual          = "ANNUAL"
	LeaveSick            = "SICK"
	LeaveCasual          = "CASUAL"
	LeaveMaternity       = "MATERNITY"
	LeavePaternity       = "PATERNITY"
	LeaveAlternateDayOff = "ALTERNATE_DAY_OFF"
	LeaveOthers          = "OTHERS"
)

// Annual quotas for a full year of service.
var fullQuotas = map[string]int{
	LeaveAnnual:          14,
	LeaveSick:            7,
	LeaveCasual:          6,
	LeaveMaternity:       90,
	LeavePaternity:       7,
	LeaveAlternateDayOff: 50,
	LeaveOthers:          0,
}

// Leave types scaled down for mid-year joiners. Maternity, paternity and
// "others" stay at their fixed quota regardless of join month.
var proRatedTypes = map[string]bool{
	LeaveAnnual:          true,
	LeaveSick:            true,
	LeaveCasual:          true,
	LeaveAlternateDayOff: true,
}

type Quota struct {
	Total int
	Used  int
}

// Allocation maps a leave type to its quota.
type Allocation map[string]Quota

// ProRataLeave computes the leave allocation for an employee who joined on
// joinDate, as of now. Joins before the current year (including anything
// older than one year, or in the future) get the full quota; joins within
// the current year scale the pro-ratable types by the months remaining.
func ProRataLeave(joinDate, now time.Time) Allocation {
	alloc := make(Allocation, len(fullQuotas))

	scale := joinDate.Year() == now.Year()
	joinMonth := int(joinDate.Month())

	for leaveType, quota := range fullQuotas {
		total := quota
		if scale && proRatedTypes[leaveType] {
			total = int(math.Round(float64(quota) * float64(12-joinMonth) / 12.0))
		}
		alloc[leaveType] = Quota{Total: total}
	}

	return alloc
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// InclusiveDays returns the day count of the range, both endpoints counted.
func (r DateRange) InclusiveDays() int {
	start := dateOnly(r.Start)
	end := dateOnly(r.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

type PaidDays struct {
	Present   int
	PaidLeave int
	Total     int
}

// ComputePaidDays counts payable days for one employee in a given month.
// Present days come from attendance records; paid-leave days are calendar
// days inside an approved leave range that fall in the month and do not
// coincide with a present day, so no day is ever counted twice.
func ComputePaidDays(year int, month time.Month, attendanceDates []time.Time, approvedLeaves []DateRange) PaidDays {
	present := make(map[time.Time]bool, len(attendanceDates))
	presentCount := 0
	for _, d := range attendanceDates {
		day := dateOnly(d)
		if day.Year() != year || day.Month() != month {
			continue
		}
		presentCount++
		present[day] = true
	}

	leaveDays := make(map[time.Time]bool)
	for _, leave := range approvedLeaves {
		for day := dateOnly(leave.Start); !day.After(dateOnly(leave.End)); day = day.AddDate(0, 0, 1) {
			if day.Year() != year || day.Month() != month {
				continue
			}
			if present[day] {
				continue
			}
			leaveDays[day] = true
		}
	}

	return PaidDays{
		Present:   presentCount,
		PaidLeave: len(leaveDays),
		Total:     presentCount + len(leaveDays),
	}
}

type Pay struct {
	NetPay    decimal.Decimal
	Deduction decimal.Decimal
}

var payrollDivisorDays = decimal.NewFromInt(30)

// ComputeNetPay derives net pay from a 30-day month. When no attendance
// data exists for the month at all, the employee is paid in full rather
// than penalized for missing data.
func ComputeNetPay(baseSalary decimal.Decimal, totalPaidDays int, hasAttendanceData bool) Pay {
	if !hasAttendanceData {
		return Pay{NetPay: baseSalary.Round(2), Deduction: decimal.Zero.Round(2)}
	}

	effectiveDays := totalPaidDays
	if effectiveDays > 30 {
		effectiveDays = 30
	}

	perDiem := baseSalary.Div(payrollDivisorDays)
	netPay := perDiem.Mul(decimal.NewFromInt(int64(effectiveDays))).Round(2)

	deduction := baseSalary.Sub(netPay).Round(2)
	if deduction.IsNegative() {
		deduction = decimal.Zero.Round(2)
	}

	return Pay{NetPay: netPay, Deduction: deduction}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
