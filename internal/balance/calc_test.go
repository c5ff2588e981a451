package balance_test

import (
	"math"
	"testing"
	"time"

	"go-bizops/internal/balance"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProRataLeave_PriorYearJoinGetsFullQuota(t *testing.T) {
	now := date(2024, time.September, 15)

	alloc := balance.ProRataLeave(date(2021, time.March, 10), now)

	assert.Equal(t, 14, alloc[balance.LeaveAnnual].Total)
	assert.Equal(t, 7, alloc[balance.LeaveSick].Total)
	assert.Equal(t, 6, alloc[balance.LeaveCasual].Total)
	assert.Equal(t, 90, alloc[balance.LeaveMaternity].Total)
	assert.Equal(t, 7, alloc[balance.LeavePaternity].Total)
	assert.Equal(t, 50, alloc[balance.LeaveAlternateDayOff].Total)
	assert.Equal(t, 0, alloc[balance.LeaveOthers].Total)

	for leaveType, quota := range alloc {
		assert.Zerof(t, quota.Used, "used must start at zero for %s", leaveType)
	}
}

func TestProRataLeave_CurrentYearJoinScalesByRemainingMonths(t *testing.T) {
	now := date(2024, time.October, 1)

	testCases := []struct {
		name       string
		joinDate   time.Time
		wantAnnual int
		wantSick   int
		wantCasual int
		wantADO    int
	}{
		{
			name:       "july joiner gets five twelfths",
			joinDate:   date(2024, time.July, 1),
			wantAnnual: 6, // round(14 * 5/12)
			wantSick:   3,
			wantCasual: 3, // round(6 * 5/12) = round(2.5)
			wantADO:    21,
		},
		{
			name:       "january joiner gets eleven twelfths",
			joinDate:   date(2024, time.January, 20),
			wantAnnual: 13,
			wantSick:   6,
			wantCasual: 6, // round(5.5)
			wantADO:    46,
		},
		{
			name:       "december joiner gets nothing pro-ratable",
			joinDate:   date(2024, time.December, 5),
			wantAnnual: 0,
			wantSick:   0,
			wantCasual: 0,
			wantADO:    0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alloc := balance.ProRataLeave(tc.joinDate, now)

			assert.Equal(t, tc.wantAnnual, alloc[balance.LeaveAnnual].Total)
			assert.Equal(t, tc.wantSick, alloc[balance.LeaveSick].Total)
			assert.Equal(t, tc.wantCasual, alloc[balance.LeaveCasual].Total)
			assert.Equal(t, tc.wantADO, alloc[balance.LeaveAlternateDayOff].Total)

			// Fixed types never scale.
			assert.Equal(t, 90, alloc[balance.LeaveMaternity].Total)
			assert.Equal(t, 7, alloc[balance.LeavePaternity].Total)
			assert.Equal(t, 0, alloc[balance.LeaveOthers].Total)
		})
	}
}

func TestProRataLeave_AnnualMatchesFormulaForEveryMonth(t *testing.T) {
	now := date(2024, time.December, 31)

	for m := time.January; m <= time.December; m++ {
		alloc := balance.ProRataLeave(date(2024, m, 15), now)
		want := int(math.Round(14 * float64(12-int(m)) / 12.0))
		assert.Equalf(t, want, alloc[balance.LeaveAnnual].Total, "month %s", m)
	}
}

func TestDateRange_InclusiveDays(t *testing.T) {
	assert.Equal(t, 3, balance.DateRange{
		Start: date(2024, time.March, 1),
		End:   date(2024, time.March, 3),
	}.InclusiveDays())

	assert.Equal(t, 1, balance.DateRange{
		Start: date(2024, time.March, 1),
		End:   date(2024, time.March, 1),
	}.InclusiveDays())

	assert.Equal(t, 0, balance.DateRange{
		Start: date(2024, time.March, 3),
		End:   date(2024, time.March, 1),
	}.InclusiveDays())
}

func TestComputePaidDays_NoDoubleCounting(t *testing.T) {
	attendance := []time.Time{
		date(2024, time.March, 4),
		date(2024, time.March, 5),
		date(2024, time.March, 6),
	}
	// Leave overlaps March 5-8: the 5th and 6th coincide with attendance.
	leaves := []balance.DateRange{
		{Start: date(2024, time.March, 5), End: date(2024, time.March, 8)},
	}

	got := balance.ComputePaidDays(2024, time.March, attendance, leaves)

	assert.Equal(t, 3, got.Present)
	assert.Equal(t, 2, got.PaidLeave) // only the 7th and 8th
	assert.Equal(t, 5, got.Total)
}

func TestComputePaidDays_LeaveSpanningMonthBoundary(t *testing.T) {
	leaves := []balance.DateRange{
		{Start: date(2024, time.February, 27), End: date(2024, time.March, 2)},
	}

	got := balance.ComputePaidDays(2024, time.March, nil, leaves)

	assert.Equal(t, 0, got.Present)
	assert.Equal(t, 2, got.PaidLeave) // March 1 and 2 only
	assert.Equal(t, 2, got.Total)
}

func TestComputePaidDays_OverlappingLeavesCountOnce(t *testing.T) {
	leaves := []balance.DateRange{
		{Start: date(2024, time.March, 10), End: date(2024, time.March, 12)},
		{Start: date(2024, time.March, 11), End: date(2024, time.March, 13)},
	}

	got := balance.ComputePaidDays(2024, time.March, nil, leaves)

	assert.Equal(t, 4, got.PaidLeave)
}

func TestComputeNetPay(t *testing.T) {
	base := decimal.NewFromInt(30000)

	t.Run("no attendance data pays full salary", func(t *testing.T) {
		pay := balance.ComputeNetPay(base, 0, false)
		assert.True(t, pay.NetPay.Equal(base))
		assert.True(t, pay.Deduction.IsZero())
	})

	t.Run("paid days prorate against thirty", func(t *testing.T) {
		pay := balance.ComputeNetPay(base, 18, true)
		assert.True(t, pay.NetPay.Equal(decimal.NewFromInt(18000)), "got %s", pay.NetPay)
		assert.True(t, pay.Deduction.Equal(decimal.NewFromInt(12000)), "got %s", pay.Deduction)
	})

	t.Run("paid days cap at thirty", func(t *testing.T) {
		pay := balance.ComputeNetPay(base, 31, true)
		assert.True(t, pay.NetPay.Equal(base))
		assert.True(t, pay.Deduction.IsZero())
	})

	t.Run("zero paid days with data deducts everything", func(t *testing.T) {
		pay := balance.ComputeNetPay(base, 0, true)
		assert.True(t, pay.NetPay.IsZero())
		assert.True(t, pay.Deduction.Equal(base))
	})
}
