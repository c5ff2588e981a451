package payroll

type RunPayrollRequest struct {
	// Month is the payroll month in YYYY-MM form.
	Month string `json:"month" binding:"required"`
}

type PayrollLineResponse struct {
	EmployeeID    string `json:"employee_id"`
	BaseSalary    string `json:"base_salary"`
	PresentDays   int    `json:"present_days"`
	PaidLeaveDays int    `json:"paid_leave_days"`
	Deduction     string `json:"deduction"`
	NetPay        string `json:"net_pay"`
}

type PayrollRunResponse struct {
	ID             string                `json:"id"`
	RunNumber      string                `json:"run_number"`
	RunDate        string                `json:"run_date"`
	MonthLabel     string                `json:"month_label"`
	TotalGross     string                `json:"total_gross"`
	TotalDeduction string                `json:"total_deduction"`
	TotalNet       string                `json:"total_net"`
	CreatedBy      string                `json:"created_by"`
	Lines          []PayrollLineResponse `json:"lines"`
}
