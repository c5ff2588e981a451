package employee

type CreateEmployeeRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Department  string  `json:"department" binding:"required"`
	Designation string  `json:"designation"`
	Category    string  `json:"category" binding:"required,oneof=PERMANENT PROBATION CONTRACT"`
	JoinDate    string  `json:"join_date" binding:"required"`
	BaseSalary  float64 `json:"base_salary" binding:"gte=0"`
}

type UpdateEmployeeRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Department  string  `json:"department" binding:"required"`
	Designation string  `json:"designation"`
	Category    string  `json:"category" binding:"required,oneof=PERMANENT PROBATION CONTRACT"`
	BaseSalary  float64 `json:"base_salary" binding:"gte=0"`
}

type LeaveBalanceResponse struct {
	LeaveType string `json:"leave_type"`
	Total     int    `json:"total"`
	Used      int    `json:"used"`
}

type EmployeeResponse struct {
	ID          string                 `json:"id"`
	FullName    string                 `json:"full_name"`
	Department  string                 `json:"department"`
	Designation string                 `json:"designation,omitempty"`
	Category    string                 `json:"category"`
	JoinDate    string                 `json:"join_date"`
	BaseSalary  string                 `json:"base_salary"`
	Balances    []LeaveBalanceResponse `json:"leave_balances,omitempty"`
}
