package domain

type EnforceRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Resource   string `json:"resource" binding:"required"`
	Action     string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

// ModuleAccess is the derived read-only view the UI uses to decide which
// console modules to render for a role.
type ModuleAccess struct {
	Module  string   `json:"module"`
	Actions []string `json:"actions"`
}
