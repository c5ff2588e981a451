package task

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Assignee    string `json:"assignee" binding:"required,uuid"`
}

type ActTaskRequest struct {
	NewStatus   string `json:"new_status" binding:"required,oneof=IN_PROGRESS PENDING_REVIEW CLOSED REOPENED"`
	ActionLabel string `json:"action_label" binding:"required"`
	Remarks     string `json:"remarks"`
}

type TaskHistoryResponse struct {
	Seq       int     `json:"seq"`
	Action    string  `json:"action"`
	Actor     string  `json:"actor"`
	Details   *string `json:"details,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type TaskResponse struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Description       *string               `json:"description,omitempty"`
	Assignee          string                `json:"assignee"`
	Status            string                `json:"status"`
	CompletionRemarks *string               `json:"completion_remarks,omitempty"`
	RejectionRemarks  *string               `json:"rejection_remarks,omitempty"`
	CompletedDate     *string               `json:"completed_date,omitempty"`
	CreatedBy         string                `json:"created_by"`
	History           []TaskHistoryResponse `json:"history"`
}
