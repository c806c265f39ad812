package dto

import "time"

type CreateJobRequest struct {
	Title         string     `json:"title" binding:"required" validate:"required,min=5"`
	Description   string     `json:"description"`
	City          string     `json:"city" binding:"required" validate:"required"`
	Address       *string    `json:"address"`
	Category      string     `json:"category" binding:"required" validate:"required"`
	Skills        []string   `json:"skills"`
	BudgetMin     float64    `json:"budget_min" validate:"gte=0"`
	BudgetMax     float64    `json:"budget_max" validate:"gte=0"`
	PreferredDate *time.Time `json:"preferred_date"`
}

type JobListQuery struct {
	City     string `form:"city"`
	Category string `form:"category"`
	Status   string `form:"status" validate:"omitempty,is-job-status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" validate:"omitempty,max=100"`
}

type ApplyRequest struct {
	Message *string  `json:"message"`
	Quoted  *float64 `json:"quoted" validate:"omitempty,gte=0"`
}

type AssignRequest struct {
	ApplicationID string `json:"application_id" binding:"required" validate:"required"`
}

type CommentRequest struct {
	Body string `json:"body" binding:"required" validate:"required,min=1,max=2000"`
}

type MessageRequest struct {
	Body string `json:"body" binding:"required" validate:"required,min=1,max=4000"`
}
