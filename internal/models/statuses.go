package models

type UserStatus string
type UserRole string
type JobStatus string
type ApplicationStatus string
type PlanType string
type PlanStatus string
type PaymentStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"

	UserRoleFixer UserRole = "fixer"
	UserRoleHirer UserRole = "hirer"
	UserRoleAdmin UserRole = "admin"

	JobStatusOpen      JobStatus = "open"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusClosed    JobStatus = "closed"
	JobStatusCancelled JobStatus = "cancelled"

	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"

	PlanTypeFree PlanType = "free"
	PlanTypePro  PlanType = "pro"

	// PlanStatus имеет смысл только для тарифа "pro".
	PlanStatusActive    PlanStatus = "active"
	PlanStatusInactive  PlanStatus = "inactive"
	PlanStatusExpired   PlanStatus = "expired"
	PlanStatusCancelled PlanStatus = "cancelled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)
