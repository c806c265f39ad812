package models

import (
	"time"

	"gorm.io/datatypes"
)

type Job struct {
	BaseModel
	HirerID         string `gorm:"not null;index"`
	Title           string `gorm:"not null"`
	Description     string
	City            string         `gorm:"index"`
	Address         *string
	Category        string         `gorm:"index"`
	Skills          datatypes.JSON `gorm:"type:jsonb"`
	BudgetMin       float64
	BudgetMax       float64
	PreferredDate   *time.Time
	Status          JobStatus `gorm:"type:varchar(20);default:'open';index"`
	AssignedFixerID *string   `gorm:"index"`
	Views           int       `gorm:"default:0"`
}
