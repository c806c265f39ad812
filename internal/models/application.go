package models

type JobApplication struct {
	BaseModel
	JobID   string            `gorm:"not null;uniqueIndex:idx_app_job_fixer"`
	FixerID string            `gorm:"not null;uniqueIndex:idx_app_job_fixer"`
	Message *string
	Quoted  *float64          // предложенная фиксером цена
	Quick   bool              `gorm:"default:false"` // отклик в один клик, без сообщения
	Status  ApplicationStatus `gorm:"type:varchar(20);default:'pending';index"`
}
