package models

type JobComment struct {
	BaseModel
	JobID    string `gorm:"not null;index"`
	AuthorID string `gorm:"not null;index"`
	Body     string `gorm:"not null"`
}

// JobMessage - личное сообщение в рамках заказа (фиксер <-> наниматель).
type JobMessage struct {
	BaseModel
	JobID       string `gorm:"not null;index"`
	SenderID    string `gorm:"not null;index"`
	RecipientID string `gorm:"not null;index"`
	Body        string `gorm:"not null"`
	IsRead      bool   `gorm:"default:false"`
}
