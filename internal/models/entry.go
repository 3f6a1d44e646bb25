package models

import (
	"time"
)

// Entry is one signed line in the guestbook. Entries are never updated or deleted.
type Entry struct {
	Name      string    `json:"name" gorm:"column:name;type:text;not null"`
	Message   string    `json:"message" gorm:"column:message;type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP;index:idx_guestbook_created_at,sort:desc;autoCreateTime:false"`
}

// TableName keeps the table name existing deployments already use
func (Entry) TableName() string {
	return "guestbook"
}

// SignRequest is the form posted to /sign.
// gin's "required" rule rejects only the empty string; whitespace-only values pass.
type SignRequest struct {
	Name    string `form:"name" binding:"required"`
	Message string `form:"message" binding:"required"`
}
