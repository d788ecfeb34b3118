package model

import "time"

// ContactMessage is a message sent by an authenticated user to the shop.
type ContactMessage struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	UserID  uint   `json:"user_id" gorm:"not null;index"`
	Message string `json:"message" gorm:"type:text;not null"`
}

// TableName pins the table name to "contact_message".
func (ContactMessage) TableName() string {
	return "contact_message"
}

// Comment is a public testimonial. It has no owner.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
}

// TableName pins the table name to "comment".
func (Comment) TableName() string {
	return "comment"
}
