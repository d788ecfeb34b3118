package model

// User is a registered customer or administrator.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Email        string `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	IsAdmin      bool   `json:"is_admin" gorm:"not null;default:false"`

	// Relations
	ContactMessages []ContactMessage `json:"-" gorm:"foreignKey:UserID"`
	Orders          []Order          `json:"-" gorm:"foreignKey:UserID"`
}

// TableName pins the table name to "user".
func (User) TableName() string {
	return "user"
}
