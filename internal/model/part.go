package model

import "github.com/shopspring/decimal"

// Part is a catalog entry for a used car part.
type Part struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:100;not null;index"`
	CarModel    string          `json:"car_model" gorm:"size:100;not null;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Image       string          `json:"image" gorm:"size:255;not null"` // relative path, e.g. images/12_mirror.png
}

// TableName pins the table name to "part".
func (Part) TableName() string {
	return "part"
}
