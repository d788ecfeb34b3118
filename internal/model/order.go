package model

import "time"

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusArrived   OrderStatus = "Arrived"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// DefaultDeliveryDelayDays is the delivery delay given to every new order.
const DefaultDeliveryDelayDays = 7

// OrderStatuses lists every valid status. Any status may follow any other.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusArrived,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus returns the status named s, matching case exactly.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// Address is the delivery address, stored as a JSON document on the order row.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is a placed order. Its parts are fixed at creation; only Status changes afterwards.
type Order struct {
	ID                uint        `json:"id" gorm:"primaryKey"`
	UserID            uint        `json:"user_id" gorm:"not null;index"`
	Address           Address     `json:"address" gorm:"type:text;serializer:json;not null"`
	Status            OrderStatus `json:"status" gorm:"size:50;not null;default:'Pending';index"`
	CreatedAt         time.Time   `json:"created_at" gorm:"not null;index"`
	DeliveryDelayDays int         `json:"delivery_delay_days" gorm:"not null;default:7"`

	// Relations
	User  User   `json:"-" gorm:"foreignKey:UserID"`
	Parts []Part `json:"parts" gorm:"many2many:order_part;joinForeignKey:OrderID;joinReferences:PartID"`
}

// TableName pins the table name to "order".
func (Order) TableName() string {
	return "order"
}

// OrderPart is one line item: the join row between an order and a part.
type OrderPart struct {
	OrderID uint `json:"order_id" gorm:"primaryKey;autoIncrement:false"`
	PartID  uint `json:"part_id" gorm:"primaryKey;autoIncrement:false"`
}

// TableName pins the table name to "order_part".
func (OrderPart) TableName() string {
	return "order_part"
}
