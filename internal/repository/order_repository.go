package repository

import (
	"context"

	"gorm.io/gorm"

	"carparts/internal/model"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	// AddParts writes one line item per part id.
	AddParts(ctx context.Context, orderID uint, partIDs []uint) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	// ListByUser returns the user's orders with their parts, newest first.
	ListByUser(ctx context.Context, userID uint) ([]model.Order, error)
	// ListAll returns every order with its owner and parts, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error
	// Delete removes the order and its line items.
	Delete(ctx context.Context, id uint) error
	CountByUserExcludingStatus(ctx context.Context, userID uint, status model.OrderStatus) (int64, error)
	// DeleteByUserWithStatus removes the user's orders in status, with their line items.
	DeleteByUserWithStatus(ctx context.Context, userID uint, status model.OrderStatus) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds a GORM-backed repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("Parts", "User").Create(order).Error
}

func (r *orderRepository) AddParts(ctx context.Context, orderID uint, partIDs []uint) error {
	if len(partIDs) == 0 {
		return nil
	}
	items := make([]model.OrderPart, 0, len(partIDs))
	for _, id := range partIDs {
		items = append(items, model.OrderPart{OrderID: orderID, PartID: id})
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.WithContext(ctx).
		Preload("Parts").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Parts").
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Delete(&model.OrderPart{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.Order{}, id).Error
}

func (r *orderRepository) CountByUserExcludingStatus(ctx context.Context, userID uint, status model.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND status <> ?", userID, status).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) DeleteByUserWithStatus(ctx context.Context, userID uint, status model.OrderStatus) error {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND status = ?", userID, status).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Delete(&model.OrderPart{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Order{}).Error
}
