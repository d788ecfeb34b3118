package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/session"
)

// AddressInput is the raw delivery address of a new order.
type AddressInput struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// OrderService turns carts into orders and manages their status.
type OrderService interface {
	CreateOrder(ctx context.Context, sess *session.Session, address *AddressInput) (*model.Order, error)
	ListOrders(ctx context.Context, p session.Principal) ([]model.Order, error)
	// ListAllOrders returns every order with its owner loaded.
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	DeleteOrder(ctx context.Context, p session.Principal, id uint) error
	UpdateOrderStatus(ctx context.Context, id uint, status string) error
}

type orderService struct {
	store     repository.Store
	sessions  *session.Manager
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(store repository.Store, sessions *session.Manager, sanitizer *sanitize.Sanitizer, logger *zap.Logger) OrderService {
	return &orderService{
		store:     store,
		sessions:  sessions,
		sanitizer: sanitizer,
		logger:    logger.Named("order"),
	}
}

// CreateOrder persists the order and its line items and empties the cart. The
// cart is saved before the commit and restored if anything fails, so it is
// only ever cleared together with a stored order.
func (s *orderService) CreateOrder(ctx context.Context, sess *session.Session, address *AddressInput) (*model.Order, error) {
	if sess == nil {
		return nil, errors.ErrUnauthorized
	}
	if address == nil || sess.Cart.Len() == 0 || !hasAddressContent(address) {
		return nil, errors.Validation("address and parts are required")
	}

	order := &model.Order{
		UserID:            sess.UserID,
		Address:           s.cleanAddress(sess.UserID, address),
		Status:            model.OrderStatusPending,
		DeliveryDelayDays: model.DefaultDeliveryDelayDays,
	}
	partIDs := sess.Cart.IDs()

	cartSaved := false
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		// the account may have been deleted from another device
		if _, err := tx.Users().FindByID(ctx, sess.UserID); err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrUnauthorized
			}
			return errors.Internal("find user", err)
		}

		parts, err := tx.Parts().FindByIDs(ctx, partIDs)
		if err != nil {
			return errors.Internal("load panel parts", err)
		}
		if len(parts) != len(partIDs) {
			return errors.Validation("some parts in the panel are no longer available")
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return errors.Internal("create order", err)
		}
		if err := tx.Orders().AddParts(ctx, order.ID, partIDs); err != nil {
			return errors.Internal("create order items", err)
		}

		sess.Cart.Clear()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return saveSessionError(err)
		}
		cartSaved = true
		return nil
	})
	if err != nil {
		sess.Cart.PartIDs = partIDs
		if cartSaved {
			if restoreErr := s.sessions.Save(ctx, sess); restoreErr != nil {
				s.logger.Error("restore panel failed", zap.Uint("user_id", sess.UserID), zap.Error(restoreErr))
			}
		}
		if errors.Is(err, errors.KindInternal) {
			s.logger.Error("create order failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("order created", zap.Uint("order_id", order.ID), zap.Uint("user_id", sess.UserID), zap.Int("parts", len(partIDs)))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, p session.Principal) ([]model.Order, error) {
	if !p.IsAuthenticated() {
		return nil, errors.ErrUnauthorized
	}
	orders, err := s.store.Orders().ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, errors.Internal("list orders", err)
	}
	return orders, nil
}

func (s *orderService) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.store.Orders().ListAll(ctx)
	if err != nil {
		return nil, errors.Internal("list all orders", err)
	}
	return orders, nil
}

// DeleteOrder lets a customer withdraw their own pending order. Admins are
// refused on this path.
func (s *orderService) DeleteOrder(ctx context.Context, p session.Principal, id uint) error {
	if !p.IsAuthenticated() || p.IsAdmin() {
		return errors.ErrUnauthorized
	}

	return s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return errors.ErrOrderNotFound
			}
			return errors.Internal("find order", err)
		}
		if order.UserID != p.UserID {
			return errors.Forbidden("unauthorized")
		}
		if order.Status != model.OrderStatusPending {
			return errors.Validation("only pending orders can be deleted")
		}
		if err := tx.Orders().Delete(ctx, id); err != nil {
			return errors.Internal("delete order", err)
		}
		s.logger.Info("order deleted", zap.Uint("order_id", id), zap.Uint("user_id", p.UserID))
		return nil
	})
}

// UpdateOrderStatus overwrites the status. Any status may follow any other.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uint, raw string) error {
	status, ok := model.ParseOrderStatus(s.sanitizer.Clean(strings.TrimSpace(raw)))
	if !ok {
		return errors.Validation("status must be one of Pending, Shipped, Arrived, Delivered, Cancelled")
	}

	if _, err := s.store.Orders().FindByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return errors.ErrOrderNotFound
		}
		return errors.Internal("find order", err)
	}
	if err := s.store.Orders().UpdateStatus(ctx, id, status); err != nil {
		return errors.Internal("update order status", err)
	}

	s.logger.Info("order status updated", zap.Uint("order_id", id), zap.String("status", string(status)))
	return nil
}

// cleanAddress sanitizes every field on its own. A rejected field is stored empty.
func (s *orderService) cleanAddress(userID uint, in *AddressInput) model.Address {
	fields := []struct {
		name string
		raw  string
	}{
		{"street", in.Street},
		{"city", in.City},
		{"postal_code", in.PostalCode},
		{"country", in.Country},
	}
	cleaned := make([]string, len(fields))
	for i, f := range fields {
		raw := strings.TrimSpace(f.raw)
		cleaned[i] = s.sanitizer.Clean(raw)
		if raw != "" && cleaned[i] == "" {
			s.logger.Warn("address field rejected", zap.Uint("user_id", userID), zap.String("field", f.name))
		}
	}
	return model.Address{
		Street:     cleaned[0],
		City:       cleaned[1],
		PostalCode: cleaned[2],
		Country:    cleaned[3],
	}
}

func hasAddressContent(in *AddressInput) bool {
	for _, v := range []string{in.Street, in.City, in.PostalCode, in.Country} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
