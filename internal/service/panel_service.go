package service

import (
	"context"

	"go.uber.org/zap"

	"carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/session"
)

// PanelService manages the session cart. Nothing here touches the database
// except to resolve part ids for display.
type PanelService interface {
	Add(ctx context.Context, sess *session.Session, partID uint) error
	// Get returns the cart's parts in cart order, skipping ids that no longer exist.
	Get(ctx context.Context, sess *session.Session) ([]model.Part, error)
	Remove(ctx context.Context, sess *session.Session, partID uint) error
}

type panelService struct {
	parts    repository.PartRepository
	sessions *session.Manager
	logger   *zap.Logger
}

// NewPanelService creates a new panel service.
func NewPanelService(store repository.Store, sessions *session.Manager, logger *zap.Logger) PanelService {
	return &panelService{
		parts:    store.Parts(),
		sessions: sessions,
		logger:   logger.Named("panel"),
	}
}

func (s *panelService) Add(ctx context.Context, sess *session.Session, partID uint) error {
	if sess == nil {
		return errors.ErrUnauthorized
	}
	if partID == 0 {
		return errors.Validation("part ID is required")
	}
	if !sess.Cart.Add(partID) {
		return nil
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		sess.Cart.Remove(partID)
		return saveSessionError(err)
	}
	s.logger.Debug("part added to panel", zap.Uint("user_id", sess.UserID), zap.Uint("part_id", partID))
	return nil
}

func (s *panelService) Get(ctx context.Context, sess *session.Session) ([]model.Part, error) {
	if sess == nil {
		return nil, errors.ErrUnauthorized
	}
	parts, err := s.parts.FindByIDs(ctx, sess.Cart.IDs())
	if err != nil {
		return nil, errors.Internal("load panel parts", err)
	}
	return parts, nil
}

func (s *panelService) Remove(ctx context.Context, sess *session.Session, partID uint) error {
	if sess == nil {
		return errors.ErrUnauthorized
	}
	if partID == 0 {
		return errors.Validation("part ID is required")
	}
	before := sess.Cart.IDs()
	if !sess.Cart.Remove(partID) {
		return errors.ErrNotInPanel
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		sess.Cart.PartIDs = before
		return saveSessionError(err)
	}
	return nil
}

// saveSessionError maps a failed session write; a session destroyed
// mid-request leaves the caller logged out.
func saveSessionError(err error) error {
	if session.IsNotFound(err) {
		return errors.ErrUnauthorized
	}
	return errors.Internal("save session", err)
}
