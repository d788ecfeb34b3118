package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/session"
)

const (
	maxCommentName   = 100
	maxCommentText   = 1000
	recentCommentCap = 5
)

// FeedbackService stores public comments and private contact messages.
type FeedbackService interface {
	AddComment(ctx context.Context, name, comment string) (*model.Comment, error)
	// ListComments returns the most recent comments, newest first.
	ListComments(ctx context.Context) ([]model.Comment, error)
	SubmitContactMessage(ctx context.Context, p session.Principal, message string) (*model.ContactMessage, error)
}

type feedbackService struct {
	store     repository.Store
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store repository.Store, sanitizer *sanitize.Sanitizer, logger *zap.Logger) FeedbackService {
	return &feedbackService{
		store:     store,
		sanitizer: sanitizer,
		logger:    logger.Named("feedback"),
	}
}

func (s *feedbackService) AddComment(ctx context.Context, name, comment string) (*model.Comment, error) {
	name = s.sanitizer.Clean(strings.TrimSpace(name))
	comment = s.sanitizer.Clean(strings.TrimSpace(comment))
	if name == "" || comment == "" {
		return nil, errors.Validation("name and comment are required")
	}
	if utf8.RuneCountInString(name) > maxCommentName || utf8.RuneCountInString(comment) > maxCommentText {
		return nil, errors.Validation("input too long")
	}

	c := &model.Comment{Name: name, Comment: comment}
	if err := s.store.Comments().Create(ctx, c); err != nil {
		return nil, errors.Internal("create comment", err)
	}
	s.logger.Info("comment submitted", zap.Uint("comment_id", c.ID))
	return c, nil
}

func (s *feedbackService) ListComments(ctx context.Context) ([]model.Comment, error) {
	comments, err := s.store.Comments().ListRecent(ctx, recentCommentCap)
	if err != nil {
		return nil, errors.Internal("list comments", err)
	}
	return comments, nil
}

func (s *feedbackService) SubmitContactMessage(ctx context.Context, p session.Principal, message string) (*model.ContactMessage, error) {
	if !p.IsAuthenticated() {
		return nil, errors.ErrUnauthorized
	}
	message = s.sanitizer.Clean(strings.TrimSpace(message))
	if message == "" {
		return nil, errors.Validation("message is required")
	}

	if _, err := s.store.Users().FindByID(ctx, p.UserID); err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUnauthorized
		}
		return nil, errors.Internal("find user", err)
	}

	msg := &model.ContactMessage{UserID: p.UserID, Message: message}
	if err := s.store.ContactMessages().Create(ctx, msg); err != nil {
		return nil, errors.Internal("create contact message", err)
	}
	s.logger.Info("contact message sent", zap.Uint("user_id", p.UserID))
	return msg, nil
}
