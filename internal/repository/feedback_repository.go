package repository

import (
	"context"

	"gorm.io/gorm"

	"carparts/internal/model"
)

// ContactMessageRepository stores messages users send to the shop.
type ContactMessageRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type contactMessageRepository struct {
	db *gorm.DB
}

// NewContactMessageRepository builds a GORM-backed repository.
func NewContactMessageRepository(db *gorm.DB) ContactMessageRepository {
	return &contactMessageRepository{db: db}
}

func (r *contactMessageRepository) Create(ctx context.Context, msg *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *contactMessageRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.ContactMessage{}).Error
}

// CommentRepository stores public comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListRecent(ctx context.Context, limit int) ([]model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository builds a GORM-backed repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) ListRecent(ctx context.Context, limit int) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
