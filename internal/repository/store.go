package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Store groups the repositories that share one database handle.
type Store interface {
	Users() UserRepository
	Parts() PartRepository
	Orders() OrderRepository
	ContactMessages() ContactMessageRepository
	Comments() CommentRepository
	// WithTransaction runs fn with a Store bound to a single transaction.
	// Returning an error from fn rolls the transaction back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore builds a GORM-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) Parts() PartRepository {
	return &partRepository{db: s.db}
}

func (s *gormStore) Orders() OrderRepository {
	return &orderRepository{db: s.db}
}

func (s *gormStore) ContactMessages() ContactMessageRepository {
	return &contactMessageRepository{db: s.db}
}

func (s *gormStore) Comments() CommentRepository {
	return &commentRepository{db: s.db}
}

// WithTransaction executes a function within a database transaction.
func (s *gormStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormStore{db: tx})
	})
}
