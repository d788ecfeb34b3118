package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"carparts/internal/config"
	"carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/session"
)

const bcryptCost = 10

// RegisterInput is the data needed to create a customer account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput changes the caller's own account. Nil fields are left as they are.
type UpdateProfileInput struct {
	Username        *string
	Email           *string
	CurrentPassword string
	NewPassword     *string
}

// LoginResult carries the new session and the token that names it.
type LoginResult struct {
	User    *model.User
	Session *session.Session
	Token   string
}

// AccountService handles registration, authentication and account lifecycle.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Logout destroys sess. It never fails; a backend error is only logged.
	Logout(ctx context.Context, sess *session.Session)
	// CheckAuth returns the user behind p, or nil for anonymous callers. It never fails.
	CheckAuth(ctx context.Context, p session.Principal) *model.User
	UpdateProfile(ctx context.Context, p session.Principal, in UpdateProfileInput) (*model.User, error)
	DeleteAccount(ctx context.Context, p session.Principal, currentPassword string) error
	// EnsureAdmin creates the bootstrap administrator if missing. It reports whether one was created.
	EnsureAdmin(ctx context.Context, admin config.AdminConfig) (bool, error)
}

type accountService struct {
	store     repository.Store
	sessions  *session.Manager
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store repository.Store, sessions *session.Manager, sanitizer *sanitize.Sanitizer, logger *zap.Logger) AccountService {
	return &accountService{
		store:     store,
		sessions:  sessions,
		sanitizer: sanitizer,
		logger:    logger.Named("account"),
	}
}

// Register creates a new account with hashed password.
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := s.sanitizer.Clean(strings.TrimSpace(in.Username))
	email := s.sanitizer.Clean(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, errors.Validation("all fields are required")
	}

	exists, err := s.store.Users().ExistsByUsernameOrEmail(ctx, username, email, 0)
	if err != nil {
		return nil, errors.Internal("check user existence", err)
	}
	if exists {
		return nil, errors.ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, errors.Internal("hash password", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, errors.Internal("create user", err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *accountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = s.sanitizer.Clean(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, errors.ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Warn("invalid login attempt", zap.String("username", username))
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Internal("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("invalid login attempt", zap.String("username", username))
		return nil, errors.ErrInvalidCredentials
	}

	sess, token, err := s.sessions.Create(ctx, user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, errors.Internal("create session", err)
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return &LoginResult{User: user, Session: sess, Token: token}, nil
}

// Logout destroys sess. It is safe to call without a session.
func (s *accountService) Logout(ctx context.Context, sess *session.Session) {
	if err := s.sessions.Destroy(ctx, sess); err != nil {
		s.logger.Error("destroy session failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
	}
}

func (s *accountService) CheckAuth(ctx context.Context, p session.Principal) *model.User {
	if !p.IsAuthenticated() {
		return nil
	}
	user, err := s.store.Users().FindByID(ctx, p.UserID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Error("check auth lookup failed", zap.Uint("user_id", p.UserID), zap.Error(err))
		}
		return nil
	}
	return user
}

func (s *accountService) UpdateProfile(ctx context.Context, p session.Principal, in UpdateProfileInput) (*model.User, error) {
	if !p.IsAuthenticated() {
		return nil, errors.ErrUnauthorized
	}
	if in.CurrentPassword == "" {
		return nil, errors.Validation("current password is required")
	}

	user, err := s.verifyPassword(ctx, p.UserID, in.CurrentPassword)
	if err != nil {
		return nil, err
	}

	username, ok := s.sanitizer.Optional(in.Username)
	if !ok {
		return nil, errors.Validation("invalid username")
	}
	email, ok := s.sanitizer.Optional(in.Email)
	if !ok {
		return nil, errors.Validation("invalid email")
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}

	exists, err := s.store.Users().ExistsByUsernameOrEmail(ctx, user.Username, user.Email, user.ID)
	if err != nil {
		return nil, errors.Internal("check user existence", err)
	}
	if exists {
		return nil, errors.ErrUserAlreadyExists
	}

	if in.NewPassword != nil {
		if *in.NewPassword == "" {
			return nil, errors.Validation("new password must not be empty")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.NewPassword), bcryptCost)
		if err != nil {
			return nil, errors.Internal("hash password", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, errors.Internal("update user", err)
	}

	if sess := p.Session; sess != nil && sess.Username != user.Username {
		sess.Username = user.Username
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.logger.Error("refresh session username failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	s.logger.Info("profile updated", zap.Uint("user_id", user.ID))
	return user, nil
}

// DeleteAccount removes the caller, their delivered orders and their contact
// messages, and ends the session. Nothing is removed if any step fails.
func (s *accountService) DeleteAccount(ctx context.Context, p session.Principal, currentPassword string) error {
	if !p.IsAuthenticated() {
		return errors.ErrUnauthorized
	}
	if currentPassword == "" {
		return errors.Validation("current password is required")
	}

	user, err := s.verifyPassword(ctx, p.UserID, currentPassword)
	if err != nil {
		return err
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		open, err := tx.Orders().CountByUserExcludingStatus(ctx, user.ID, model.OrderStatusDelivered)
		if err != nil {
			return errors.Internal("count open orders", err)
		}
		if open > 0 {
			return errors.Conflict("you still have orders not delivered yet")
		}

		if err := tx.Orders().DeleteByUserWithStatus(ctx, user.ID, model.OrderStatusDelivered); err != nil {
			return errors.Internal("delete delivered orders", err)
		}
		if err := tx.ContactMessages().DeleteByUser(ctx, user.ID); err != nil {
			return errors.Internal("delete contact messages", err)
		}
		if err := tx.Users().Delete(ctx, user.ID); err != nil {
			return errors.Internal("delete user", err)
		}
		// Last step, so a failure here still rolls the rows back.
		if err := s.sessions.DestroyUser(ctx, user.ID); err != nil {
			return errors.Internal("destroy sessions", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.KindInternal) {
			s.logger.Error("delete account failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		return err
	}

	s.logger.Info("account deleted", zap.Uint("user_id", user.ID))
	return nil
}

func (s *accountService) EnsureAdmin(ctx context.Context, admin config.AdminConfig) (bool, error) {
	_, err := s.store.Users().FindByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !repository.IsNotFound(err) {
		return false, fmt.Errorf("find admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	user := &model.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: string(hashed),
		IsAdmin:      true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("username", admin.Username))
	return true, nil
}

func (s *accountService) verifyPassword(ctx context.Context, userID uint, password string) (*model.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errors.ErrUnauthorized
		}
		return nil, errors.Internal("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Auth("invalid current password")
	}
	return user, nil
}
