package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"carparts/internal/config"
	apperrors "carparts/internal/errors"
	"carparts/internal/model"
	"carparts/internal/session"
)

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name     string
		input    RegisterInput
		wantKind apperrors.Kind
	}{
		{"successful registration", RegisterInput{"alice", "alice@x.com", "pw123"}, ""},
		{"username taken", RegisterInput{"bob", "other@x.com", "pw"}, apperrors.KindConflict},
		{"email taken", RegisterInput{"robert", "bob@x.com", "pw"}, apperrors.KindConflict},
		{"username rejected by sanitizer", RegisterInput{"o'brien", "ob@x.com", "pw"}, apperrors.KindValidation},
		{"missing email", RegisterInput{"carol", "", "pw"}, apperrors.KindValidation},
		{"missing password", RegisterInput{"dave", "dave@x.com", ""}, apperrors.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.createUser(t, "bob", "pw", false)
			svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)

			user, err := svc.Register(context.Background(), tt.input)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.False(t, user.IsAdmin)
			assert.NotEqual(t, tt.input.Password, user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
		})
	}
}

func TestAccountService_Login(t *testing.T) {
	e := newEnv(t)
	e.createUser(t, "alice", "pw123", false)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
	ctx := context.Background()

	res, err := svc.Login(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.Token)

	loaded, err := e.sessions.Load(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, loaded.UserID)
	assert.False(t, loaded.IsAdmin)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "pw123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAccountService_LogoutIsIdempotent(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
	ctx := context.Background()

	res, err := svc.Login(ctx, user.Username, "pw")
	require.NoError(t, err)

	svc.Logout(ctx, res.Session)
	svc.Logout(ctx, res.Session)
	svc.Logout(ctx, nil)

	_, err = e.sessions.Load(ctx, res.Token)
	assert.Error(t, err)
}

func TestAccountService_LogoutLogsBackendFailure(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, zap.New(core))
	ctx := context.Background()

	res, err := svc.Login(ctx, user.Username, "pw")
	require.NoError(t, err)

	e.backend.failDelete = true
	assert.NotPanics(t, func() { svc.Logout(ctx, res.Session) })
	assert.Equal(t, 1, logs.FilterMessage("destroy session failed").Len())
}

func TestAccountService_CheckAuth(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
	ctx := context.Background()

	assert.Nil(t, svc.CheckAuth(ctx, session.Anonymous))

	_, p := e.login(t, user)
	got := svc.CheckAuth(ctx, p)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)

	ghost := session.PrincipalFor(&session.Session{UserID: 999, Username: "ghost"})
	assert.Nil(t, svc.CheckAuth(ctx, ghost))
}

func TestAccountService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	alice := e.createUser(t, "alice", "pw", false)
	e.createUser(t, "bob", "pw", false)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
	ctx := context.Background()
	sess, p := e.login(t, alice)

	_, err := svc.UpdateProfile(ctx, p, UpdateProfileInput{Username: strPtr("alicia"), CurrentPassword: "bad"})
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	_, err = svc.UpdateProfile(ctx, p, UpdateProfileInput{Username: strPtr("bob"), CurrentPassword: "pw"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = svc.UpdateProfile(ctx, p, UpdateProfileInput{Email: strPtr("a;b@x.com"), CurrentPassword: "pw"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	updated, err := svc.UpdateProfile(ctx, p, UpdateProfileInput{
		Username:        strPtr("alicia"),
		CurrentPassword: "pw",
		NewPassword:     strPtr("newpw"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alice@x.com", updated.Email)
	assert.Equal(t, "alicia", sess.Username)

	_, err = svc.Login(ctx, "alicia", "newpw")
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, session.Anonymous, UpdateProfileInput{CurrentPassword: "pw"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAccountService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		e := newEnv(t)
		user := e.createUser(t, "alice", "pw", false)
		svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
		_, p := e.login(t, user)

		err := svc.DeleteAccount(ctx, p, "nope")
		assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
	})

	t.Run("undelivered orders block deletion", func(t *testing.T) {
		e := newEnv(t)
		user := e.createUser(t, "alice", "pw", false)
		svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
		_, p := e.login(t, user)
		require.NoError(t, e.store.Orders().Create(ctx, &model.Order{UserID: user.ID, Status: model.OrderStatusShipped, DeliveryDelayDays: 7}))

		err := svc.DeleteAccount(ctx, p, "pw")
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Equal(t, int64(1), e.countRows(t, &model.User{}))
	})

	t.Run("removes user, delivered orders and messages", func(t *testing.T) {
		e := newEnv(t)
		user := e.createUser(t, "alice", "pw", false)
		other := e.createUser(t, "bob", "pw", false)
		part := e.createPart(t, "Mirror", "Golf")
		svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
		sess, p := e.login(t, user)

		order := &model.Order{UserID: user.ID, Status: model.OrderStatusDelivered, DeliveryDelayDays: 7}
		require.NoError(t, e.store.Orders().Create(ctx, order))
		require.NoError(t, e.store.Orders().AddParts(ctx, order.ID, []uint{part.ID}))
		require.NoError(t, e.store.ContactMessages().Create(ctx, &model.ContactMessage{UserID: user.ID, Message: "hi"}))
		require.NoError(t, e.store.ContactMessages().Create(ctx, &model.ContactMessage{UserID: other.ID, Message: "hello"}))

		require.NoError(t, svc.DeleteAccount(ctx, p, "pw"))

		assert.Equal(t, int64(1), e.countRows(t, &model.User{}))
		assert.Zero(t, e.countRows(t, &model.Order{}))
		assert.Zero(t, e.countRows(t, &model.OrderPart{}))
		assert.Equal(t, int64(1), e.countRows(t, &model.ContactMessage{}))
		assert.Equal(t, int64(1), e.countRows(t, &model.Part{}))

		token, err := session.NewTokenSigner("test-secret").Sign(sess.ID)
		require.NoError(t, err)
		_, err = e.sessions.Load(ctx, token)
		assert.Error(t, err)
	})

	t.Run("ends the sessions of every device", func(t *testing.T) {
		e := newEnv(t)
		user := e.createUser(t, "alice", "pw", false)
		bob := e.createUser(t, "bob", "pw", false)
		svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
		_, p := e.login(t, user)
		_, phoneToken, err := e.sessions.Create(ctx, user.ID, user.Username, false)
		require.NoError(t, err)
		_, bobToken, err := e.sessions.Create(ctx, bob.ID, bob.Username, false)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteAccount(ctx, p, "pw"))

		_, err = e.sessions.Load(ctx, phoneToken)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = e.sessions.Load(ctx, bobToken)
		assert.NoError(t, err)
	})

	t.Run("failure rolls everything back", func(t *testing.T) {
		e := newEnv(t)
		user := e.createUser(t, "alice", "pw", false)
		svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
		sess, p := e.login(t, user)

		order := &model.Order{UserID: user.ID, Status: model.OrderStatusDelivered, DeliveryDelayDays: 7}
		require.NoError(t, e.store.Orders().Create(ctx, order))
		require.NoError(t, e.store.ContactMessages().Create(ctx, &model.ContactMessage{UserID: user.ID, Message: "hi"}))

		require.NoError(t, e.db.Callback().Delete().Before("gorm:delete").Register("test:fail_user_delete", func(tx *gorm.DB) {
			if tx.Statement.Table == "user" {
				_ = tx.AddError(errors.New("disk full"))
			}
		}))

		err := svc.DeleteAccount(ctx, p, "pw")
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

		assert.Equal(t, int64(1), e.countRows(t, &model.User{}))
		assert.Equal(t, int64(1), e.countRows(t, &model.Order{}))
		assert.Equal(t, int64(1), e.countRows(t, &model.ContactMessage{}))

		token, err := session.NewTokenSigner("test-secret").Sign(sess.ID)
		require.NoError(t, err)
		_, err = e.sessions.Load(ctx, token)
		assert.NoError(t, err, "session survives a failed deletion")
	})
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	e := newEnv(t)
	svc := NewAccountService(e.store, e.sessions, e.sanitizer, e.logger)
	ctx := context.Background()
	admin := config.AdminConfig{Username: "admin", Email: "admin@carmarket.com", Password: "admin"}

	created, err := svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	assert.False(t, created)

	res, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)
	assert.True(t, res.Session.IsAdmin)
}
