package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/session"
	"carparts/internal/storage"
	"carparts/internal/testutil"
)

// MockImageStore is a mock implementation of storage.ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	args := m.Called(ctx, key, r, contentType)
	return args.Error(0)
}

func (m *MockImageStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ storage.ImageStore = (*MockImageStore)(nil)

// flakyStore is a session store whose Save and Delete can be switched to fail.
type flakyStore struct {
	session.Store
	failSave   bool
	failDelete bool
}

func (s *flakyStore) Delete(ctx context.Context, id string) error {
	if s.failDelete {
		return errors.New("session backend unavailable")
	}
	return s.Store.Delete(ctx, id)
}

func (s *flakyStore) Save(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	if s.failSave {
		return errors.New("session backend unavailable")
	}
	return s.Store.Save(ctx, sess, ttl)
}

type env struct {
	db        *gorm.DB
	store     repository.Store
	sessions  *session.Manager
	backend   *flakyStore
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gormDB := testutil.NewDB(t)
	backend := &flakyStore{Store: session.NewMemoryStore()}
	return &env{
		db:        gormDB,
		store:     repository.NewStore(gormDB),
		sessions:  session.NewManager(backend, session.NewTokenSigner("test-secret"), 30*time.Minute, session.CookieConfig{Name: "sid"}),
		backend:   backend,
		sanitizer: sanitize.New(zap.NewNop()),
		logger:    zap.NewNop(),
	}
}

func (e *env) createUser(t *testing.T, username, password string, admin bool) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Username: username, Email: username + "@x.com", PasswordHash: string(hashed), IsAdmin: admin}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *env) createPart(t *testing.T, name, carModel string) *model.Part {
	t.Helper()
	part := &model.Part{Name: name, CarModel: carModel, Price: decimal.RequireFromString("19.99"), Description: "used part", Image: "images/x.png"}
	require.NoError(t, e.store.Parts().Create(context.Background(), part))
	return part
}

func (e *env) login(t *testing.T, user *model.User) (*session.Session, session.Principal) {
	t.Helper()
	sess, _, err := e.sessions.Create(context.Background(), user.ID, user.Username, user.IsAdmin)
	require.NoError(t, err)
	return sess, session.PrincipalFor(sess)
}

func (e *env) countRows(t *testing.T, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(value).Count(&n).Error)
	return n
}

func strPtr(s string) *string {
	return &s
}
