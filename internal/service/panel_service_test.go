package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "carparts/internal/errors"
)

func TestPanelService(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	mirror := e.createPart(t, "Mirror", "Golf")
	disc := e.createPart(t, "Disc", "Polo")
	svc := NewPanelService(e.store, e.sessions, e.logger)
	ctx := context.Background()
	sess, _ := e.login(t, user)

	require.NoError(t, svc.Add(ctx, sess, disc.ID))
	require.NoError(t, svc.Add(ctx, sess, mirror.ID))
	require.NoError(t, svc.Add(ctx, sess, disc.ID))
	require.NoError(t, svc.Add(ctx, sess, 404))
	assert.Equal(t, []uint{disc.ID, mirror.ID, 404}, sess.Cart.IDs())

	parts, err := svc.Get(ctx, sess)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, disc.ID, parts[0].ID)
	assert.Equal(t, mirror.ID, parts[1].ID)

	require.NoError(t, svc.Remove(ctx, sess, disc.ID))
	assert.ErrorIs(t, svc.Remove(ctx, sess, disc.ID), apperrors.ErrNotInPanel)

	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(svc.Add(ctx, sess, 0)))
	assert.ErrorIs(t, svc.Add(ctx, nil, mirror.ID), apperrors.ErrUnauthorized)
}

func TestPanelService_CartIsPersistedInSession(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	svc := NewPanelService(e.store, e.sessions, e.logger)
	ctx := context.Background()

	sess, token, err := e.sessions.Create(ctx, user.ID, user.Username, false)
	require.NoError(t, err)
	require.NoError(t, svc.Add(ctx, sess, 7))

	reloaded, err := e.sessions.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, reloaded.Cart.IDs())
}

func TestPanelService_SaveFailureLeavesCart(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	svc := NewPanelService(e.store, e.sessions, e.logger)
	ctx := context.Background()
	sess, _ := e.login(t, user)
	require.NoError(t, svc.Add(ctx, sess, 1))

	e.backend.failSave = true
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(svc.Add(ctx, sess, 2)))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(svc.Remove(ctx, sess, 1)))
	assert.Equal(t, []uint{1}, sess.Cart.IDs())
}

func TestPanelService_DestroyedSessionIsUnauthorized(t *testing.T) {
	e := newEnv(t)
	user := e.createUser(t, "alice", "pw", false)
	svc := NewPanelService(e.store, e.sessions, e.logger)
	ctx := context.Background()
	sess, _ := e.login(t, user)
	require.NoError(t, svc.Add(ctx, sess, 1))

	require.NoError(t, e.sessions.Destroy(ctx, sess))
	assert.ErrorIs(t, svc.Add(ctx, sess, 2), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.Remove(ctx, sess, 1), apperrors.ErrUnauthorized)
	assert.Equal(t, []uint{1}, sess.Cart.IDs())
}
