package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carparts/internal/model"
	"carparts/internal/testutil"
)

func newStore(t *testing.T) (Store, *gorm.DB) {
	gormDB := testutil.NewDB(t)
	return NewStore(gormDB), gormDB
}

func createUser(t *testing.T, store Store, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@x.com", PasswordHash: "hash"}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func createPart(t *testing.T, store Store, name, carModel string) *model.Part {
	t.Helper()
	part := &model.Part{Name: name, CarModel: carModel, Price: decimal.RequireFromString("10.50"), Description: "used", Image: "images/x.png"}
	require.NoError(t, store.Parts().Create(context.Background(), part))
	return part
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	found, err := store.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = store.Users().FindByUsername(ctx, "carol")
	assert.True(t, IsNotFound(err))

	exists, err := store.Users().ExistsByUsernameOrEmail(ctx, "zed", "alice@x.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Users().ExistsByUsernameOrEmail(ctx, "alice", "alice@x.com", alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.Users().ExistsByUsernameOrEmail(ctx, "bob", "new@x.com", alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	bob.Email = "bobby@x.com"
	require.NoError(t, store.Users().Update(ctx, bob))
	reloaded, err := store.Users().FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bobby@x.com", reloaded.Email)

	require.NoError(t, store.Users().Delete(ctx, bob.ID))
	_, err = store.Users().FindByID(ctx, bob.ID)
	assert.True(t, IsNotFound(err))
}

func TestPartRepository_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	createPart(t, store, "Front Mirror", "Golf")
	createPart(t, store, "Rear Mirror", "Golf")
	createPart(t, store, "Mirror Cap", "Polo")
	createPart(t, store, "Brake Disc", "golf plus")

	parts, total, err := store.Parts().List(ctx, PartFilter{CarModel: "GOLF", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, parts, 3)

	parts, total, err = store.Parts().List(ctx, PartFilter{Name: "mirror", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, parts, 1)
	assert.Equal(t, "Mirror Cap", parts[0].Name)

	parts, total, err = store.Parts().List(ctx, PartFilter{Name: "mirror", CarModel: "polo", Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, parts, 1)

	parts, total, err = store.Parts().List(ctx, PartFilter{Page: 5, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.NotNil(t, parts)
	assert.Empty(t, parts)
}

func TestPartRepository_FindByIDsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	a := createPart(t, store, "A", "Golf")
	b := createPart(t, store, "B", "Golf")

	parts, err := store.Parts().FindByIDs(ctx, []uint{b.ID, 999, a.ID})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, b.ID, parts[0].ID)
	assert.Equal(t, a.ID, parts[1].ID)

	parts, err = store.Parts().FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestPartRepository_DeleteAndReferences(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	user := createUser(t, store, "alice")
	part := createPart(t, store, "A", "Golf")

	order := &model.Order{UserID: user.ID, Status: model.OrderStatusPending, DeliveryDelayDays: 7}
	require.NoError(t, store.Orders().Create(ctx, order))
	require.NoError(t, store.Orders().AddParts(ctx, order.ID, []uint{part.ID}))

	refs, err := store.Parts().CountOrderReferences(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refs)

	assert.True(t, IsNotFound(store.Parts().Delete(ctx, 12345)))
}

func TestOrderRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")
	p1 := createPart(t, store, "A", "Golf")
	p2 := createPart(t, store, "B", "Golf")

	first := &model.Order{
		UserID:            alice.ID,
		Address:           model.Address{Street: "Main St 1", City: "Berlin", PostalCode: "10115", Country: "DE"},
		Status:            model.OrderStatusPending,
		DeliveryDelayDays: model.DefaultDeliveryDelayDays,
		CreatedAt:         time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Orders().Create(ctx, first))
	require.NoError(t, store.Orders().AddParts(ctx, first.ID, []uint{p1.ID, p2.ID}))

	second := &model.Order{UserID: alice.ID, Status: model.OrderStatusDelivered, DeliveryDelayDays: 7}
	require.NoError(t, store.Orders().Create(ctx, second))
	require.NoError(t, store.Orders().AddParts(ctx, second.ID, []uint{p1.ID}))

	other := &model.Order{UserID: bob.ID, Status: model.OrderStatusPending, DeliveryDelayDays: 7}
	require.NoError(t, store.Orders().Create(ctx, other))

	mine, err := store.Orders().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Len(t, mine[1].Parts, 2)
	assert.Equal(t, "Berlin", mine[1].Address.City)

	all, err := store.Orders().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, o := range all {
		assert.NotEmpty(t, o.User.Username)
	}

	require.NoError(t, store.Orders().UpdateStatus(ctx, first.ID, model.OrderStatusShipped))
	reloaded, err := store.Orders().FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, reloaded.Status)

	open, err := store.Orders().CountByUserExcludingStatus(ctx, alice.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)

	require.NoError(t, store.Orders().DeleteByUserWithStatus(ctx, alice.ID, model.OrderStatusDelivered))
	_, err = store.Orders().FindByID(ctx, second.ID)
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Orders().Delete(ctx, first.ID))
	_, err = store.Orders().FindByID(ctx, first.ID)
	assert.True(t, IsNotFound(err))

	refs, err := store.Parts().CountOrderReferences(ctx, p1.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)
}

func TestFeedbackRepositories(t *testing.T) {
	ctx := context.Background()
	store, gormDB := newStore(t)
	user := createUser(t, store, "alice")

	require.NoError(t, store.ContactMessages().Create(ctx, &model.ContactMessage{UserID: user.ID, Message: "hello"}))
	require.NoError(t, store.ContactMessages().DeleteByUser(ctx, user.ID))
	var count int64
	require.NoError(t, gormDB.Model(&model.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)

	base := time.Now()
	for i := 0; i < 7; i++ {
		c := &model.Comment{Name: "n", Comment: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.Comments().Create(ctx, c))
	}
	recent, err := store.Comments().ListRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "g", recent[0].Comment)
	assert.Equal(t, "c", recent[4].Comment)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	boom := errors.New("boom")

	err := store.WithTransaction(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Users().Create(ctx, &model.User{Username: "ghost", Email: "ghost@x.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Users().FindByUsername(ctx, "ghost")
	assert.True(t, IsNotFound(err))
}
