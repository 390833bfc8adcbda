package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

func TestPendingTransactionRepository_SaveAndFind(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	standID := uuid.New()
	item, err := valueobjects.NewProductItem("p-1", "Lager", 2, valueobjects.MustAmount(250))
	require.NoError(t, err)

	tx, err := entities.NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(500),
		entities.TransactionTypePurchase,
		&standID,
		"Beer Tent", "two lagers",
		valueobjects.ProductItems{item},
		"key-find-1",
		uuid.New(),
		time.Now(),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(testSigner(t)))

	require.NoError(t, store.pending.Save(ctx, tx))

	found, err := store.pending.FindByID(ctx, tx.ID())
	require.NoError(t, err)

	assert.Equal(t, tx.ID(), found.ID())
	assert.Equal(t, tx.WalletID(), found.WalletID())
	assert.Equal(t, int64(500), found.Amount().MinorUnits())
	assert.Equal(t, entities.TransactionTypePurchase, found.Type())
	require.NotNil(t, found.StandID())
	assert.Equal(t, standID, *found.StandID())
	assert.Equal(t, "key-find-1", found.IdempotencyKey())
	assert.False(t, found.IsSynced())
	require.Len(t, found.ProductItems(), 1)
	assert.Equal(t, int64(2), found.ProductItems()[0].Quantity())

	// The signature survives the round trip and still verifies.
	assert.True(t, found.VerifySignature(testSigner(t)))
}

func TestPendingTransactionRepository_FindByIdempotencyKey(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	tx := newTestTransaction(t, uuid.New(), "key-replay-7")
	require.NoError(t, store.pending.Save(ctx, tx))

	found, err := store.pending.FindByIdempotencyKey(ctx, tx.DeviceID(), "key-replay-7")
	require.NoError(t, err)
	assert.Equal(t, tx.ID(), found.ID())

	_, err = store.pending.FindByIdempotencyKey(ctx, tx.DeviceID(), "no-such-key")
	assert.ErrorIs(t, err, domainerrors.ErrPendingTransactionNotFound)
}

func TestPendingTransactionRepository_DuplicateIdempotencyKey(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	walletID := uuid.New()

	first := newTestTransaction(t, walletID, "key-dup")
	require.NoError(t, store.pending.Save(ctx, first))

	// Same device, same key, different transaction id.
	second := newTestTransaction(t, walletID, "key-dup")
	err := store.pending.Save(ctx, second)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateIdempotencyKey)
}

func TestPendingTransactionRepository_SaveUpdatesSyncBookkeeping(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	tx := newTestTransaction(t, uuid.New(), "key-update")
	require.NoError(t, store.pending.Save(ctx, tx))

	require.NoError(t, tx.RecordRetry("connection refused"))
	require.NoError(t, store.pending.Save(ctx, tx))

	found, err := store.pending.FindByID(ctx, tx.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, found.RetryCount())
	assert.Equal(t, "connection refused", found.SyncError())
	require.NotNil(t, found.LastRetryAt())

	require.NoError(t, tx.MarkSynced())
	require.NoError(t, store.pending.Save(ctx, tx))

	found, err = store.pending.FindByID(ctx, tx.ID())
	require.NoError(t, err)
	assert.True(t, found.IsSynced())
	assert.Empty(t, found.SyncError())
}

func TestPendingTransactionRepository_ListFilters(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	walletA := uuid.New()
	walletB := uuid.New()

	txA := newTestTransaction(t, walletA, "key-list-a")
	txB := newTestTransaction(t, walletB, "key-list-b")
	require.NoError(t, store.pending.Save(ctx, txA))
	require.NoError(t, store.pending.Save(ctx, txB))

	require.NoError(t, txB.MarkSynced())
	require.NoError(t, store.pending.Save(ctx, txB))

	all, err := store.pending.List(ctx, ports.PendingTransactionFilter{}, 0, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byWallet, err := store.pending.List(ctx, ports.PendingTransactionFilter{WalletID: &walletA}, 0, 50)
	require.NoError(t, err)
	require.Len(t, byWallet, 1)
	assert.Equal(t, txA.ID(), byWallet[0].ID())

	unsynced := false
	synced, err := store.pending.List(ctx, ports.PendingTransactionFilter{Synced: &unsynced}, 0, 50)
	require.NoError(t, err)
	require.Len(t, synced, 1)
	assert.Equal(t, txA.ID(), synced[0].ID())

	count, err := store.pending.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPendingTransactionRepository_DeleteSyncedBefore(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	old := newTestTransaction(t, uuid.New(), "key-retention-old")
	require.NoError(t, old.MarkSynced())
	require.NoError(t, store.pending.Save(ctx, old))

	fresh := newTestTransaction(t, uuid.New(), "key-retention-fresh")
	require.NoError(t, store.pending.Save(ctx, fresh))

	// Cutoff in the future removes synced rows only; the unsynced row is
	// untouchable regardless of age.
	removed, err := store.pending.DeleteSyncedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.pending.FindByID(ctx, old.ID())
	assert.ErrorIs(t, err, domainerrors.ErrPendingTransactionNotFound)
	_, err = store.pending.FindByID(ctx, fresh.ID())
	assert.NoError(t, err)
}

func TestWalletCacheRepository_UpsertAndRoundTrip(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	wallet := newTestWallet(t, 2500)
	require.NoError(t, store.wallets.Save(ctx, wallet))

	found, err := store.wallets.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2500), found.Balance().MinorUnits())
	assert.Equal(t, "Token", found.Currency().Name())
	assert.Equal(t, "qr-payload", found.QRCode())

	// Mutate and save again; the upsert replaces the row.
	require.NoError(t, found.SpeculativeDebit(valueobjects.MustAmount(500)))
	require.NoError(t, store.wallets.Save(ctx, found))

	again, err := store.wallets.FindByUserID(ctx, wallet.UserID())
	require.NoError(t, err)
	assert.Equal(t, int64(2000), again.Balance().MinorUnits())
}

func TestWalletCacheRepository_NotFound(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	_, err := store.wallets.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrWalletNotCached)

	err = store.wallets.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrWalletNotCached)
}

func TestWalletCacheRepository_DeleteCascadesHistory(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	wallet := newTestWallet(t, 1000)
	require.NoError(t, store.wallets.Save(ctx, wallet))

	history := entities.NewCachedTransaction(
		uuid.New(), wallet.ID(),
		valueobjects.MustAmount(300),
		"PURCHASE",
		"Beer Tent", "",
		nil,
		time.Now(),
	)
	inserted, err := store.history.Insert(ctx, history)
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, store.wallets.Delete(ctx, wallet.ID()))

	count, err := store.history.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCachedTransactionRepository_InsertIsIdempotent(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	wallet := newTestWallet(t, 1000)
	require.NoError(t, store.wallets.Save(ctx, wallet))

	balanceAfter := valueobjects.MustAmount(700)
	id := uuid.New()
	first := entities.NewCachedTransaction(
		id, wallet.ID(),
		valueobjects.MustAmount(300), "PURCHASE", "Beer Tent", "", &balanceAfter, time.Now())

	inserted, err := store.history.Insert(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	// A replay with a different balance snapshot is ignored: first write wins.
	otherBalance := valueobjects.MustAmount(100)
	replay := entities.NewCachedTransaction(
		id, wallet.ID(),
		valueobjects.MustAmount(300), "PURCHASE", "Beer Tent", "", &otherBalance, time.Now())

	inserted, err = store.history.Insert(ctx, replay)
	require.NoError(t, err)
	assert.False(t, inserted)

	rows, err := store.history.ListByWallet(ctx, wallet.ID(), 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].BalanceAfter())
	assert.Equal(t, int64(700), rows[0].BalanceAfter().MinorUnits())
}

func TestCatalogRepository_UpsertAndFilters(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	festivalID := uuid.New()
	standFood, err := entities.NewCachedStand(
		uuid.New(), festivalID, "Grill", entities.StandTypeFood, "", "North field", true, time.Now())
	require.NoError(t, err)
	standDrink, err := entities.NewCachedStand(
		uuid.New(), festivalID, "Bar", entities.StandTypeDrink, "", "Main stage", false, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.catalog.UpsertStands(ctx, []*entities.CachedStand{standFood, standDrink}))

	stock := int64(12)
	burger, err := entities.NewCachedProduct(
		uuid.New(), standFood.ID(), "Burger", "food", valueobjects.MustAmount(850), true, &stock, time.Now())
	require.NoError(t, err)
	cola, err := entities.NewCachedProduct(
		uuid.New(), standFood.ID(), "Cola", "drink", valueobjects.MustAmount(300), false, nil, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.catalog.UpsertProducts(ctx, []*entities.CachedProduct{burger, cola}))

	foodType := entities.StandTypeFood
	stands, err := store.catalog.ListStands(ctx, ports.StandFilter{FestivalID: &festivalID, Type: &foodType})
	require.NoError(t, err)
	require.Len(t, stands, 1)
	assert.Equal(t, "Grill", stands[0].Name())

	active, err := store.catalog.ListStands(ctx, ports.StandFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	available := true
	products, err := store.catalog.ListProducts(ctx, ports.ProductFilter{StandID: standIDPtr(standFood), Available: &available})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Burger", products[0].Name())
	require.NotNil(t, products[0].StockQuantity())
	assert.Equal(t, int64(12), *products[0].StockQuantity())
}

func standIDPtr(s *entities.CachedStand) *uuid.UUID {
	id := s.ID()
	return &id
}

func TestCatalogRepository_UpsertReplacesRow(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	stand, err := entities.NewCachedStand(
		uuid.New(), uuid.New(), "Grill", entities.StandTypeFood, "", "", true, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.catalog.UpsertStands(ctx, []*entities.CachedStand{stand}))

	renamed, err := entities.NewCachedStand(
		stand.ID(), stand.FestivalID(), "Grill Deluxe", entities.StandTypeFood, "", "", false, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.catalog.UpsertStands(ctx, []*entities.CachedStand{renamed}))

	stands, err := store.catalog.ListStands(ctx, ports.StandFilter{})
	require.NoError(t, err)
	require.Len(t, stands, 1)
	assert.Equal(t, "Grill Deluxe", stands[0].Name())
	assert.False(t, stands[0].IsActive())
}

func TestCatalogRepository_DeleteStandCascadesProducts(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	stand, err := entities.NewCachedStand(
		uuid.New(), uuid.New(), "Grill", entities.StandTypeFood, "", "", true, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.catalog.UpsertStands(ctx, []*entities.CachedStand{stand}))

	product, err := entities.NewCachedProduct(
		uuid.New(), stand.ID(), "Burger", "food", valueobjects.MustAmount(850), true, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.catalog.UpsertProducts(ctx, []*entities.CachedProduct{product}))

	require.NoError(t, store.catalog.DeleteStand(ctx, stand.ID()))

	products, err := store.catalog.ListProducts(ctx, ports.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)

	assert.ErrorIs(t, store.catalog.DeleteStand(ctx, stand.ID()), domainerrors.ErrStandNotFound)
}

func TestCatalogRepository_Clear(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	stand, err := entities.NewCachedStand(
		uuid.New(), uuid.New(), "Grill", entities.StandTypeFood, "", "", true, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.catalog.UpsertStands(ctx, []*entities.CachedStand{stand}))

	require.NoError(t, store.catalog.Clear(ctx))

	stands, err := store.catalog.ListStands(ctx, ports.StandFilter{})
	require.NoError(t, err)
	assert.Empty(t, stands)
}
