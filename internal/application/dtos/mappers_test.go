package dtos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

func testPendingTransaction(t *testing.T) *entities.PendingTransaction {
	t.Helper()

	standID := uuid.New()
	item, err := valueobjects.NewProductItem(uuid.NewString(), "Craft Beer", 2, valueobjects.MustAmount(125))
	require.NoError(t, err)

	tx, err := entities.NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(250),
		entities.TransactionTypePurchase,
		&standID,
		"Beer Garden", "two beers",
		valueobjects.ProductItems{item},
		"test-idempotency-key",
		uuid.New(),
		time.Now(),
	)
	require.NoError(t, err)

	signer, err := signing.NewSigner("test-device-key")
	require.NoError(t, err)
	require.NoError(t, tx.Sign(signer))

	return tx
}

func TestToPendingTransactionDTO(t *testing.T) {
	tx := testPendingTransaction(t)

	dto := ToPendingTransactionDTO(tx)

	assert.Equal(t, tx.ID().String(), dto.ID)
	assert.Equal(t, tx.WalletID().String(), dto.WalletID)
	assert.Equal(t, int64(250), dto.Amount)
	assert.Equal(t, "PURCHASE", dto.Type)
	require.NotNil(t, dto.StandID)
	assert.Equal(t, tx.StandID().String(), *dto.StandID)
	assert.Equal(t, "test-idempotency-key", dto.IdempotencyKey)
	assert.Equal(t, tx.OfflineSignature(), dto.OfflineSignature)
	assert.False(t, dto.Synced)
	require.Len(t, dto.ProductItems, 1)
	assert.Equal(t, int64(2), dto.ProductItems[0].Quantity)
	assert.Equal(t, int64(125), dto.ProductItems[0].UnitPrice)
}

func TestQueuePayloadRoundTrip(t *testing.T) {
	tx := testPendingTransaction(t)
	payload := ToPendingTransactionPayload(tx)

	raw, err := EncodePendingTransactionPayload(payload)
	require.NoError(t, err)

	decoded, err := DecodeQueuePayload(raw)
	require.NoError(t, err)

	assert.Equal(t, PayloadVersion, decoded.Version)
	assert.Equal(t, entities.EntityTypePendingTransaction, decoded.EntityType)
	require.NotNil(t, decoded.PendingTransaction)
	assert.Equal(t, payload.ID, decoded.PendingTransaction.ID)
	assert.Equal(t, payload.Amount, decoded.PendingTransaction.Amount)
	assert.Equal(t, payload.IdempotencyKey, decoded.PendingTransaction.IdempotencyKey)
	assert.Equal(t, payload.OfflineSignature, decoded.PendingTransaction.OfflineSignature)
	require.Len(t, decoded.PendingTransaction.ProductItems, 1)
	assert.Equal(t, payload.ProductItems[0], decoded.PendingTransaction.ProductItems[0])
}

func TestDecodeQueuePayloadRejectsUnknownTag(t *testing.T) {
	raw := []byte(`{"version":1,"entity_type":"mystery_entity"}`)

	_, err := DecodeQueuePayload(raw)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidationError(err))
}

func TestDecodeQueuePayloadRejectsForeignVersion(t *testing.T) {
	raw := []byte(`{"version":99,"entity_type":"pending_transaction","pending_transaction":{}}`)

	_, err := DecodeQueuePayload(raw)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidationError(err))
}

func TestDecodeQueuePayloadRejectsMissingBody(t *testing.T) {
	raw := []byte(`{"version":1,"entity_type":"pending_transaction"}`)

	_, err := DecodeQueuePayload(raw)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidationError(err))
}

func TestDecodeQueuePayloadRejectsGarbage(t *testing.T) {
	_, err := DecodeQueuePayload([]byte("not json at all"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidationError(err))
}

func TestToWalletDTO(t *testing.T) {
	wallet, err := entities.NewCachedWallet(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(1000),
		valueobjects.MustNewCurrency("Jeton", 2.5),
		"QR-PAYLOAD", nil,
		time.Now(),
	)
	require.NoError(t, err)

	dto := ToWalletDTO(wallet)

	assert.Equal(t, wallet.ID().String(), dto.ID)
	assert.Equal(t, int64(1000), dto.Balance)
	assert.Equal(t, "Jeton", dto.CurrencyName)
	assert.Equal(t, 2.5, dto.ExchangeRate)
	assert.Equal(t, "QR-PAYLOAD", dto.QRCode)
}

func TestToStandAndProductDTOs(t *testing.T) {
	stand, err := entities.NewCachedStand(
		uuid.New(), uuid.New(),
		"Beer Garden", entities.StandTypeDrink,
		"craft beers", "north field", true,
		time.Now(),
	)
	require.NoError(t, err)

	stock := int64(12)
	product, err := entities.NewCachedProduct(
		uuid.New(), stand.ID(),
		"IPA", "beer",
		valueobjects.MustAmount(125),
		true, &stock,
		time.Now(),
	)
	require.NoError(t, err)

	standDTO := ToStandDTO(stand)
	assert.Equal(t, "DRINK", standDTO.Type)
	assert.True(t, standDTO.IsActive)

	productDTO := ToProductDTO(product)
	assert.Equal(t, stand.ID().String(), productDTO.StandID)
	assert.Equal(t, int64(125), productDTO.Price)
	require.NotNil(t, productDTO.StockQuantity)
	assert.Equal(t, int64(12), *productDTO.StockQuantity)
}

func TestToSyncItemDTO(t *testing.T) {
	item, err := entities.NewSyncItem(
		entities.SyncOperationCreate,
		entities.EntityTypePendingTransaction,
		uuid.NewString(),
		[]byte(`{"version":1}`),
		entities.PriorityHigh,
		10,
	)
	require.NoError(t, err)

	dto := ToSyncItemDTO(item)

	assert.Equal(t, item.ID().String(), dto.ID)
	assert.Equal(t, "CREATE", dto.Operation)
	assert.Equal(t, "pending_transaction", dto.EntityType)
	assert.Equal(t, 2, dto.Priority)
	assert.Equal(t, 10, dto.MaxRetries)
	assert.Equal(t, "pending", dto.Status)
	assert.Nil(t, dto.NextAttempt)
}

func TestToCachedTransactionDTO(t *testing.T) {
	balanceAfter := valueobjects.MustAmount(750)
	tx := entities.NewCachedTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(250),
		"PURCHASE",
		"Beer Garden", "",
		&balanceAfter,
		time.Now(),
	)

	dto := ToCachedTransactionDTO(tx)

	require.NotNil(t, dto.BalanceAfter)
	assert.Equal(t, int64(750), *dto.BalanceAfter)
	assert.Equal(t, "PURCHASE", dto.Type)
}
