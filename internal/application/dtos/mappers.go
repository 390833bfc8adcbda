// Package dtos - mappers between domain entities, API DTOs and the durable
// queue payload format.
//
// Pattern: Mapper/Converter
// Separates domain representation from API and wire representation.
package dtos

import (
	"encoding/json"
	"fmt"

	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// ============================================
// Pending Transaction Mappers
// ============================================

// ToPendingTransactionDTO converts a PendingTransaction entity to a DTO.
func ToPendingTransactionDTO(tx *entities.PendingTransaction) PendingTransactionDTO {
	var standID *string
	if tx.StandID() != nil {
		s := tx.StandID().String()
		standID = &s
	}

	return PendingTransactionDTO{
		ID:               tx.ID().String(),
		WalletID:         tx.WalletID().String(),
		UserID:           tx.UserID().String(),
		Amount:           tx.Amount().MinorUnits(),
		Type:             string(tx.Type()),
		StandID:          standID,
		StandName:        tx.StandName(),
		Description:      tx.Description(),
		ProductItems:     toProductItemDTOs(tx.ProductItems()),
		IdempotencyKey:   tx.IdempotencyKey(),
		OfflineSignature: tx.OfflineSignature(),
		DeviceID:         tx.DeviceID().String(),
		Synced:           tx.IsSynced(),
		RetryCount:       tx.RetryCount(),
		LastRetryAt:      tx.LastRetryAt(),
		Error:            tx.SyncError(),
		CreatedAt:        tx.CreatedAt(),
	}
}

// ToPendingTransactionDTOList converts a slice of pending transactions.
func ToPendingTransactionDTOList(txs []*entities.PendingTransaction) []PendingTransactionDTO {
	result := make([]PendingTransactionDTO, len(txs))
	for i, tx := range txs {
		result[i] = ToPendingTransactionDTO(tx)
	}
	return result
}

// ToPendingTransactionPayload converts a PendingTransaction entity to the
// queue payload shape. Everything the replay call needs travels with the
// queue item.
func ToPendingTransactionPayload(tx *entities.PendingTransaction) PendingTransactionPayload {
	var standID *string
	if tx.StandID() != nil {
		s := tx.StandID().String()
		standID = &s
	}

	return PendingTransactionPayload{
		ID:               tx.ID().String(),
		WalletID:         tx.WalletID().String(),
		UserID:           tx.UserID().String(),
		Amount:           tx.Amount().MinorUnits(),
		Type:             string(tx.Type()),
		StandID:          standID,
		StandName:        tx.StandName(),
		Description:      tx.Description(),
		ProductItems:     toProductItemDTOs(tx.ProductItems()),
		IdempotencyKey:   tx.IdempotencyKey(),
		OfflineSignature: tx.OfflineSignature(),
		DeviceID:         tx.DeviceID().String(),
		CreatedAt:        tx.CreatedAt(),
	}
}

func toProductItemDTOs(items valueobjects.ProductItems) []ProductItemDTO {
	if items.IsEmpty() {
		return nil
	}
	result := make([]ProductItemDTO, len(items))
	for i, item := range items {
		result[i] = ProductItemDTO{
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().MinorUnits(),
		}
	}
	return result
}

// ============================================
// Queue payload encoding
// ============================================

// EncodePendingTransactionPayload wraps a transaction payload in the
// versioned queue envelope and serialises it.
func EncodePendingTransactionPayload(p PendingTransactionPayload) ([]byte, error) {
	env := QueuePayload{
		Version:            PayloadVersion,
		EntityType:         entities.EntityTypePendingTransaction,
		PendingTransaction: &p,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue payload: %w", err)
	}
	return b, nil
}

// DecodeQueuePayload parses a queue payload envelope. Unknown entity tags
// and foreign schema versions are rejected with a validation error so a
// downgraded build never misinterprets newer payloads.
func DecodeQueuePayload(raw []byte) (*QueuePayload, error) {
	var env QueuePayload
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.ValidationError{Field: "payload", Message: fmt.Sprintf("malformed queue payload: %v", err)}
	}

	if env.Version != PayloadVersion {
		return nil, errors.ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported payload version %d (want %d)", env.Version, PayloadVersion),
		}
	}

	switch env.EntityType {
	case entities.EntityTypePendingTransaction:
		if env.PendingTransaction == nil {
			return nil, errors.ValidationError{Field: "pending_transaction", Message: "payload body missing"}
		}
	default:
		return nil, errors.ValidationError{
			Field:   "entity_type",
			Message: fmt.Sprintf("unknown entity tag %q", env.EntityType),
		}
	}

	return &env, nil
}

// ============================================
// Wallet Mappers
// ============================================

// ToWalletDTO converts a CachedWallet entity to a DTO.
func ToWalletDTO(wallet *entities.CachedWallet) WalletDTO {
	return WalletDTO{
		ID:           wallet.ID().String(),
		UserID:       wallet.UserID().String(),
		Balance:      wallet.Balance().MinorUnits(),
		CurrencyName: wallet.Currency().Name(),
		ExchangeRate: wallet.Currency().ExchangeRate(),
		QRCode:       wallet.QRCode(),
		QRExpiresAt:  wallet.QRExpiresAt(),
		LastSync:     wallet.LastSync(),
		CreatedAt:    wallet.CreatedAt(),
		UpdatedAt:    wallet.UpdatedAt(),
	}
}

// ============================================
// Catalogue Mappers
// ============================================

// ToStandDTO converts a CachedStand entity to a DTO.
func ToStandDTO(stand *entities.CachedStand) StandDTO {
	return StandDTO{
		ID:          stand.ID().String(),
		FestivalID:  stand.FestivalID().String(),
		Name:        stand.Name(),
		Type:        string(stand.Type()),
		Description: stand.Description(),
		Location:    stand.Location(),
		IsActive:    stand.IsActive(),
		UpdatedAt:   stand.UpdatedAt(),
	}
}

// ToStandDTOList converts a slice of stands.
func ToStandDTOList(stands []*entities.CachedStand) []StandDTO {
	result := make([]StandDTO, len(stands))
	for i, s := range stands {
		result[i] = ToStandDTO(s)
	}
	return result
}

// ToProductDTO converts a CachedProduct entity to a DTO.
func ToProductDTO(product *entities.CachedProduct) ProductDTO {
	return ProductDTO{
		ID:            product.ID().String(),
		StandID:       product.StandID().String(),
		Name:          product.Name(),
		Category:      product.Category(),
		Price:         product.Price().MinorUnits(),
		Available:     product.IsAvailable(),
		StockQuantity: product.StockQuantity(),
		UpdatedAt:     product.UpdatedAt(),
	}
}

// ToProductDTOList converts a slice of products.
func ToProductDTOList(products []*entities.CachedProduct) []ProductDTO {
	result := make([]ProductDTO, len(products))
	for i, p := range products {
		result[i] = ToProductDTO(p)
	}
	return result
}

// ============================================
// History Mappers
// ============================================

// ToCachedTransactionDTO converts a CachedTransaction entity to a DTO.
func ToCachedTransactionDTO(tx *entities.CachedTransaction) CachedTransactionDTO {
	var balanceAfter *int64
	if tx.BalanceAfter() != nil {
		v := tx.BalanceAfter().MinorUnits()
		balanceAfter = &v
	}

	return CachedTransactionDTO{
		ID:           tx.ID().String(),
		WalletID:     tx.WalletID().String(),
		Amount:       tx.Amount().MinorUnits(),
		Type:         tx.Type(),
		StandName:    tx.StandName(),
		Description:  tx.Description(),
		BalanceAfter: balanceAfter,
		CreatedAt:    tx.CreatedAt(),
	}
}

// ============================================
// Sync Queue Mappers
// ============================================

// ToSyncItemDTO converts a SyncItem entity to a DTO.
func ToSyncItemDTO(item *entities.SyncItem) SyncItemDTO {
	return SyncItemDTO{
		ID:          item.ID().String(),
		Operation:   string(item.Operation()),
		EntityType:  item.EntityType(),
		EntityID:    item.EntityID(),
		Priority:    int(item.Priority()),
		RetryCount:  item.RetryCount(),
		MaxRetries:  item.MaxRetries(),
		Status:      string(item.Status()),
		LastAttempt: item.LastAttempt(),
		NextAttempt: item.NextAttempt(),
		Error:       item.LastError(),
		CreatedAt:   item.CreatedAt(),
	}
}

// ToSyncItemDTOList converts a slice of sync items.
func ToSyncItemDTOList(items []*entities.SyncItem) []SyncItemDTO {
	result := make([]SyncItemDTO, len(items))
	for i, item := range items {
		result[i] = ToSyncItemDTO(item)
	}
	return result
}
