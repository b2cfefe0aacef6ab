// Package ledger stores payment transactions keyed by order ID.
package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

var (
	// ErrNotFound is returned when no transaction exists for an order ID.
	ErrNotFound = errors.New("transaction not found")
	// ErrDuplicate is returned when creating a transaction for an existing order ID.
	ErrDuplicate = errors.New("transaction already exists for this order_id")
)

// Store is a keyed transaction ledger.
type Store interface {
	Create(ctx context.Context, tx model.Transaction) error
	Get(ctx context.Context, orderID string) (model.Transaction, error)
	Update(ctx context.Context, tx model.Transaction) error
	List(ctx context.Context) ([]model.Transaction, error)
	Clear(ctx context.Context) error
}

// sortByCreatedAt orders transactions oldest first, breaking ties by order ID.
func sortByCreatedAt(txs []model.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].OrderID < txs[j].OrderID
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}
