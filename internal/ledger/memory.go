package ledger

import (
	"context"
	"sync"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// MemoryStore provides thread-safe in-process storage for transactions.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]model.Transaction
}

// NewMemoryStore creates a new empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]model.Transaction),
	}
}

// Create stores a new transaction.
func (s *MemoryStore) Create(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.OrderID]; ok {
		return ErrDuplicate
	}
	s.transactions[tx.OrderID] = tx
	return nil
}

// Get retrieves a transaction by order ID.
func (s *MemoryStore) Get(_ context.Context, orderID string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[orderID]
	if !ok {
		return model.Transaction{}, ErrNotFound
	}
	return tx, nil
}

// Update replaces an existing transaction.
func (s *MemoryStore) Update(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.OrderID]; !ok {
		return ErrNotFound
	}
	s.transactions[tx.OrderID] = tx
	return nil
}

// List returns every transaction, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	txs := make([]model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		txs = append(txs, tx)
	}
	s.mu.RUnlock()

	sortByCreatedAt(txs)
	return txs, nil
}

// Clear removes every transaction.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = make(map[string]model.Transaction)
	return nil
}
