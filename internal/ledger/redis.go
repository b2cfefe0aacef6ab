package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// RedisStore keeps transactions as JSON values in one Redis hash.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisClient creates a client with pool and timeout settings sized for
// the request path.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		DB:              0,
		PoolSize:        50,
		MinIdleConns:    5,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     500 * time.Millisecond,
		ReadTimeout:     300 * time.Millisecond,
		WriteTimeout:    300 * time.Millisecond,
		MaxRetries:      2,
	})
}

// NewRedisStore stores transactions under "<prefix>:transactions".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     prefix + ":transactions",
		timeout: 500 * time.Millisecond,
	}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Create stores a new transaction; HSETNX makes the duplicate check atomic.
func (s *RedisStore) Create(ctx context.Context, tx model.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.OrderID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.client.HSetNX(ctx, s.key, tx.OrderID, data).Result()
	if err != nil {
		return fmt.Errorf("create transaction %s: %w", tx.OrderID, err)
	}
	if !created {
		return ErrDuplicate
	}
	return nil
}

// Get retrieves a transaction by order ID.
func (s *RedisStore) Get(ctx context.Context, orderID string) (model.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.HGet(ctx, s.key, orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Transaction{}, ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("get transaction %s: %w", orderID, err)
	}
	return decodeTransaction(data)
}

// Update replaces an existing transaction. The existence check and write run
// in one WATCH transaction so a concurrent Clear cannot resurrect the entry.
func (s *RedisStore) Update(ctx context.Context, tx model.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.OrderID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txf := func(rtx *redis.Tx) error {
		exists, err := rtx.HExists(ctx, s.key, tx.OrderID).Result()
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, tx.OrderID, data)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err = s.client.Watch(ctx, txf, s.key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.OrderID, err)
	}
	return nil
}

// List returns every transaction, oldest first.
func (s *RedisStore) List(ctx context.Context) ([]model.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]model.Transaction, 0, len(values))
	for _, v := range values {
		tx, err := decodeTransaction([]byte(v))
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	sortByCreatedAt(txs)
	return txs, nil
}

// Clear removes every transaction.
func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	return nil
}

func decodeTransaction(data []byte) (model.Transaction, error) {
	var tx model.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return model.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}
