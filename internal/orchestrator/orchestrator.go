package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/ledger"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/processor"
)

var (
	// ErrAlreadyProcessed is returned for a callback on a transaction that has
	// already received one.
	ErrAlreadyProcessed = errors.New("transaction has already been processed")
	// ErrGatewayMismatch is returned when a callback names a gateway other than
	// the one the transaction was routed to.
	ErrGatewayMismatch = errors.New("callback gateway does not match selected gateway")
)

// Orchestrator routes new transactions through the gateway registry, records
// them in the ledger and feeds callback outcomes back into gateway health.
type Orchestrator struct {
	registry  *health.Registry
	store     ledger.Store
	processor processor.Processor
	clock     clock.Clock

	// settleMu serialises the read-check-update of a callback so a
	// transaction is settled at most once.
	settleMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an Orchestrator. A nil clock uses the wall clock.
func New(registry *health.Registry, store ledger.Store, proc processor.Processor, clk clock.Clock) *Orchestrator {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		registry:  registry,
		store:     store,
		processor: proc,
		clock:     clk,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Registry returns the gateway registry used for routing.
func (o *Orchestrator) Registry() *health.Registry {
	return o.registry
}

// Initiate routes a new transaction to a healthy gateway and stores it as
// pending. A duplicate order ID is rejected before any gateway is selected;
// the existing transaction is returned with ledger.ErrDuplicate.
func (o *Orchestrator) Initiate(ctx context.Context, req model.InitiateRequest) (model.Transaction, error) {
	existing, err := o.store.Get(ctx, req.OrderID)
	switch {
	case err == nil:
		slog.WarnContext(ctx, "duplicate_order_id",
			"order_id", req.OrderID,
			"status", existing.Status,
		)
		return existing, ledger.ErrDuplicate
	case !errors.Is(err, ledger.ErrNotFound):
		return model.Transaction{}, fmt.Errorf("lookup order %s: %w", req.OrderID, err)
	}

	gateway, err := o.registry.SelectGateway()
	if err != nil {
		slog.WarnContext(ctx, "no_healthy_gateways", "order_id", req.OrderID)
		return model.Transaction{}, err
	}

	now := o.clock.Now()
	tx := model.Transaction{
		OrderID:         req.OrderID,
		Amount:          req.Amount,
		SelectedGateway: gateway,
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PaymentInstrument != nil {
		tx.PaymentInstrument = *req.PaymentInstrument
	}

	if err := o.store.Create(ctx, tx); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			if existing, getErr := o.store.Get(ctx, req.OrderID); getErr == nil {
				return existing, ledger.ErrDuplicate
			}
		}
		return model.Transaction{}, fmt.Errorf("create transaction %s: %w", req.OrderID, err)
	}

	slog.InfoContext(ctx, "transaction_created",
		"order_id", tx.OrderID,
		"gateway", gateway,
		"amount", tx.Amount,
	)

	o.simulate(ctx, tx)
	return tx, nil
}

// simulate fires the gateway call in the background. Its outcome is only
// logged; gateway health follows callbacks.
func (o *Orchestrator) simulate(ctx context.Context, tx model.Transaction) {
	if o.processor == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		resp := o.processor.Process(o.ctx, tx.SelectedGateway, tx)
		slog.InfoContext(logCtx, "payment_simulation_result",
			"order_id", tx.OrderID,
			"gateway", resp.Gateway,
			"success", resp.Success,
			"message", resp.Message,
			"latency_ms", resp.Latency.Milliseconds(),
		)
	}()
}

// Callback settles a pending transaction from a gateway callback and records
// the outcome against the gateway.
func (o *Orchestrator) Callback(ctx context.Context, req model.CallbackRequest) (model.Transaction, error) {
	o.settleMu.Lock()
	defer o.settleMu.Unlock()

	tx, err := o.store.Get(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			slog.WarnContext(ctx, "callback_unknown_transaction",
				"order_id", req.OrderID,
				"gateway", req.Gateway,
			)
		}
		return model.Transaction{}, err
	}

	if tx.CallbackReceived {
		slog.WarnContext(ctx, "callback_already_processed",
			"order_id", tx.OrderID,
			"current_status", tx.Status,
		)
		return tx, ErrAlreadyProcessed
	}

	if tx.SelectedGateway != req.Gateway {
		slog.WarnContext(ctx, "callback_gateway_mismatch",
			"order_id", tx.OrderID,
			"selected_gateway", tx.SelectedGateway,
			"callback_gateway", req.Gateway,
		)
		return tx, ErrGatewayMismatch
	}

	return o.settle(ctx, tx, req.Status.TransactionStatus(), req.Gateway, req.Reason)
}

// SimulateCallback settles a transaction as if gateway had reported the given
// outcome. Unlike Callback it does not reject settled transactions or a
// mismatched gateway.
func (o *Orchestrator) SimulateCallback(ctx context.Context, orderID, gateway string, success bool) (model.Transaction, error) {
	o.settleMu.Lock()
	defer o.settleMu.Unlock()

	tx, err := o.store.Get(ctx, orderID)
	if err != nil {
		return model.Transaction{}, err
	}

	status := model.StatusFailed
	if success {
		status = model.StatusCompleted
	}
	return o.settle(ctx, tx, status, gateway, "")
}

// BulkResult reports how a bulk callback went.
type BulkResult struct {
	Total        int `json:"total_transactions"`
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// BulkCallback settles every pending transaction with the same outcome,
// each against its own selected gateway.
func (o *Orchestrator) BulkCallback(ctx context.Context, success bool) (BulkResult, error) {
	o.settleMu.Lock()
	defer o.settleMu.Unlock()

	txs, err := o.store.List(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("list transactions: %w", err)
	}

	status := model.StatusFailed
	if success {
		status = model.StatusCompleted
	}

	var result BulkResult
	for _, tx := range txs {
		if tx.Status != model.StatusPending {
			continue
		}
		result.Total++
		if _, err := o.settle(ctx, tx, status, tx.SelectedGateway, ""); err != nil {
			slog.ErrorContext(ctx, "bulk_callback_failed",
				"order_id", tx.OrderID,
				"error", err,
			)
			result.FailureCount++
			continue
		}
		result.SuccessCount++
	}

	slog.InfoContext(ctx, "bulk_callback_completed",
		"status", status,
		"total_transactions", result.Total,
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount,
	)
	return result, nil
}

// settle must be called with settleMu held.
func (o *Orchestrator) settle(ctx context.Context, tx model.Transaction, status model.TransactionStatus, gateway, reason string) (model.Transaction, error) {
	now := o.clock.Now()
	tx.Status = status
	tx.UpdatedAt = now
	tx.CallbackReceived = true
	tx.CallbackData = &model.CallbackData{
		Gateway:    gateway,
		Reason:     reason,
		ReceivedAt: now,
	}

	if err := o.store.Update(ctx, tx); err != nil {
		return model.Transaction{}, fmt.Errorf("update transaction %s: %w", tx.OrderID, err)
	}

	o.registry.RecordOutcome(gateway, status == model.StatusCompleted)

	slog.InfoContext(ctx, "transaction_status_updated",
		"order_id", tx.OrderID,
		"status", status,
		"gateway", gateway,
		"reason", reason,
	)
	return tx, nil
}

// Get returns one transaction by order ID.
func (o *Orchestrator) Get(ctx context.Context, orderID string) (model.Transaction, error) {
	return o.store.Get(ctx, orderID)
}

// Transactions returns every transaction, oldest first.
func (o *Orchestrator) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return o.store.List(ctx)
}

// ResetAll returns every gateway to a fresh healthy state and clears the ledger.
func (o *Orchestrator) ResetAll(ctx context.Context) error {
	o.registry.ResetAll()
	if err := o.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	slog.InfoContext(ctx, "application_reset")
	return nil
}

// Close cancels in-flight simulations and waits for them to finish.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}
