package orchestrator

import (
	"context"
	"fmt"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// GatewayTally counts one gateway's transactions by status.
type GatewayTally struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

// Stats summarises the ledger.
type Stats struct {
	TotalTransactions  int                             `json:"total_transactions"`
	ByStatus           map[model.TransactionStatus]int `json:"by_status"`
	ByGateway          map[string]GatewayTally         `json:"by_gateway"`
	RecentTransactions []model.Transaction             `json:"recent_transactions"`
}

// Stats aggregates every transaction and lists the most recent ones, newest first.
func (o *Orchestrator) Stats(ctx context.Context) (Stats, error) {
	txs, err := o.store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list transactions: %w", err)
	}
	return summarize(txs, config.RecentTransactionsLimit), nil
}

// summarize expects txs oldest first.
func summarize(txs []model.Transaction, recentLimit int) Stats {
	stats := Stats{
		TotalTransactions:  len(txs),
		ByStatus:           make(map[model.TransactionStatus]int),
		ByGateway:          make(map[string]GatewayTally),
		RecentTransactions: make([]model.Transaction, 0, min(len(txs), recentLimit)),
	}

	for _, tx := range txs {
		stats.ByStatus[tx.Status]++

		tally := stats.ByGateway[tx.SelectedGateway]
		tally.Total++
		switch tx.Status {
		case model.StatusCompleted:
			tally.Completed++
		case model.StatusFailed:
			tally.Failed++
		case model.StatusPending:
			tally.Pending++
		}
		stats.ByGateway[tx.SelectedGateway] = tally
	}

	for i := len(txs) - 1; i >= 0 && len(stats.RecentTransactions) < recentLimit; i-- {
		stats.RecentTransactions = append(stats.RecentTransactions, txs[i])
	}
	return stats
}
