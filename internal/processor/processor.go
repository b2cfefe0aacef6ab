package processor

import (
	"context"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// Processor sends a transaction to a named upstream gateway.
type Processor interface {
	// Process attempts the transaction through the given gateway.
	Process(ctx context.Context, gateway string, tx model.Transaction) model.ProcessorResponse
}
