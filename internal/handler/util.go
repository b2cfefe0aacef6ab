package handler

import (
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
)

// batchPrefix returns a short random prefix shared by one batch's order IDs.
func batchPrefix() string {
	return "batch-" + uuid.NewString()[:8]
}

func generateOrderID(prefix string, i int) string {
	return prefix + "-" + strconv.Itoa(i)
}

func randomAmount() float64 {
	// Random amount between 5.00 and 200.00
	return 5.0 + float64(rand.Intn(19501))/100.0
}

// sampleInstrument returns a valid test instrument of the given type.
func sampleInstrument(t model.InstrumentType) model.PaymentInstrument {
	switch t {
	case model.InstrumentUPI:
		return model.PaymentInstrument{Type: t, UPIID: "batch.user@okbank"}
	case model.InstrumentNetbanking:
		return model.PaymentInstrument{Type: t, BankCode: "HDFC"}
	default:
		return model.PaymentInstrument{
			Type:           model.InstrumentCard,
			CardNumber:     "4111111111111111",
			Expiry:         "12/30",
			CVV:            "123",
			CardHolderName: "Batch Tester",
		}
	}
}
