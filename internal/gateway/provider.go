package gateway

import "context"

// Order is the provider-side order backing a local payment.
type Order struct {
	ID       string
	Amount   int64 // minor currency units
	Currency string
	Receipt  string
}

// Provider abstracts the external payment provider. CreateOrder registers an
// order for the given amount in the provider's minor currency unit and
// returns the provider order id.
type Provider interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
