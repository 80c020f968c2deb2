package payment

import "github.com/segmentio/ksuid"

// NewOrderID issues the partner order id sent to the provider.
func NewOrderID() string {
	return "ORDER_" + ksuid.New().String()
}
