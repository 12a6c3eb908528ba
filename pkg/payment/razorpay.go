package payment

import (
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/swiftcare-health/swiftcare-api/internal/config"
)

var ErrPaymentsDisabled = errors.New("payment gateway is not configured")

// Gateway creates and verifies payment orders. Amounts are in the currency's
// major unit; the razorpay API wants the minor unit (paise), converted here.
// FetchOrderStatus returns the receipt the order was created with so callers
// can bind a verified payment back to the record it was created for.
type Gateway interface {
	CreateOrder(amount int64, receipt string) (orderID string, err error)
	FetchOrderStatus(orderID string) (paid bool, receipt string, err error)
}

type RazorpayGateway struct {
	client *razorpay.Client
	cfg    config.RazorpayConfig
}

func NewRazorpayGateway(cfg config.RazorpayConfig) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		cfg:    cfg,
	}
}

func (g *RazorpayGateway) CreateOrder(amount int64, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount * 100,
		"currency": g.cfg.Currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("creating payment order: %w", err)
	}

	orderID, ok := body["id"].(string)
	if !ok {
		return "", fmt.Errorf("payment order response has no id")
	}
	return orderID, nil
}

func (g *RazorpayGateway) FetchOrderStatus(orderID string) (bool, string, error) {
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return false, "", fmt.Errorf("fetching payment order %s: %w", orderID, err)
	}
	status, _ := body["status"].(string)
	receipt, _ := body["receipt"].(string)
	return status == "paid", receipt, nil
}

// DisabledGateway rejects every operation; used when payments are switched off.
type DisabledGateway struct{}

func (DisabledGateway) CreateOrder(int64, string) (string, error) {
	return "", ErrPaymentsDisabled
}

func (DisabledGateway) FetchOrderStatus(string) (bool, string, error) {
	return false, "", ErrPaymentsDisabled
}
