package lessons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/lifelessons/internal/apiclient"
)

// ErrCheckoutUnavailable indicates the backend returned no checkout URL.
var ErrCheckoutUnavailable = errors.New("lessons.payments.checkout_unavailable")

// PaymentService starts checkout flows on the external payment processor.
// Payment processing itself is owned by the backend and the processor.
type PaymentService struct {
	api *apiclient.Client
}

// NewPaymentService constructs a PaymentService over the shared client.
func NewPaymentService(api *apiclient.Client) *PaymentService {
	return &PaymentService{api: api}
}

// CreateCheckoutSession asks the backend for a checkout page URL.
func (service *PaymentService) CreateCheckoutSession(ctx context.Context) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := service.api.PostJSON(ctx, "/payments/create-checkout-session", nil, &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.URL) == "" {
		return nil, fmt.Errorf("lessons.payments.create: %w", ErrCheckoutUnavailable)
	}
	return &session, nil
}
