// Package payment integrates the external payment gateway over HTTP. A
// declined charge is a business outcome and is never retried; transport
// failures are retried with backoff before the checkout gives up.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelbook/booking-checkout-service/internal/domain"
	"github.com/travelbook/booking-checkout-service/internal/infrastructure/retry"
)

// chargeRequest is the gateway's charge payload.
type chargeRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Token    string  `json:"token"`
}

// chargeResponse is the gateway's response payload.
type chargeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Gateway is an HTTP implementation of domain.PaymentGateway.
type Gateway struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewGateway creates a payment gateway client for the given endpoint.
func NewGateway(endpoint string, timeout time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Charge implements domain.PaymentGateway. Declines surface as
// ErrPaymentDeclined immediately; transport errors and gateway 5xx responses
// are retried and, once exhausted, reported as ErrPaymentUnavailable.
func (g *Gateway) Charge(ctx context.Context, amount float64, currency, token string) error {
	body, err := json.Marshal(chargeRequest{Amount: amount, Currency: currency, Token: token})
	if err != nil {
		return fmt.Errorf("encode charge request: %w", err)
	}

	cfg := retry.GatewayConfig.WithRetryIf(retry.SkipPermanent)
	err = retry.Do(ctx, func() error {
		return g.charge(ctx, body)
	}, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) {
			return fmt.Errorf("charge rejected: %w", domain.ErrPaymentDeclined)
		}
		if retry.IsPermanent(err) {
			return err
		}
		g.log.Error().Err(err).Msg("Payment gateway unreachable after retries")
		return fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	return nil
}

// charge performs one charge attempt.
func (g *Gateway) charge(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/charges", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil

	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		var decline chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&decline); err == nil && decline.Message != "" {
			g.log.Warn().Str("reason", decline.Message).Msg("Charge declined by gateway")
		}
		return retry.NewPermanent(domain.ErrPaymentDeclined)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Other 4xx responses indicate a request our retries cannot fix.
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return retry.NewPermanent(fmt.Errorf("gateway rejected request: status %d: %s", resp.StatusCode, payload))

	default:
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
}
