package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-ops-api/pkg/config"
)

// ConfirmRequest is the gateway confirmation payload, keyed by the
// payment key in the URL path.
type ConfirmRequest struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

// ConfirmResponse carries the gateway-side payment status fields.
// Raw holds the unparsed body so it can be persisted verbatim for
// audit.
type ConfirmResponse struct {
	OrderID     string    `json:"orderId"`
	Method      string    `json:"method"`
	TotalAmount int64     `json:"totalAmount"`
	ApprovedAt  time.Time `json:"approvedAt"`
	Raw         []byte    `json:"-"`
}

// PaymentGateway is the outbound contract to the external payment
// provider. Confirm must be bounded by the context deadline; a
// timeout is a failure, never an approval.
type PaymentGateway interface {
	Confirm(ctx context.Context, paymentKey string, req ConfirmRequest) (*ConfirmResponse, error)
}

// HTTPGateway talks to the provider over HTTPS with Basic auth
// derived from the configured secret key.
type HTTPGateway struct {
	baseURL   string
	authToken string
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPGateway constructs the gateway client.
func NewHTTPGateway(cfg config.PaymentConfig, logger *zap.Logger) *HTTPGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPGateway{
		baseURL:   cfg.GatewayBaseURL,
		authToken: base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey + ":")),
		client:    &http.Client{Timeout: cfg.ConfirmTimeout},
		logger:    logger,
	}
}

// Confirm performs the verify-then-approve call against the provider.
func (g *HTTPGateway) Confirm(ctx context.Context, paymentKey string, confirm ConfirmRequest) (*ConfirmResponse, error) {
	body, err := json.Marshal(confirm)
	if err != nil {
		return nil, fmt.Errorf("marshal confirm request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, paymentKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build confirm request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+g.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway confirm: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("gateway confirm rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("order_id", confirm.OrderID),
		)
		return nil, fmt.Errorf("gateway confirm: status %d", resp.StatusCode)
	}

	var parsed ConfirmResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	parsed.Raw = raw
	return &parsed, nil
}
