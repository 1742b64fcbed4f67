package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"mirror_trading/internal/config"
	"mirror_trading/internal/gateway"
	"mirror_trading/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway implements gateway.TradeGateway against the order relayer's
// REST API. Order signing and settlement live behind the relayer; this
// client only submits market orders and reports the fill.
type Gateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	dryRun     bool
	sizeLimit  decimal.Decimal // zero means unlimited
}

// Ensure Gateway implements the interface
var _ gateway.TradeGateway = (*Gateway)(nil)

// New builds a relayer gateway from configuration.
// Outside dry-run mode a missing API key is a hard error; the caller
// decides whether that is fatal.
func New(cfg *config.Config) (*Gateway, error) {
	if !cfg.DryRun {
		if cfg.RelayerAPIKey == "" {
			return nil, fmt.Errorf("relayer gateway: RELAYER_API_KEY is not set")
		}
		if strings.TrimSpace(cfg.RelayerAPIURL) == "" {
			return nil, fmt.Errorf("relayer gateway: RELAYER_API_URL is not set")
		}
	}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Gateway{
		baseURL:    strings.TrimRight(cfg.RelayerAPIURL, "/"),
		apiKey:     cfg.RelayerAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		dryRun:     cfg.DryRun,
		sizeLimit:  decimal.NewFromFloat(cfg.TradeSizeLimit),
	}, nil
}

// NewDry returns a gateway that can only simulate fills. Used when live
// construction fails but the process should keep running in dry-run mode.
func NewDry(cfg *config.Config) *Gateway {
	return &Gateway{
		dryRun:    true,
		sizeLimit: decimal.NewFromFloat(cfg.TradeSizeLimit),
	}
}

// orderRequest mirrors the relayer's /orders schema.
type orderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	TokenID       string `json:"token_id"`
	Side          string `json:"side"` // "buy" or "sell"
	Size          string `json:"size"`
	Type          string `json:"type"` // always "market" here
}

// orderResponse mirrors the relayer's order result schema. Size and price
// come back as strings.
type orderResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id"`
	FilledSize  string `json:"filled_size"`
	FilledPrice string `json:"filled_price"`
	Error       string `json:"error"`
}

// ExecuteBuy submits a market buy matching the target's position size.
func (g *Gateway) ExecuteBuy(ctx context.Context, position models.Position) (*models.TradeResult, error) {
	return g.execute(ctx, position, "buy")
}

// ExecuteSell submits a market sell closing the mirrored position.
func (g *Gateway) ExecuteSell(ctx context.Context, position models.Position) (*models.TradeResult, error) {
	return g.execute(ctx, position, "sell")
}

func (g *Gateway) execute(ctx context.Context, position models.Position, side string) (*models.TradeResult, error) {
	size := position.Quantity

	// Cap notional per trade when a limit is configured.
	if g.sizeLimit.IsPositive() && position.Price.IsPositive() {
		notional := size.Mul(position.Price)
		if notional.GreaterThan(g.sizeLimit) {
			size = g.sizeLimit.Div(position.Price).RoundDown(2)
			log.Printf("Capping %s of %s: %s -> %s shares (limit %s)",
				side, position.ID, position.Quantity, size, g.sizeLimit)
		}
	}

	if size.IsZero() {
		return &models.TradeResult{Success: false, FailReason: "zero order size"}, nil
	}

	if g.dryRun {
		// Simulated fill at the last observed price.
		log.Printf("[DRY_RUN] %s %s shares of %s @ %s", side, size, position.ID, position.Price)
		return &models.TradeResult{
			Success:          true,
			OrderID:          "dry-" + uuid.NewString(),
			ExecutedQuantity: size.String(),
			ExecutedPrice:    position.Price.String(),
		}, nil
	}

	req := orderRequest{
		ClientOrderID: uuid.NewString(),
		TokenID:       position.ID,
		Side:          side,
		Size:          size.String(),
		Type:          "market",
	}

	resp, err := g.postOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &models.TradeResult{
		Success:          resp.Success,
		OrderID:          resp.OrderID,
		ExecutedQuantity: resp.FilledSize,
		ExecutedPrice:    resp.FilledPrice,
		FailReason:       resp.Error,
	}
	if !resp.Success && result.FailReason == "" {
		result.FailReason = "relayer rejected order"
	}
	return result, nil
}

func (g *Gateway) postOrder(ctx context.Context, order orderRequest) (*orderResponse, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relayer order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("relayer order: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("relayer order: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded orderResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("relayer order: decode response: %w", err)
	}
	return &decoded, nil
}
