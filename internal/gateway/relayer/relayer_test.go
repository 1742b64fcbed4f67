package relayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mirror_trading/internal/config"
	"mirror_trading/internal/models"

	"github.com/shopspring/decimal"
)

func testPosition(qty, price string) models.Position {
	q, _ := decimal.NewFromString(qty)
	p, _ := decimal.NewFromString(price)
	return models.Position{ID: "tok1", Quantity: q, Price: p, Outcome: "Yes"}
}

func TestNew_RequiresCredentialsUnlessDryRun(t *testing.T) {
	if _, err := New(&config.Config{RelayerAPIURL: "http://localhost"}); err == nil {
		t.Error("Expected error without API key outside dry-run")
	}

	if _, err := New(&config.Config{DryRun: true}); err != nil {
		t.Errorf("Dry-run construction must not fail: %v", err)
	}
}

func TestExecuteBuy_DryRunSimulatesFill(t *testing.T) {
	g, err := New(&config.Config{DryRun: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := g.ExecuteBuy(context.Background(), testPosition("10", "0.5"))
	if err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}
	if !res.Success {
		t.Error("Dry-run fill must report success")
	}
	if res.ExecutedQuantity != "10" || res.ExecutedPrice != "0.5" {
		t.Errorf("Unexpected simulated fill: %s @ %s", res.ExecutedQuantity, res.ExecutedPrice)
	}
	if !strings.HasPrefix(res.OrderID, "dry-") {
		t.Errorf("Unexpected dry-run order ID: %s", res.OrderID)
	}
}

func TestExecute_SubmitsOrderAndParsesFill(t *testing.T) {
	var received orderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "k123" {
			t.Errorf("Missing API key header")
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(orderResponse{
			Success:     true,
			OrderID:     "ord-1",
			FilledSize:  "10",
			FilledPrice: "0.51",
		})
	}))
	defer server.Close()

	g, err := New(&config.Config{
		RelayerAPIURL: server.URL,
		RelayerAPIKey: "k123",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := g.ExecuteBuy(context.Background(), testPosition("10", "0.5"))
	if err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}

	if received.Side != "buy" || received.TokenID != "tok1" || received.Size != "10" {
		t.Errorf("Unexpected order payload: %+v", received)
	}
	if received.Type != "market" {
		t.Errorf("Expected market order, got %s", received.Type)
	}
	if received.ClientOrderID == "" {
		t.Error("Missing client order ID")
	}

	if !res.Success || res.ExecutedPrice != "0.51" || res.OrderID != "ord-1" {
		t.Errorf("Fill not parsed: %+v", res)
	}
}

func TestExecute_RejectionIsFailureNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orderResponse{Success: false, Error: "market closed"})
	}))
	defer server.Close()

	g, _ := New(&config.Config{RelayerAPIURL: server.URL, RelayerAPIKey: "k"})

	res, err := g.ExecuteSell(context.Background(), testPosition("5", "0.4"))
	if err != nil {
		t.Fatalf("Rejection must not surface as transport error: %v", err)
	}
	if res.Success {
		t.Error("Expected Success=false")
	}
	if res.FailReason != "market closed" {
		t.Errorf("Expected relayer reason, got %q", res.FailReason)
	}
}

func TestExecute_SizeLimitCapsOrder(t *testing.T) {
	var received orderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(orderResponse{Success: true, FilledSize: received.Size, FilledPrice: "0.5"})
	}))
	defer server.Close()

	g, _ := New(&config.Config{
		RelayerAPIURL:  server.URL,
		RelayerAPIKey:  "k",
		TradeSizeLimit: 2, // notional cap in quote currency
	})

	// 100 shares @ 0.5 = 50 notional; cap 2 -> 4 shares.
	if _, err := g.ExecuteBuy(context.Background(), testPosition("100", "0.5")); err != nil {
		t.Fatalf("ExecuteBuy failed: %v", err)
	}
	if received.Size != "4" {
		t.Errorf("Expected capped size 4, got %s", received.Size)
	}
}

func TestExecute_ZeroSizeFailsFast(t *testing.T) {
	g, _ := New(&config.Config{DryRun: true})

	res, err := g.ExecuteBuy(context.Background(), testPosition("0", "0.5"))
	if err != nil {
		t.Fatalf("ExecuteBuy errored: %v", err)
	}
	if res.Success {
		t.Error("Zero-size order must fail")
	}
}
