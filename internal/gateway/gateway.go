package gateway

import (
	"context"

	"mirror_trading/internal/models"
)

// TradeGateway is an Interface.
// Interfaces define *behavior*: anything that can execute a buy and a sell
// satisfies it. This lets us swap the real relayer for a dry-run or a spy
// in tests without changing the engine.
//
// A nil-error result with Success=false and a non-nil error are treated
// identically by the engine: the trade failed.
type TradeGateway interface {
	ExecuteBuy(ctx context.Context, position models.Position) (*models.TradeResult, error)
	ExecuteSell(ctx context.Context, position models.Position) (*models.TradeResult, error)
}
