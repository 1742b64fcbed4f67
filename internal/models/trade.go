package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a historical trade made by the target wallet.
// Trades are read-only records; their IDs are never used as
// reconciliation keys, so a locally generated fallback ID is fine.
type Trade struct {
	ID              string          `json:"id"`
	Market          Market          `json:"market"`
	Outcome         string          `json:"outcome"`
	Side            string          `json:"side"` // "buy" or "sell"
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Timestamp       string          `json:"timestamp"`
	TransactionHash string          `json:"transaction_hash,omitempty"`
	UserAddress     string          `json:"user_address"`
}

// TradeSet is the normalized result of a trade-history fetch.
type TradeSet struct {
	Trades []Trade `json:"trades"`
}

// TradeResult is what the trade gateway reports back for one order.
// Quantity and price come back as strings because the relayer echoes
// them straight from its JSON response; callers must parse defensively.
type TradeResult struct {
	Success          bool   `json:"success"`
	OrderID          string `json:"order_id,omitempty"`
	ExecutedQuantity string `json:"executed_quantity,omitempty"`
	ExecutedPrice    string `json:"executed_price,omitempty"`
	FailReason       string `json:"fail_reason,omitempty"`
}

// Stats tracks what the engine has done over the life of the process.
// Counters only ever go up; TotalVolume only ever grows.
type Stats struct {
	Enabled             bool            `json:"enabled"`
	DryRun              bool            `json:"dry_run"`
	TotalTradesExecuted int             `json:"total_trades_executed"`
	TotalTradesFailed   int             `json:"total_trades_failed"`
	TotalVolume         decimal.Decimal `json:"total_volume"`
	LastTradeTime       *time.Time      `json:"last_trade_time,omitempty"`
}

// MirrorState is the persisted engine state.
// This struct matches the structure of the JSON storage file.
type MirrorState struct {
	Version     string   `json:"version"`
	LastSync    string   `json:"last_sync"`
	ExecutedIDs []string `json:"executed_ids"` // position IDs bought and not yet sold
	Stats       Stats    `json:"stats"`
}
