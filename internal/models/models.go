package models

import "github.com/shopspring/decimal"

// Market represents a prediction market that a position belongs to.
//
// The struct tags (e.g. `json:"id"`) map JSON keys to these fields.
// Only ID is guaranteed to be present; upstream APIs disagree about
// the rest, so everything else is optional.
type Market struct {
	ID          string          `json:"id"`
	Question    string          `json:"question"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Image       string          `json:"image,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Liquidity   decimal.Decimal `json:"liquidity"`
	Volume      decimal.Decimal `json:"volume"`
	Active      bool            `json:"active"`
}

// Position is one open position held by the target wallet.
// ID is stable across snapshots and is the key the reconciliation
// engine diffs on.
type Position struct {
	ID           string          `json:"id"`
	Market       Market          `json:"market"`
	Outcome      string          `json:"outcome"`       // e.g. "Yes" / "No"
	Quantity     decimal.Decimal `json:"quantity"`      // share count
	Price        decimal.Decimal `json:"price"`         // last observed price per share
	Value        decimal.Decimal `json:"value"`         // current position value
	InitialValue decimal.Decimal `json:"initial_value"` // cost basis, zero if unknown
	Timestamp    string          `json:"timestamp"`     // RFC3339
}

// PositionSet is the normalized result of a position fetch.
type PositionSet struct {
	Positions  []Position      `json:"positions"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// StatusUpdate is one observation of the target's open position set,
// delivered by the status poller to the reconciliation engine.
type StatusUpdate struct {
	Address    string          `json:"address"`
	Positions  []Position      `json:"positions"`
	TotalValue decimal.Decimal `json:"total_value"`
	FetchedAt  string          `json:"fetched_at"` // RFC3339
}
