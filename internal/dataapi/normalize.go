package dataapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mirror_trading/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field fallback chains. Upstream payload shapes disagree on names, so each
// canonical field is resolved from a list of candidates in priority order.
// Changing the order changes which field wins when several are present.
var (
	positionIDKeys = []string{"asset", "conditionId", "tokenId", "id"}
	marketIDKeys   = []string{"conditionId", "market", "marketId", "id"}
	quantityKeys   = []string{"size", "quantity", "shares", "amount"}
	priceKeys      = []string{"curPrice", "currentPrice", "price", "avgPrice"}
	valueKeys      = []string{"currentValue", "value"}
	curPriceKeys   = []string{"curPrice", "currentPrice"}
	avgPriceKeys   = []string{"avgPrice", "averagePrice"}
	timestampKeys  = []string{"timestamp", "updatedAt", "createdAt"}
	txHashKeys     = []string{"transactionHash", "txHash", "hash"}
	userKeys       = []string{"proxyWallet", "user", "userAddress", "address"}
)

// normalizePosition turns one raw position item into a canonical Position.
func normalizePosition(item map[string]any) models.Position {
	p := models.Position{
		ID:      pickString(item, positionIDKeys...),
		Market:  normalizeMarket(item),
		Outcome: pickString(item, "outcome", "outcomeName"),
	}

	p.Quantity, _ = pickDecimal(item, quantityKeys...)
	p.Price, _ = pickDecimal(item, priceKeys...)

	// Value preference: explicit current value, then quantity x current
	// price, then quantity x average price, then zero.
	if v, ok := pickDecimal(item, valueKeys...); ok {
		p.Value = v
	} else if cur, ok := pickDecimal(item, curPriceKeys...); ok {
		p.Value = p.Quantity.Mul(cur)
	} else if avg, ok := pickDecimal(item, avgPriceKeys...); ok {
		p.Value = p.Quantity.Mul(avg)
	} else {
		p.Value = decimal.Zero
	}

	if iv, ok := pickDecimal(item, "initialValue", "cost"); ok {
		p.InitialValue = iv
	}

	p.Timestamp = pickTimestamp(item, timestampKeys...)
	return p
}

// normalizeTrade turns one raw trade item into a canonical Trade.
// userAddress is the wallet the fetch was made for; used when the payload
// itself carries no user field.
func normalizeTrade(item map[string]any, userAddress string) models.Trade {
	t := models.Trade{
		Market:          normalizeMarket(item),
		Outcome:         pickString(item, "outcome", "outcomeName"),
		TransactionHash: pickString(item, txHashKeys...),
		UserAddress:     pickString(item, userKeys...),
	}

	if t.UserAddress == "" {
		t.UserAddress = userAddress
	}

	// Prefer the transaction hash as the trade ID. The fallback is only
	// locally unique, which is fine: trades are historical records, never
	// reconciliation keys.
	if t.TransactionHash != "" {
		t.ID = t.TransactionHash
	} else {
		t.ID = fmt.Sprintf("trade-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
	}

	t.Side = normalizeSide(pickString(item, "side", "type", "action"))
	t.Quantity, _ = pickDecimal(item, quantityKeys...)
	t.Price, _ = pickDecimal(item, priceKeys...)
	t.Timestamp = pickTimestamp(item, timestampKeys...)
	return t
}

// normalizeMarket builds a Market from either a nested "market" object or
// flat fields on the item itself.
func normalizeMarket(item map[string]any) models.Market {
	src := item
	if nested, ok := item["market"].(map[string]any); ok {
		src = nested
	}

	m := models.Market{
		ID:          pickString(src, marketIDKeys...),
		Question:    pickString(src, "title", "question", "name"),
		Slug:        pickString(src, "slug", "marketSlug", "eventSlug"),
		Description: pickString(src, "description"),
		EndDate:     pickString(src, "endDate", "end_date"),
		Image:       pickString(src, "icon", "image"),
	}

	m.Liquidity, _ = pickDecimal(src, "liquidity")
	m.Volume, _ = pickDecimal(src, "volume")

	if active, ok := src["active"].(bool); ok {
		m.Active = active
	}

	if tags, ok := src["tags"].([]any); ok {
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				m.Tags = append(m.Tags, s)
			}
		}
	}
	return m
}

// normalizeSide maps a raw side value onto "buy"/"sell". Anything not
// recognizably a buy is treated as a sell.
func normalizeSide(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "buy") {
		return "buy"
	}
	return "sell"
}

// pickString returns the first present, non-empty string among keys.
func pickString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// pickDecimal returns the first present value among keys that parses as a
// decimal. Accepts JSON strings and numbers.
func pickDecimal(item map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if d, err := decimal.NewFromString(val); err == nil {
				return d, true
			}
		case json.Number:
			if d, err := decimal.NewFromString(val.String()); err == nil {
				return d, true
			}
		case float64:
			return decimal.NewFromFloat(val), true
		}
	}
	return decimal.Zero, false
}

// pickTimestamp returns the first present timestamp among keys, converted
// to RFC3339. Numeric values (and numeric strings) are taken as epoch
// seconds; anything else passes through unchanged.
func pickTimestamp(item map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			if secs, err := strconv.ParseInt(val, 10, 64); err == nil {
				return time.Unix(secs, 0).UTC().Format(time.RFC3339)
			}
			return val
		case json.Number:
			if secs, err := val.Int64(); err == nil {
				return time.Unix(secs, 0).UTC().Format(time.RFC3339)
			}
		case float64:
			return time.Unix(int64(val), 0).UTC().Format(time.RFC3339)
		}
	}
	return ""
}
