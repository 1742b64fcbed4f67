package dataapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mirror_trading/internal/models"

	"github.com/shopspring/decimal"
)

// The data API paginates positions in fixed pages. We stop after maxPages
// to bound latency and upstream load; targets holding more than
// pageSize*maxPages positions are truncated.
const (
	pageSize = 100
	maxPages = 10
)

// Client fetches and normalizes position/trade data for a wallet.
//
// Upstream exposes two endpoint conventions (address as a path segment vs.
// as a query parameter) and three response envelopes (bare array, or the
// array nested under "positions"/"trades"/"data"). All of that irregularity
// is absorbed here; callers only ever see canonical models.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a data API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d for %s", e.Code, e.URL)
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// FetchPositions returns the target's currently open positions.
//
// It tries the path-segment endpoint first and falls back to the
// query-parameter form. If both shapes 404, the target simply has no data
// and an empty set is returned instead of an error.
func (c *Client) FetchPositions(ctx context.Context, address string) (*models.PositionSet, error) {
	primary := c.baseURL + "/positions/" + url.PathEscape(address)
	query := url.Values{"active": {"true"}}

	items, primaryErr := c.fetchPaginated(ctx, primary, query)
	if primaryErr != nil {
		alternate := c.baseURL + "/positions"
		altQuery := url.Values{"user": {address}, "active": {"true"}}

		var altErr error
		items, altErr = c.fetchPaginated(ctx, alternate, altQuery)
		if altErr != nil {
			if isNotFound(primaryErr) || isNotFound(altErr) {
				return &models.PositionSet{Positions: []models.Position{}, TotalValue: decimal.Zero}, nil
			}
			return nil, fmt.Errorf("fetch positions for %s: %w", address, primaryErr)
		}
	}

	set := &models.PositionSet{Positions: make([]models.Position, 0, len(items))}
	for _, item := range items {
		p := normalizePosition(item)
		set.Positions = append(set.Positions, p)
		set.TotalValue = set.TotalValue.Add(p.Value)
	}
	return set, nil
}

// FetchTrades returns up to limit of the target's most recent trades,
// newest first. Same two-shape fallback as FetchPositions.
func (c *Client) FetchTrades(ctx context.Context, address string, limit int) (*models.TradeSet, error) {
	if limit <= 0 {
		limit = pageSize
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}, "sort": {"DESC"}}

	items, primaryErr := c.fetchItems(ctx, c.baseURL+"/trades/"+url.PathEscape(address), query)
	if primaryErr != nil {
		altQuery := url.Values{"user": {address}, "limit": {strconv.Itoa(limit)}, "sort": {"DESC"}}

		var altErr error
		items, altErr = c.fetchItems(ctx, c.baseURL+"/trades", altQuery)
		if altErr != nil {
			if isNotFound(primaryErr) || isNotFound(altErr) {
				return &models.TradeSet{Trades: []models.Trade{}}, nil
			}
			return nil, fmt.Errorf("fetch trades for %s: %w", address, primaryErr)
		}
	}

	set := &models.TradeSet{Trades: make([]models.Trade, 0, len(items))}
	for _, item := range items {
		set.Trades = append(set.Trades, normalizeTrade(item, address))
	}
	return set, nil
}

// fetchPaginated walks pages of pageSize until a short page, an empty page,
// or the maxPages cap.
func (c *Client) fetchPaginated(ctx context.Context, endpoint string, query url.Values) ([]map[string]any, error) {
	var all []map[string]any

	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page*pageSize))

		items, err := c.fetchItems(ctx, endpoint, q)
		if err != nil {
			// Pages beyond the first already returned data; a mid-walk
			// failure still fails the whole fetch so we never act on a
			// partial snapshot.
			return nil, err
		}

		all = append(all, items...)
		if len(items) < pageSize {
			break
		}
	}
	return all, nil
}

// fetchItems performs one GET and decodes whichever envelope came back.
func (c *Client) fetchItems(ctx context.Context, endpoint string, query url.Values) ([]map[string]any, error) {
	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", reqURL, err)
	}

	return decodeEnvelope(body)
}

// decodeEnvelope accepts a bare JSON array, or an object wrapping the array
// under "positions", "trades" or "data" (checked in that order).
func decodeEnvelope(body []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		return decodeItems([]byte(trimmed))
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}

	for _, key := range []string{"positions", "trades", "data"} {
		if raw, ok := wrapper[key]; ok {
			return decodeItems(raw)
		}
	}
	return nil, fmt.Errorf("decode response envelope: no recognized list key")
}

// decodeItems unmarshals an array of objects, keeping numbers as
// json.Number so decimal values survive without float drift.
func decodeItems(raw []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	return items, nil
}
