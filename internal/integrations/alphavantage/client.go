/**
 * @description
 * Client for the Alpha Vantage GLOBAL_QUOTE endpoint.
 * There is no batch endpoint, so each symbol costs one request.
 *
 * @dependencies
 * - backend/internal/integrations
 * - github.com/shopspring/decimal
 *
 * @notes
 * - Without an API key the client logs a warning and returns nothing.
 * - Rate-limit responses arrive as HTTP 200 with a "Note"/"Information" field
 *   and no quote; those symbols are skipped.
 */

package alphavantage

import (
	"context"
	"net/url"
	"strings"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://www.alphavantage.co/query"

// DefaultSymbols are the tickers tracked when none are configured.
var DefaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "TSLA"}

type Client struct {
	baseURL string
	apiKey  string
	http    *integrations.Client
	symbols []string
}

type globalQuoteResponse struct {
	Quote       *globalQuote `json:"Global Quote"`
	Note        string       `json:"Note"`
	Information string       `json:"Information"`
}

type globalQuote struct {
	Price         string `json:"05. price"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

func NewClient(baseURL, apiKey string, http *integrations.Client, symbols []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    http,
		symbols: symbols,
	}
}

func (c *Client) SourceType() models.SourceType { return models.SourceStock }

// Fetch returns quotes for the configured symbols.
func (c *Client) Fetch(ctx context.Context) []integrations.Reading {
	return c.GetQuotes(ctx, c.symbols)
}

// GetQuotes requests each symbol in turn; a failed symbol does not stop the rest.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) []integrations.Reading {
	if len(symbols) == 0 {
		symbols = c.symbols
	}
	if c.apiKey == "" {
		logger.Warn("Alpha Vantage API key not configured, skipping stock collection")
		return nil
	}

	var readings []integrations.Reading
	for _, symbol := range symbols {
		r, ok := c.getQuote(ctx, symbol)
		if ok {
			readings = append(readings, r)
		}
	}
	return readings
}

func (c *Client) getQuote(ctx context.Context, symbol string) (integrations.Reading, bool) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	var resp globalQuoteResponse
	if err := c.http.GetJSON(ctx, c.baseURL, params, &resp); err != nil {
		logger.Error("Alpha Vantage: quote %s: %v", symbol, err)
		return integrations.Reading{}, false
	}
	if resp.Quote == nil {
		if msg := resp.Note + resp.Information; msg != "" {
			logger.Warn("Alpha Vantage: no quote for %s: %s", symbol, msg)
		}
		return integrations.Reading{}, false
	}

	q := resp.Quote
	if q.Price == "" {
		return integrations.Reading{}, false
	}
	price, err := decimal.NewFromString(strings.TrimSpace(q.Price))
	if err != nil {
		logger.Warn("Alpha Vantage: skipping %s, bad price %q", symbol, q.Price)
		return integrations.Reading{}, false
	}

	return integrations.Reading{
		Symbol: symbol,
		Value:  price,
		Metadata: models.StockMetadata{
			Change:        parseOptionalDecimal(q.Change),
			ChangePercent: parseOptionalDecimal(strings.TrimSuffix(strings.TrimSpace(q.ChangePercent), "%")),
		},
	}, true
}

// parseOptionalDecimal returns nil for blank or unparsable input.
func parseOptionalDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
