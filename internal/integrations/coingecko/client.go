/**
 * @description
 * Client for the CoinGecko simple price API.
 * Fetches USD price, market cap, 24h volume and 24h change for a batch of coins
 * in a single request.
 *
 * @dependencies
 * - backend/internal/integrations
 * - github.com/shopspring/decimal
 */

package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// DefaultIDs are the coins tracked when none are configured.
var DefaultIDs = []string{"bitcoin", "ethereum", "cardano", "polkadot"}

type Client struct {
	baseURL string
	http    *integrations.Client
	ids     []string
}

// coinQuote is one entry of the simple/price response.
type coinQuote struct {
	USD       *decimal.Decimal `json:"usd"`
	MarketCap *float64         `json:"usd_market_cap"`
	Volume24h *float64         `json:"usd_24h_vol"`
	Change24h *float64         `json:"usd_24h_change"`
}

func NewClient(baseURL string, http *integrations.Client, ids []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(ids) == 0 {
		ids = DefaultIDs
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		ids:     ids,
	}
}

func (c *Client) SourceType() models.SourceType { return models.SourceCrypto }

// Fetch returns prices for the configured coins.
func (c *Client) Fetch(ctx context.Context) []integrations.Reading {
	return c.GetPrices(ctx, c.ids)
}

// GetPrices fetches ids in one batch. Coins without a USD price are skipped.
func (c *Client) GetPrices(ctx context.Context, ids []string) []integrations.Reading {
	if len(ids) == 0 {
		ids = c.ids
	}

	readings, err := c.getPrices(ctx, ids)
	if err != nil {
		logger.Error("CoinGecko: %v", err)
		return nil
	}
	return readings
}

func (c *Client) getPrices(ctx context.Context, ids []string) ([]integrations.Reading, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")

	var raw map[string]json.RawMessage
	if err := c.http.GetJSON(ctx, c.baseURL+"/simple/price", params, &raw); err != nil {
		return nil, fmt.Errorf("simple price: %w", err)
	}

	coins := make([]string, 0, len(raw))
	for id := range raw {
		coins = append(coins, id)
	}
	sort.Strings(coins)

	readings := make([]integrations.Reading, 0, len(coins))
	for _, id := range coins {
		var q coinQuote
		if err := json.Unmarshal(raw[id], &q); err != nil {
			logger.Warn("CoinGecko: skipping %s, malformed entry: %v", id, err)
			continue
		}
		if q.USD == nil {
			continue
		}
		readings = append(readings, integrations.Reading{
			Symbol: strings.ToUpper(id),
			Value:  *q.USD,
			Metadata: models.CryptoMetadata{
				MarketCap: q.MarketCap,
				Volume24h: q.Volume24h,
				Change24h: q.Change24h,
			},
		})
	}
	return readings, nil
}
