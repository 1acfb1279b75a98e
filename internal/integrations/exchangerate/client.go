/**
 * @description
 * Client for exchangerate-api.com latest rates.
 * A single request returns every rate against the base currency; only the
 * major currencies are kept.
 *
 * @dependencies
 * - backend/internal/integrations
 * - github.com/shopspring/decimal
 */

package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL  = "https://api.exchangerate-api.com/v4/latest"
	DefaultCurrency = "USD"
)

// MajorCurrencies is the allow-list of targets, in output order.
var MajorCurrencies = []string{"EUR", "GBP", "JPY", "AUD", "CAD", "CHF"}

type Client struct {
	baseURL string
	http    *integrations.Client
	base    string
}

type latestRates struct {
	Base  string                     `json:"base"`
	Rates map[string]json.RawMessage `json:"rates"`
}

func NewClient(baseURL string, http *integrations.Client, baseCurrency string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if baseCurrency == "" {
		baseCurrency = DefaultCurrency
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		base:    strings.ToUpper(baseCurrency),
	}
}

func (c *Client) SourceType() models.SourceType { return models.SourceCurrency }

// Fetch returns rates against the configured base currency.
func (c *Client) Fetch(ctx context.Context) []integrations.Reading {
	return c.GetRates(ctx, c.base)
}

// GetRates returns one reading per major currency, symbol "BASE-TARGET".
// The base currency itself is never paired with itself.
func (c *Client) GetRates(ctx context.Context, base string) []integrations.Reading {
	if base == "" {
		base = c.base
	}
	base = strings.ToUpper(base)

	readings, err := c.getRates(ctx, base)
	if err != nil {
		logger.Error("ExchangeRate: %v", err)
		return nil
	}
	return readings
}

func (c *Client) getRates(ctx context.Context, base string) ([]integrations.Reading, error) {
	var resp latestRates
	if err := c.http.GetJSON(ctx, c.baseURL+"/"+base, nil, &resp); err != nil {
		return nil, fmt.Errorf("latest %s: %w", base, err)
	}
	if resp.Rates == nil {
		return nil, fmt.Errorf("latest %s: response has no rates", base)
	}

	var readings []integrations.Reading
	for _, target := range MajorCurrencies {
		if target == base {
			continue
		}
		raw, ok := resp.Rates[target]
		if !ok {
			continue
		}
		var rate decimal.Decimal
		if err := json.Unmarshal(raw, &rate); err != nil {
			logger.Warn("ExchangeRate: skipping %s-%s, malformed rate: %v", base, target, err)
			continue
		}
		readings = append(readings, integrations.Reading{
			Symbol: base + "-" + target,
			Value:  rate,
			Metadata: models.CurrencyMetadata{
				Base:   base,
				Target: target,
			},
		})
	}
	return readings, nil
}
