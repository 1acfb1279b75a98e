package scheduler

import (
	"github.com/datadash-project/backend/internal/config"
	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/integrations/alphavantage"
	"github.com/datadash-project/backend/internal/integrations/coingecko"
	"github.com/datadash-project/backend/internal/integrations/exchangerate"
	"github.com/datadash-project/backend/internal/integrations/openweather"
)

// NewFetchers builds the four upstream fetchers over one shared HTTP client.
func NewFetchers(cfg *config.Config) []integrations.Fetcher {
	p := cfg.Providers
	c := cfg.Collector
	client := integrations.NewClient(integrations.ClientOptions{
		Timeout:   p.RequestTimeout,
		UserAgent: p.UserAgent,
	})

	return []integrations.Fetcher{
		coingecko.NewClient(p.CoinGeckoURL, client, c.CryptoIDs),
		alphavantage.NewClient(p.AlphaVantageURL, p.AlphaVantageAPIKey, client, c.StockSymbols),
		openweather.NewClient(p.OpenWeatherURL, p.OpenWeatherAPIKey, client, c.WeatherCities),
		exchangerate.NewClient(p.ExchangeRateURL, client, c.BaseCurrency),
	}
}
