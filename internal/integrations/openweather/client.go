/**
 * @description
 * Client for the OpenWeatherMap current weather API.
 * One request per city, metric units; temperature becomes the reading value.
 *
 * @dependencies
 * - backend/internal/integrations
 * - github.com/shopspring/decimal
 */

package openweather

import (
	"context"
	"net/url"
	"strings"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// DefaultCities are tracked when none are configured.
var DefaultCities = []string{"London", "New York", "Tokyo", "Sydney"}

type Client struct {
	baseURL string
	apiKey  string
	http    *integrations.Client
	cities  []string
}

type currentWeather struct {
	Main *struct {
		Temp     *decimal.Decimal `json:"temp"`
		Humidity *float64         `json:"humidity"`
		Pressure *float64         `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func NewClient(baseURL, apiKey string, http *integrations.Client, cities []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(cities) == 0 {
		cities = DefaultCities
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    http,
		cities:  cities,
	}
}

func (c *Client) SourceType() models.SourceType { return models.SourceWeather }

// Fetch returns current conditions for the configured cities.
func (c *Client) Fetch(ctx context.Context) []integrations.Reading {
	return c.GetCurrent(ctx, c.cities)
}

// GetCurrent requests each city in turn; a failed city does not stop the rest.
func (c *Client) GetCurrent(ctx context.Context, cities []string) []integrations.Reading {
	if len(cities) == 0 {
		cities = c.cities
	}
	if c.apiKey == "" {
		logger.Warn("OpenWeather API key not configured, skipping weather collection")
		return nil
	}

	var readings []integrations.Reading
	for _, city := range cities {
		params := url.Values{}
		params.Set("q", city)
		params.Set("appid", c.apiKey)
		params.Set("units", "metric")

		var resp currentWeather
		if err := c.http.GetJSON(ctx, c.baseURL+"/weather", params, &resp); err != nil {
			logger.Error("OpenWeather: %s: %v", city, err)
			continue
		}
		if resp.Main == nil || resp.Main.Temp == nil {
			logger.Warn("OpenWeather: skipping %s, response has no temperature", city)
			continue
		}

		meta := models.WeatherMetadata{
			Humidity: resp.Main.Humidity,
			Pressure: resp.Main.Pressure,
		}
		if len(resp.Weather) > 0 {
			meta.Description = resp.Weather[0].Description
		}

		readings = append(readings, integrations.Reading{
			Symbol:   city,
			Value:    *resp.Main.Temp,
			Metadata: meta,
		})
	}
	return readings
}
