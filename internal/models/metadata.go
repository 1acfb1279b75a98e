package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Metadata is the source-specific payload attached to a DataPoint.
// Exactly one variant exists per SourceType.
type Metadata interface {
	SourceType() SourceType
}

// CryptoMetadata carries the market figures CoinGecko reports alongside a price.
type CryptoMetadata struct {
	MarketCap *float64 `json:"market_cap"`
	Volume24h *float64 `json:"volume_24h"`
	Change24h *float64 `json:"change_24h"`
}

func (CryptoMetadata) SourceType() SourceType { return SourceCrypto }

// StockMetadata carries the absolute and percent change of a quote.
type StockMetadata struct {
	Change        *decimal.Decimal `json:"change"`
	ChangePercent *decimal.Decimal `json:"change_percent"`
}

func (StockMetadata) SourceType() SourceType { return SourceStock }

// WeatherMetadata carries the non-temperature readings for a city.
type WeatherMetadata struct {
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Description string   `json:"description"`
}

func (WeatherMetadata) SourceType() SourceType { return SourceWeather }

// CurrencyMetadata names both legs of an exchange rate.
type CurrencyMetadata struct {
	Base   string `json:"base"`
	Target string `json:"target"`
}

func (CurrencyMetadata) SourceType() SourceType { return SourceCurrency }

// EncodeMetadata renders m for storage in a jsonb column.
func EncodeMetadata(m Metadata) (datatypes.JSON, error) {
	if m == nil {
		return datatypes.JSON("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s metadata: %w", m.SourceType(), err)
	}
	return datatypes.JSON(b), nil
}

// DecodeMetadata parses raw into the variant owned by st.
func DecodeMetadata(st SourceType, raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var (
		m   Metadata
		err error
	)
	switch st {
	case SourceCrypto:
		var v CryptoMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case SourceStock:
		var v StockMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case SourceWeather:
		var v WeatherMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	case SourceCurrency:
		var v CurrencyMetadata
		err = json.Unmarshal(raw, &v)
		m = v
	default:
		return nil, fmt.Errorf("unknown source type %q", st)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", st, err)
	}
	return m, nil
}
