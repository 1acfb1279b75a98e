package models

import (
	"fmt"
	"strings"
)

// SourceType is the closed set of data domains a DataPoint can belong to.
type SourceType string

const (
	SourceCrypto   SourceType = "crypto"
	SourceStock    SourceType = "stock"
	SourceWeather  SourceType = "weather"
	SourceCurrency SourceType = "currency"
)

// AllSourceTypes lists every source type in collection order.
var AllSourceTypes = []SourceType{SourceCrypto, SourceStock, SourceWeather, SourceCurrency}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceCrypto, SourceStock, SourceWeather, SourceCurrency:
		return true
	}
	return false
}

func (s SourceType) String() string { return string(s) }

// ParseSourceType normalizes and validates a source type name.
func ParseSourceType(v string) (SourceType, error) {
	s := SourceType(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source type %q", v)
	}
	return s, nil
}
