package integrations

import (
	"context"

	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Reading is one normalized upstream observation, before it becomes a DataPoint.
type Reading struct {
	Symbol   string
	Value    decimal.Decimal
	Metadata models.Metadata
}

// Fetcher pulls the configured symbols from one upstream.
// Fetch never fails: upstream problems are logged and yield no readings.
type Fetcher interface {
	SourceType() models.SourceType
	Fetch(ctx context.Context) []Reading
}
