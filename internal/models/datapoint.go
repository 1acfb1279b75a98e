/**
 * @description
 * DataPoint database model.
 * Maps to the 'data_points' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - gorm.io/datatypes
 * - github.com/shopspring/decimal
 *
 * @notes
 * - (timestamp, source_type, symbol) is unique; collection relies on it for idempotence.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ValueScale is the number of fractional digits stored for DataPoint values.
const ValueScale = 8

// DataPoint is a single time-series observation. Rows are written by the
// collector and never mutated afterwards.
type DataPoint struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp  time.Time       `gorm:"column:timestamp;not null;uniqueIndex:idx_data_points_natural_key,priority:1;index:idx_data_points_source_symbol_time,priority:3;index:idx_data_points_source_time,priority:2;index:idx_data_points_time" json:"timestamp"`
	Value      decimal.Decimal `gorm:"column:value;type:numeric(20,8);not null" json:"value"`
	SourceType SourceType      `gorm:"column:source_type;type:varchar(20);not null;uniqueIndex:idx_data_points_natural_key,priority:2;index:idx_data_points_source_symbol_time,priority:1;index:idx_data_points_source_time,priority:1" json:"source_type"`
	Symbol     string          `gorm:"column:symbol;type:varchar(64);not null;uniqueIndex:idx_data_points_natural_key,priority:3;index:idx_data_points_source_symbol_time,priority:2" json:"symbol"`
	Metadata   datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// TableName overrides the table name used by DataPoint to `data_points`
func (DataPoint) TableName() string {
	return "data_points"
}
