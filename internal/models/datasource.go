/**
 * @description
 * DataSource database model.
 * Operator-maintained description of a pollable upstream.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// DataSource describes an upstream API and the symbols tracked on it.
// IsActive and UpdateIntervalMinutes are stored for operators; the collector
// does not gate on them.
type DataSource struct {
	ID                    uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                  string      `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name" validate:"required,max=100"`
	SourceType            SourceType  `gorm:"column:source_type;type:varchar(20);not null;index" json:"source_type" validate:"required,oneof=crypto stock weather currency"`
	APIURL                string      `gorm:"column:api_url;type:varchar(500);not null" json:"api_url" validate:"required,url,max=500"`
	APIKeyRequired        bool        `gorm:"column:api_key_required;not null" json:"api_key_required"`
	IsActive              bool        `gorm:"column:is_active;not null;index" json:"is_active"`
	UpdateIntervalMinutes int         `gorm:"column:update_interval_minutes;not null" json:"update_interval_minutes" validate:"gte=1"`
	Symbols               StringArray `gorm:"column:symbols;type:text[]" json:"symbols" validate:"dive,required,max=64"`
	LastUpdated           *time.Time  `gorm:"column:last_updated" json:"last_updated"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by DataSource to `data_sources`
func (DataSource) TableName() string {
	return "data_sources"
}
