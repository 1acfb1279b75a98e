package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertCondition is how an Alert compares incoming values to its threshold.
type AlertCondition string

const (
	ConditionAbove      AlertCondition = "above"
	ConditionBelow      AlertCondition = "below"
	ConditionChangeUp   AlertCondition = "change_up"
	ConditionChangeDown AlertCondition = "change_down"
)

// Alert is a stored threshold watch. Nothing evaluates it yet; LastTriggered
// is bookkeeping for a future evaluator.
type Alert struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceType     SourceType      `gorm:"column:source_type;type:varchar(20);not null;index:idx_alerts_source_symbol,priority:1" json:"source_type" validate:"required,oneof=crypto stock weather currency"`
	Symbol         string          `gorm:"column:symbol;type:varchar(64);not null;index:idx_alerts_source_symbol,priority:2" json:"symbol" validate:"required,max=64"`
	Condition      AlertCondition  `gorm:"column:condition;type:varchar(20);not null" json:"condition" validate:"required,oneof=above below change_up change_down"`
	ThresholdValue decimal.Decimal `gorm:"column:threshold_value;type:numeric(20,8);not null" json:"threshold_value"`
	IsActive       bool            `gorm:"column:is_active;not null" json:"is_active"`
	LastTriggered  *time.Time      `gorm:"column:last_triggered" json:"last_triggered"`
	Email          string          `gorm:"column:email;type:varchar(254)" json:"email" validate:"omitempty,email,max=254"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by Alert to `alerts`
func (Alert) TableName() string {
	return "alerts"
}
