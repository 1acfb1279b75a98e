/**
 * @description
 * Alert Service for stored threshold watches.
 * Alerts are only persisted; nothing evaluates them.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertInput is a create/update payload. Nil fields are left untouched on PATCH.
type AlertInput struct {
	SourceType     *models.SourceType     `json:"source_type"`
	Symbol         *string                `json:"symbol"`
	Condition      *models.AlertCondition `json:"condition"`
	ThresholdValue *decimal.Decimal       `json:"threshold_value"`
	IsActive       *bool                  `json:"is_active"`
	Email          *string                `json:"email"`
}

func (in AlertInput) apply(a *models.Alert) {
	if in.SourceType != nil {
		a.SourceType = *in.SourceType
	}
	if in.Symbol != nil {
		a.Symbol = *in.Symbol
	}
	if in.Condition != nil {
		a.Condition = *in.Condition
	}
	if in.ThresholdValue != nil {
		a.ThresholdValue = in.ThresholdValue.Round(models.ValueScale)
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
}

func newAlert(in AlertInput) (models.Alert, error) {
	if in.ThresholdValue == nil {
		return models.Alert{}, fmt.Errorf("%w: threshold_value: required", ErrInvalidInput)
	}
	a := models.Alert{IsActive: true}
	in.apply(&a)
	return a, nil
}

// AlertFilter narrows List. Zero values mean "no filter".
type AlertFilter struct {
	SourceType models.SourceType
	Symbol     string
	IsActive   *bool
}

// AlertService handles Alert persistence
type AlertService struct {
	db *gorm.DB
}

// NewAlertService creates a new AlertService
func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

// List returns alerts newest first
func (s *AlertService) List(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if f.SourceType != "" {
		q = q.Where("source_type = ?", f.SourceType)
	}
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	alerts := []models.Alert{}
	if err := q.Find(&alerts).Error; err != nil {
		logger.Error("AlertService: Failed to list alerts: %v", err)
		return nil, err
	}
	return alerts, nil
}

func (s *AlertService) Get(ctx context.Context, id uint64) (*models.Alert, error) {
	var a models.Alert
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *AlertService) Create(ctx context.Context, in AlertInput) (*models.Alert, error) {
	a, err := newAlert(in)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&a); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Replace is a full update; threshold_value is required.
func (s *AlertService) Replace(ctx context.Context, id uint64, in AlertInput) (*models.Alert, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a, err := newAlert(in)
	if err != nil {
		return nil, err
	}
	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.LastTriggered = existing.LastTriggered
	return s.save(ctx, &a)
}

func (s *AlertService) Patch(ctx context.Context, id uint64, in AlertInput) (*models.Alert, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(a)
	return s.save(ctx, a)
}

func (s *AlertService) save(ctx context.Context, a *models.Alert) (*models.Alert, error) {
	if err := validateStruct(a); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AlertService) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Alert{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
