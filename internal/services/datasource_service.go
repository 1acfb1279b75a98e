/**
 * @description
 * DataSource Service for operator-maintained upstream descriptions.
 * Plain CRUD plus the last_updated stamp written after collections.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/go-playground/validator/v10 (via validateStruct)
 */

package services

import (
	"context"
	"errors"
	"time"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"gorm.io/gorm"
)

const DefaultUpdateIntervalMinutes = 5

// DataSourceInput is a create/update payload. Nil fields are left untouched
// on PATCH and take defaults on create and PUT.
type DataSourceInput struct {
	Name                  *string            `json:"name"`
	SourceType            *models.SourceType `json:"source_type"`
	APIURL                *string            `json:"api_url"`
	APIKeyRequired        *bool              `json:"api_key_required"`
	IsActive              *bool              `json:"is_active"`
	UpdateIntervalMinutes *int               `json:"update_interval_minutes"`
	Symbols               []string           `json:"symbols"`
}

func (in DataSourceInput) apply(ds *models.DataSource) {
	if in.Name != nil {
		ds.Name = *in.Name
	}
	if in.SourceType != nil {
		ds.SourceType = *in.SourceType
	}
	if in.APIURL != nil {
		ds.APIURL = *in.APIURL
	}
	if in.APIKeyRequired != nil {
		ds.APIKeyRequired = *in.APIKeyRequired
	}
	if in.IsActive != nil {
		ds.IsActive = *in.IsActive
	}
	if in.UpdateIntervalMinutes != nil {
		ds.UpdateIntervalMinutes = *in.UpdateIntervalMinutes
	}
	if in.Symbols != nil {
		ds.Symbols = models.StringArray(in.Symbols)
	}
}

func newDataSource(in DataSourceInput) models.DataSource {
	ds := models.DataSource{
		IsActive:              true,
		UpdateIntervalMinutes: DefaultUpdateIntervalMinutes,
		Symbols:               models.StringArray{},
	}
	in.apply(&ds)
	return ds
}

// DataSourceFilter narrows List. Zero values mean "no filter".
type DataSourceFilter struct {
	SourceType models.SourceType
	IsActive   *bool
}

// DataSourceService handles DataSource persistence
type DataSourceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDataSourceService creates a new DataSourceService
func NewDataSourceService(db *gorm.DB) *DataSourceService {
	return &DataSourceService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// List returns data sources ordered by name
func (s *DataSourceService) List(ctx context.Context, f DataSourceFilter) ([]models.DataSource, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if f.SourceType != "" {
		q = q.Where("source_type = ?", f.SourceType)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	sources := []models.DataSource{}
	if err := q.Find(&sources).Error; err != nil {
		logger.Error("DataSourceService: Failed to list data sources: %v", err)
		return nil, err
	}
	return sources, nil
}

func (s *DataSourceService) Get(ctx context.Context, id uint64) (*models.DataSource, error) {
	var ds models.DataSource
	if err := s.db.WithContext(ctx).First(&ds, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ds, nil
}

func (s *DataSourceService) Create(ctx context.Context, in DataSourceInput) (*models.DataSource, error) {
	ds := newDataSource(in)
	if err := validateStruct(&ds); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&ds).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return &ds, nil
}

// Replace is a full update: omitted fields revert to their defaults.
func (s *DataSourceService) Replace(ctx context.Context, id uint64, in DataSourceInput) (*models.DataSource, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ds := newDataSource(in)
	ds.ID = existing.ID
	ds.CreatedAt = existing.CreatedAt
	ds.LastUpdated = existing.LastUpdated
	return s.save(ctx, &ds)
}

// Patch applies only the provided fields.
func (s *DataSourceService) Patch(ctx context.Context, id uint64, in DataSourceInput) (*models.DataSource, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(ds)
	return s.save(ctx, ds)
}

func (s *DataSourceService) save(ctx context.Context, ds *models.DataSource) (*models.DataSource, error) {
	if err := validateStruct(ds); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(ds).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return ds, nil
}

func (s *DataSourceService) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.DataSource{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastUpdated stamps every active source of the given type.
func (s *DataSourceService) TouchLastUpdated(ctx context.Context, sourceType models.SourceType, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.DataSource{}).
		Where("source_type = ? AND is_active = ?", sourceType, true).
		Update("last_updated", at).Error
}

func translateWriteError(err error) error {
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}
