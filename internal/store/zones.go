package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tourist-tracker/internal/models"
)

// ActiveZones returns all zones still in force, newest first. The sweep
// takes this as its read-only snapshot for one pass.
func (s *Store) ActiveZones(ctx context.Context) ([]models.Zone, error) {
	zones := make([]models.Zone, 0)
	ret := s.dbConn.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&zones)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return zones, nil
}

// CreateZone inserts a new zone and returns its id.
func (s *Store) CreateZone(ctx context.Context, zone *models.Zone) (string, error) {
	if zone.Id == "" {
		zone.Id = newId()
	}
	zone.IsActive = true

	ret := s.dbConn.WithContext(ctx).Create(zone)
	if ret.Error != nil {
		return "", ret.Error
	}

	return zone.Id, nil
}

// ZoneUpdate carries the mutable zone fields; nil fields are left as is.
type ZoneUpdate struct {
	Name        *string
	Type        *string
	Description *string
	Coordinates [][2]float64
	UpdatedBy   string
}

// UpdateZone applies a partial update to a zone. Read-modify-save keeps
// the coordinate serializer in the write path.
func (s *Store) UpdateZone(ctx context.Context, id string, upd ZoneUpdate) error {
	zone := models.Zone{}
	ret := s.dbConn.WithContext(ctx).Where(&models.Zone{Id: id}).First(&zone)
	if errors.Is(ret.Error, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if ret.Error != nil {
		return ret.Error
	}

	if upd.Name != nil {
		zone.Name = *upd.Name
	}
	if upd.Type != nil {
		zone.Type = *upd.Type
	}
	if upd.Description != nil {
		zone.Description = *upd.Description
	}
	if upd.Coordinates != nil {
		zone.Coordinates = upd.Coordinates
	}
	if upd.UpdatedBy != "" {
		zone.UpdatedBy = upd.UpdatedBy
	}
	zone.UpdatedAt = time.Now()

	ret = s.dbConn.WithContext(ctx).Save(&zone)

	return ret.Error
}

// DeactivateZone soft-deletes a zone. Inactive zones are excluded from
// breach evaluation but keep their history.
func (s *Store) DeactivateZone(ctx context.Context, id string, updatedBy string) error {
	upd := map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}
	if updatedBy != "" {
		upd["updated_by"] = updatedBy
	}

	ret := s.dbConn.WithContext(ctx).Model(&models.Zone{}).
		Where("id = ?", id).
		Updates(upd)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// FindZone looks up one zone by id regardless of its active flag.
func (s *Store) FindZone(ctx context.Context, id string) (*models.Zone, error) {
	zone := models.Zone{}
	ret := s.dbConn.WithContext(ctx).Where(&models.Zone{Id: id}).First(&zone)
	if errors.Is(ret.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if ret.Error != nil {
		return nil, ret.Error
	}

	return &zone, nil
}
