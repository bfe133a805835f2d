package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tourist-tracker/internal/models"
)

// NewAlert describes an alert to be opened.
type NewAlert struct {
	UserId   string
	Type     string
	Severity string
	Lat      float64
	Lng      float64
}

// CreateAlert inserts a new unresolved alert and returns its id.
// Deduplication against already-open alerts is the caller's job; the
// breach state machine checks FindUnresolvedAlert before opening.
func (s *Store) CreateAlert(ctx context.Context, in NewAlert) (string, error) {
	alert := models.Alert{
		Id:        newId(),
		UserId:    in.UserId,
		Type:      in.Type,
		Severity:  in.Severity,
		Lat:       in.Lat,
		Lng:       in.Lng,
		Timestamp: time.Now(),
		Resolved:  false,
	}

	ret := s.dbConn.WithContext(ctx).Create(&alert)
	if ret.Error != nil {
		return "", ret.Error
	}

	return alert.Id, nil
}

// FindUnresolvedAlert returns one open alert of the given type for a
// tourist, or nil when none exists.
func (s *Store) FindUnresolvedAlert(ctx context.Context, userId string, alertType string) (*models.Alert, error) {
	alert := models.Alert{}
	ret := s.dbConn.WithContext(ctx).
		Where("user_id = ? AND type = ? AND resolved = ?", userId, alertType, false).
		First(&alert)
	if errors.Is(ret.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if ret.Error != nil {
		return nil, ret.Error
	}

	return &alert, nil
}

// ResolveUnresolvedAlerts closes every open alert of the given type for
// a tourist and returns how many were affected. Resolving in bulk also
// repairs any duplicates a race may have left behind.
func (s *Store) ResolveUnresolvedAlerts(ctx context.Context, userId string, alertType string, resolvedBy *string) (int64, error) {
	now := time.Now()
	ret := s.dbConn.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND type = ? AND resolved = ?", userId, alertType, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if ret.Error != nil {
		return 0, ret.Error
	}

	return ret.RowsAffected, nil
}

// ResolveAlert closes a single alert by id, recording who resolved it.
func (s *Store) ResolveAlert(ctx context.Context, alertId string, resolvedBy string) error {
	now := time.Now()
	ret := s.dbConn.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ?", alertId).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAlert hard-deletes an alert record.
func (s *Store) DeleteAlert(ctx context.Context, alertId string) error {
	ret := s.dbConn.WithContext(ctx).Delete(&models.Alert{}, "id = ?", alertId)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ActiveAlerts returns all unresolved alerts, newest first.
func (s *Store) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)
	ret := s.dbConn.WithContext(ctx).
		Where("resolved = ?", false).
		Order("timestamp DESC").
		Find(&alerts)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return alerts, nil
}
