package store

import (
	"context"
	"time"

	"tourist-tracker/internal/models"
)

// DashboardStats is the summary block shown on the authority dashboard.
type DashboardStats struct {
	TotalTourists  int64     `json:"total_tourists"`
	ActiveTourists int64     `json:"active_tourists"`
	SosAlerts      int64     `json:"sos_alerts"`
	ResolvedAlerts int64     `json:"resolved_alerts"`
	LastUpdated    time.Time `json:"last_updated"`
}

// GetDashboardStats collects the dashboard counters. Active means a
// position report within the last 24 hours.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := DashboardStats{LastUpdated: time.Now()}
	cutoff := time.Now().Add(-24 * time.Hour)

	ret := s.dbConn.WithContext(ctx).Model(&models.Tourist{}).Count(&stats.TotalTourists)
	if ret.Error != nil {
		return nil, ret.Error
	}

	ret = s.dbConn.WithContext(ctx).Model(&models.Tourist{}).
		Where("timestamp >= ?", cutoff).
		Count(&stats.ActiveTourists)
	if ret.Error != nil {
		return nil, ret.Error
	}

	ret = s.dbConn.WithContext(ctx).Model(&models.Alert{}).
		Where("resolved = ? AND type = ?", false, models.AlertTypeSos).
		Count(&stats.SosAlerts)
	if ret.Error != nil {
		return nil, ret.Error
	}

	ret = s.dbConn.WithContext(ctx).Model(&models.Alert{}).
		Where("resolved = ?", true).
		Count(&stats.ResolvedAlerts)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return &stats, nil
}
