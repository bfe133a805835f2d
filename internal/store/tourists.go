package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tourist-tracker/internal/models"
)

// BreachUpdate is the set of tourist fields the sweep writes back after
// evaluating one tourist.
type BreachUpdate struct {
	GeoFenceBreached bool
	CurrentZoneId    *string
	CurrentZoneType  *string
	CurrentZoneName  *string
	BreachTime       *time.Time
}

// TouristsWithPosition returns all tourists that have reported at least
// one position fix.
func (s *Store) TouristsWithPosition(ctx context.Context) ([]models.Tourist, error) {
	tourists := make([]models.Tourist, 0)
	ret := s.dbConn.WithContext(ctx).
		Where("lat IS NOT NULL AND lng IS NOT NULL").
		Find(&tourists)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return tourists, nil
}

// AllTourists returns every tourist record for the dashboard view.
func (s *Store) AllTourists(ctx context.Context) ([]models.Tourist, error) {
	tourists := make([]models.Tourist, 0)
	ret := s.dbConn.WithContext(ctx).Order("created_at DESC").Find(&tourists)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return tourists, nil
}

// FindTourist looks up one tourist by id.
func (s *Store) FindTourist(ctx context.Context, id string) (*models.Tourist, error) {
	tourist := models.Tourist{}
	ret := s.dbConn.WithContext(ctx).Where(&models.Tourist{Id: id}).First(&tourist)
	if errors.Is(ret.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if ret.Error != nil {
		return nil, ret.Error
	}

	return &tourist, nil
}

// FindTouristByToken looks up a tourist by its connection token. Used
// to authenticate companion app requests.
func (s *Store) FindTouristByToken(ctx context.Context, token string) (*models.Tourist, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	tourist := models.Tourist{}
	ret := s.dbConn.WithContext(ctx).Where("connection_token = ?", token).First(&tourist)
	if errors.Is(ret.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if ret.Error != nil {
		return nil, ret.Error
	}

	return &tourist, nil
}

// CreateTourist inserts a new tourist record and returns its id.
func (s *Store) CreateTourist(ctx context.Context, tourist *models.Tourist) (string, error) {
	if tourist.Id == "" {
		tourist.Id = newId()
	}

	ret := s.dbConn.WithContext(ctx).Create(tourist)
	if ret.Error != nil {
		return "", ret.Error
	}

	return tourist.Id, nil
}

// UpdateTouristBreach persists the breach fields decided by the sweep
// for one tourist.
func (s *Store) UpdateTouristBreach(ctx context.Context, id string, upd BreachUpdate) error {
	ret := s.dbConn.WithContext(ctx).Model(&models.Tourist{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"geo_fence_breached": upd.GeoFenceBreached,
			"current_zone_id":    upd.CurrentZoneId,
			"current_zone_type":  upd.CurrentZoneType,
			"current_zone_name":  upd.CurrentZoneName,
			"breach_time":        upd.BreachTime,
		})

	return ret.Error
}

// UpdateTouristLocation records a position report: the tourist's live
// fields plus a history row in [lng, lat] order.
func (s *Store) UpdateTouristLocation(ctx context.Context, id string, lat float64, lng float64, sos bool) error {
	now := time.Now()

	ret := s.dbConn.WithContext(ctx).Model(&models.Tourist{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"lat":       lat,
			"lng":       lng,
			"sos":       sos,
			"timestamp": now,
		})
	if ret.Error != nil {
		return ret.Error
	}

	hist := models.LocationHistory{
		UserId:    id,
		Lng:       lng,
		Lat:       lat,
		Sos:       sos,
		Timestamp: now,
	}
	ret = s.dbConn.WithContext(ctx).Create(&hist)

	return ret.Error
}

// SetTouristSos flips only the SOS flag without touching position data.
func (s *Store) SetTouristSos(ctx context.Context, id string, sos bool) error {
	ret := s.dbConn.WithContext(ctx).Model(&models.Tourist{}).
		Where("id = ?", id).
		Update("sos", sos)

	return ret.Error
}

// SetConnectionToken rotates the connection token for a tourist.
func (s *Store) SetConnectionToken(ctx context.Context, id string, token string) error {
	now := time.Now()
	ret := s.dbConn.WithContext(ctx).Model(&models.Tourist{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"connection_token":   token,
			"token_generated_at": now,
		})

	return ret.Error
}

// LocationHistoryFor returns the newest position reports for a tourist,
// capped at limit.
func (s *Store) LocationHistoryFor(ctx context.Context, userId string, limit int) ([]models.LocationHistory, error) {
	if limit <= 0 {
		limit = 100
	}

	hist := make([]models.LocationHistory, 0)
	ret := s.dbConn.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("timestamp DESC").
		Limit(limit).
		Find(&hist)
	if ret.Error != nil {
		return nil, ret.Error
	}

	return hist, nil
}
