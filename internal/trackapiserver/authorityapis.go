package trackapiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"tourist-tracker/internal/breach"
	"tourist-tracker/internal/models"
	"tourist-tracker/internal/store"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

// TouristExtView represents the external view of a tourist for API responses
type TouristExtView struct {
	Id               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Lat              *float64   `json:"lat"`
	Lng              *float64   `json:"lng"`
	Sos              bool       `json:"sos"`
	Timestamp        *time.Time `json:"timestamp"`
	GeoFenceBreached bool       `json:"geo_fence_breached"`
	CurrentZoneType  *string    `json:"current_zone_type"`
	CurrentZoneName  *string    `json:"current_zone_name"`
	BreachTime       *time.Time `json:"breach_time"`
}

func (e *TouristExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *TrackApiServer) apiTouristRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiTouristGetAll)

	return r
}

func (s *TrackApiServer) apiTouristGetAll(w http.ResponseWriter, r *http.Request) {
	tourists, err := s.db.AllTourists(r.Context())
	if err != nil {
		log.Printf("apiTouristGetAll: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for _, t := range tourists {
		o := &TouristExtView{
			Id:               t.Id,
			Name:             t.Name,
			Email:            t.Email,
			Lat:              t.Lat,
			Lng:              t.Lng,
			Sos:              t.Sos,
			Timestamp:        t.Timestamp,
			GeoFenceBreached: t.GeoFenceBreached,
			CurrentZoneType:  t.CurrentZoneType,
			CurrentZoneName:  t.CurrentZoneName,
			BreachTime:       t.BreachTime,
		}

		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
	return
}

// LocationHistoryExtView represents one history row for API responses
type LocationHistoryExtView struct {
	Lng       float64   `json:"lng"`
	Lat       float64   `json:"lat"`
	Sos       bool      `json:"sos"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *LocationHistoryExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *TrackApiServer) apiUserIdCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "userid")
		if key == "" {
			render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("missing userid param")))
			return
		}

		ctx := context.WithValue(r.Context(), "userid", key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *TrackApiServer) apiLocationHistoryRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/{userid}", func(r chi.Router) {
		r.Use(s.apiUserIdCtx)
		r.Get("/", s.apiLocationHistoryGet)
	})

	return r
}

func (s *TrackApiServer) apiLocationHistoryGet(w http.ResponseWriter, r *http.Request) {
	userId := getCtxValueString(r.Context(), "userid")

	hist, err := s.db.LocationHistoryFor(r.Context(), userId, 100)
	if err != nil {
		log.Printf("apiLocationHistoryGet: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for _, h := range hist {
		outs = append(outs, &LocationHistoryExtView{
			Lng:       h.Lng,
			Lat:       h.Lat,
			Sos:       h.Sos,
			Timestamp: h.Timestamp,
		})
	}

	render.RenderList(w, r, outs)
	return
}

// ZoneExtView represents the external view of a zone for API responses
type ZoneExtView struct {
	Id          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Coordinates [][2]float64 `json:"coordinates"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (e *ZoneExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// ZoneInput is the create/update payload for zones.
type ZoneInput struct {
	Id          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Coordinates [][2]float64 `json:"coordinates"`
}

func validZoneType(t string) bool {
	switch t {
	case models.ZoneTypeGreen, models.ZoneTypeYellow, models.ZoneTypeRed:
		return true
	}
	return false
}

func (s *TrackApiServer) apiZoneRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiZoneGetAll)
	r.Post("/", s.apiZoneCreate)
	r.Put("/", s.apiZoneUpdate)
	r.Delete("/", s.apiZoneDelete)

	return r
}

func (s *TrackApiServer) apiZoneGetAll(w http.ResponseWriter, r *http.Request) {
	zones, err := s.db.ActiveZones(r.Context())
	if err != nil {
		log.Printf("apiZoneGetAll: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for _, z := range zones {
		o := &ZoneExtView{
			Id:          z.Id,
			Name:        z.Name,
			Type:        z.Type,
			Description: z.Description,
			Coordinates: z.Coordinates,
			CreatedAt:   z.CreatedAt,
		}

		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
	return
}

func (s *TrackApiServer) apiZoneCreate(w http.ResponseWriter, r *http.Request) {
	in := ZoneInput{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid zone payload")))
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" || in.Type == "" || in.Description == "" || in.Coordinates == nil {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("missing required fields: name, type, description, coordinates")))
		return
	}
	if !validZoneType(in.Type) {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid zone type, must be green, yellow or red")))
		return
	}
	if len(in.Coordinates) < 3 {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("coordinates must contain at least 3 points")))
		return
	}

	zone := models.Zone{
		Name:        in.Name,
		Type:        in.Type,
		Description: in.Description,
		Coordinates: in.Coordinates,
		CreatedBy:   authorityName(r),
	}

	id, err := s.db.CreateZone(r.Context(), &zone)
	if err != nil {
		log.Printf("apiZoneCreate: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to create zone")))
		return
	}

	log.Printf("apiZoneCreate: created zone %s (%s, %s)", id, zone.Name, zone.Type)

	render.Status(r, http.StatusCreated)
	render.Render(w, r, &ZoneExtView{
		Id:          zone.Id,
		Name:        zone.Name,
		Type:        zone.Type,
		Description: zone.Description,
		Coordinates: zone.Coordinates,
		CreatedAt:   zone.CreatedAt,
	})
	return
}

func (s *TrackApiServer) apiZoneUpdate(w http.ResponseWriter, r *http.Request) {
	in := ZoneInput{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid zone payload")))
		return
	}

	if in.Id == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("zone id is required")))
		return
	}
	if in.Type != "" && !validZoneType(in.Type) {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid zone type, must be green, yellow or red")))
		return
	}
	if in.Coordinates != nil && len(in.Coordinates) < 3 {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("coordinates must contain at least 3 points")))
		return
	}

	upd := store.ZoneUpdate{
		Coordinates: in.Coordinates,
		UpdatedBy:   authorityName(r),
	}
	if in.Name != "" {
		name := strings.TrimSpace(in.Name)
		upd.Name = &name
	}
	if in.Type != "" {
		upd.Type = &in.Type
	}
	if in.Description != "" {
		desc := strings.TrimSpace(in.Description)
		upd.Description = &desc
	}

	err = s.db.UpdateZone(r.Context(), in.Id, upd)
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}
	if err != nil {
		log.Printf("apiZoneUpdate: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to update zone")))
		return
	}

	log.Printf("apiZoneUpdate: updated zone %s", in.Id)

	w.WriteHeader(http.StatusOK)
	w.Write(nil)
	return
}

func (s *TrackApiServer) apiZoneDelete(w http.ResponseWriter, r *http.Request) {
	zoneId := r.URL.Query().Get("id")
	if zoneId == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("zone id is required")))
		return
	}

	err := s.db.DeactivateZone(r.Context(), zoneId, authorityName(r))
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}
	if err != nil {
		log.Printf("apiZoneDelete: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to delete zone")))
		return
	}

	log.Printf("apiZoneDelete: deactivated zone %s", zoneId)

	w.WriteHeader(http.StatusOK)
	w.Write(nil)
	return
}

// AlertExtView represents the external view of an alert for API responses
type AlertExtView struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AlertExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *TrackApiServer) apiAlertRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.apiAlertGetActive)
	r.Post("/resolve", s.apiAlertResolve)
	r.Put("/", s.apiAlertCreate)
	r.Delete("/", s.apiAlertDelete)

	return r
}

func (s *TrackApiServer) apiAlertGetActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.db.ActiveAlerts(r.Context())
	if err != nil {
		log.Printf("apiAlertGetActive: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	outs := []render.Renderer{}
	for _, a := range alerts {
		o := &AlertExtView{
			Id:        a.Id,
			UserId:    a.UserId,
			Type:      a.Type,
			Severity:  a.Severity,
			Lat:       a.Lat,
			Lng:       a.Lng,
			Timestamp: a.Timestamp,
		}

		outs = append(outs, o)
	}

	render.RenderList(w, r, outs)
	return
}

func (s *TrackApiServer) apiAlertResolve(w http.ResponseWriter, r *http.Request) {
	in := struct {
		AlertId string `json:"alert_id"`
	}{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil || in.AlertId == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("alert id is required")))
		return
	}

	err = s.db.ResolveAlert(r.Context(), in.AlertId, authorityName(r))
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}
	if err != nil {
		log.Printf("apiAlertResolve: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to resolve alert")))
		return
	}

	log.Printf("apiAlertResolve: alert %s resolved", in.AlertId)

	w.WriteHeader(http.StatusOK)
	w.Write(nil)
	return
}

func validAlertPayload(alertType string, severity string, lat float64, lng float64) bool {
	switch alertType {
	case models.AlertTypeSos, models.AlertTypeGeofence, models.AlertTypeAnomaly:
	default:
		return false
	}

	switch severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		return false
	}

	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (s *TrackApiServer) apiAlertCreate(w http.ResponseWriter, r *http.Request) {
	in := struct {
		UserId   string  `json:"user_id"`
		Type     string  `json:"type"`
		Severity string  `json:"severity"`
		Lat      float64 `json:"lat"`
		Lng      float64 `json:"lng"`
	}{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil || in.UserId == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("user id, type, severity and location are required")))
		return
	}

	if !validAlertPayload(in.Type, in.Severity, in.Lat, in.Lng) {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid alert payload")))
		return
	}

	id, err := s.db.CreateAlert(r.Context(), store.NewAlert{
		UserId:   in.UserId,
		Type:     in.Type,
		Severity: in.Severity,
		Lat:      in.Lat,
		Lng:      in.Lng,
	})
	if err != nil {
		log.Printf("apiAlertCreate: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to create alert")))
		return
	}

	log.Printf("apiAlertCreate: alert %s created by authority", id)

	render.Status(r, http.StatusCreated)
	render.Render(w, r, &AlertExtView{Id: id, UserId: in.UserId, Type: in.Type, Severity: in.Severity, Lat: in.Lat, Lng: in.Lng})
	return
}

func (s *TrackApiServer) apiAlertDelete(w http.ResponseWriter, r *http.Request) {
	in := struct {
		AlertId string `json:"alert_id"`
	}{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil || in.AlertId == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("alert id is required")))
		return
	}

	err = s.db.DeleteAlert(r.Context(), in.AlertId)
	if errors.Is(err, store.ErrNotFound) {
		render.Render(w, r, s.httpErrNotFound(err))
		return
	}
	if err != nil {
		log.Printf("apiAlertDelete: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to delete alert")))
		return
	}

	log.Printf("apiAlertDelete: alert %s deleted", in.AlertId)

	w.WriteHeader(http.StatusOK)
	w.Write(nil)
	return
}

// StatsExtView wraps the dashboard counters for API responses
type StatsExtView struct {
	*store.DashboardStats
}

func (e *StatsExtView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *TrackApiServer) apiDashboardRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", s.apiDashboardStats)

	return r
}

func (s *TrackApiServer) apiDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDashboardStats(r.Context())
	if err != nil {
		log.Printf("apiDashboardStats: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	render.Render(w, r, &StatsExtView{stats})
	return
}

// SweepResultView wraps sweep aggregates for API responses
type SweepResultView struct {
	*breach.Result
}

func (e *SweepResultView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *TrackApiServer) apiRunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.sweeper.Run(r.Context())
	if errors.Is(err, breach.ErrSweepInProgress) {
		render.Render(w, r, s.httpErrConflict(err))
		return
	}
	if err != nil {
		log.Printf("apiRunSweep: sweep failed (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("breach detection sweep failed")))
		return
	}

	render.Render(w, r, &SweepResultView{result})
	return
}

func (s *TrackApiServer) apiGenerateToken(w http.ResponseWriter, r *http.Request) {
	in := struct {
		TouristId string `json:"tourist_id"`
	}{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil || in.TouristId == "" {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("tourist id is required")))
		return
	}

	if _, err := s.db.FindTourist(r.Context(), in.TouristId); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			render.Render(w, r, s.httpErrNotFound(err))
			return
		}
		log.Printf("apiGenerateToken: Failed to query DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to get data from backend")))
		return
	}

	token := store.NewToken()
	err = s.db.SetConnectionToken(r.Context(), in.TouristId, token)
	if err != nil {
		log.Printf("apiGenerateToken: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to store token")))
		return
	}

	log.Printf("apiGenerateToken: rotated connection token for tourist %s", in.TouristId)

	render.JSON(w, r, map[string]string{"connection_token": token})
	return
}

// authorityName identifies the acting operator from basic auth
// credentials; empty when basic auth is disabled.
func authorityName(r *http.Request) string {
	user, _, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	return user
}
