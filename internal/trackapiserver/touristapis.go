package trackapiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"tourist-tracker/internal/geo"
	"tourist-tracker/internal/models"
	"tourist-tracker/internal/store"

	"github.com/go-chi/render"
)

type touristCtxKey struct{}

// touristTokenCtx authenticates companion app requests by the bearer
// connection token issued via /generate-token.
func (s *TrackApiServer) touristTokenCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			render.Render(w, r, s.httpErrUnauthorized(fmt.Errorf("no token provided")))
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		tourist, err := s.db.FindTouristByToken(r.Context(), token)
		if err != nil {
			render.Render(w, r, s.httpErrUnauthorized(fmt.Errorf("invalid connection token")))
			return
		}

		ctx := context.WithValue(r.Context(), touristCtxKey{}, tourist)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCtxTourist(ctx context.Context) *models.Tourist {
	ret := ctx.Value(touristCtxKey{})
	if ret == nil {
		return nil
	}

	return ret.(*models.Tourist)
}

// LocationInput is the position report payload from the companion app.
type LocationInput struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Sos bool    `json:"sos"`
}

func (s *TrackApiServer) apiLocationPost(w http.ResponseWriter, r *http.Request) {
	tourist := getCtxTourist(r.Context())
	if tourist == nil {
		render.Render(w, r, s.httpErrUnauthorized(fmt.Errorf("no tourist in context")))
		return
	}

	if !s.limiter.Allow(r.Context(), tourist.Id) {
		render.Render(w, r, s.httpErrTooManyRequests(fmt.Errorf("location update rate exceeded")))
		return
	}

	in := LocationInput{}
	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid location payload")))
		return
	}

	p := geo.Point{Lng: in.Lng, Lat: in.Lat}
	if !p.Valid() {
		render.Render(w, r, s.httpErrInvalidRequest(fmt.Errorf("invalid coordinates")))
		return
	}

	err = s.db.UpdateTouristLocation(r.Context(), tourist.Id, in.Lat, in.Lng, in.Sos)
	if err != nil {
		log.Printf("apiLocationPost: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to update location")))
		return
	}

	log.Printf("apiLocationPost: location updated for tourist %s (%f, %f, sos %v)", tourist.Id, in.Lat, in.Lng, in.Sos)

	w.WriteHeader(http.StatusOK)
	w.Write(nil)
	return
}

func (s *TrackApiServer) apiSosPost(w http.ResponseWriter, r *http.Request) {
	tourist := getCtxTourist(r.Context())
	if tourist == nil {
		render.Render(w, r, s.httpErrUnauthorized(fmt.Errorf("no tourist in context")))
		return
	}

	// Fall back to origin when the tourist never reported a fix; the
	// alert still has to go out.
	var lat, lng float64
	if tourist.Lat != nil && tourist.Lng != nil {
		lat, lng = *tourist.Lat, *tourist.Lng
	}

	err := s.db.UpdateTouristLocation(r.Context(), tourist.Id, lat, lng, true)
	if err != nil {
		log.Printf("apiSosPost: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to update sos status")))
		return
	}

	alertId, err := s.db.CreateAlert(r.Context(), store.NewAlert{
		UserId:   tourist.Id,
		Type:     models.AlertTypeSos,
		Severity: models.SeverityHigh,
		Lat:      lat,
		Lng:      lng,
	})
	if err != nil {
		log.Printf("apiSosPost: Failed to create alert (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to create sos alert")))
		return
	}

	log.Printf("apiSosPost: SOS activated for tourist %s at (%f, %f), alert %s", tourist.Id, lat, lng, alertId)

	render.JSON(w, r, map[string]interface{}{"sos": true, "alert_id": alertId})
	return
}

func (s *TrackApiServer) apiToggleSosPost(w http.ResponseWriter, r *http.Request) {
	tourist := getCtxTourist(r.Context())
	if tourist == nil {
		render.Render(w, r, s.httpErrUnauthorized(fmt.Errorf("no tourist in context")))
		return
	}

	// Flip the flag only; no alert is opened here.
	next := !tourist.Sos
	err := s.db.SetTouristSos(r.Context(), tourist.Id, next)
	if err != nil {
		log.Printf("apiToggleSosPost: Failed to write DB (%v)", err)
		render.Render(w, r, s.httpErrUnexpected(fmt.Errorf("failed to toggle sos status")))
		return
	}

	log.Printf("apiToggleSosPost: tourist %s toggled SOS to %v", tourist.Id, next)

	render.JSON(w, r, map[string]bool{"sos": next})
	return
}
