package trackapiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tourist-tracker/internal/breach"
	"tourist-tracker/internal/models"
	"tourist-tracker/internal/ratelimit"
	"tourist-tracker/internal/store"
)

func newTestServer(t *testing.T, rl ratelimit.Config) (*TrackApiServer, *httptest.Server) {
	t.Helper()

	cfg := Config{}
	cfg.Db.Driver = "sqlite"
	cfg.Db.Sqlite.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.RateLimit = rl

	db, err := store.New(cfg.Db)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}

	s := &TrackApiServer{
		cfg:     cfg,
		db:      db,
		sweeper: breach.New(db, 2, time.Second),
		limiter: ratelimit.New(cfg.RateLimit),
	}

	srv := httptest.NewServer(s.router())
	t.Cleanup(srv.Close)

	return s, srv
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}

	return resp
}

func TestZoneCreateValidation(t *testing.T) {
	_, srv := newTestServer(t, ratelimit.Config{})

	// Too few coordinate points.
	resp := postJSON(t, srv.URL+"/zones", map[string]interface{}{
		"name":        "Bad Zone",
		"type":        "red",
		"description": "not a polygon",
		"coordinates": [][2]float64{{0, 0}, {1, 1}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("2-point zone: status %d, want 400", resp.StatusCode)
	}

	// Unknown type.
	resp = postJSON(t, srv.URL+"/zones", map[string]interface{}{
		"name":        "Bad Zone",
		"type":        "purple",
		"description": "unknown class",
		"coordinates": [][2]float64{{0, 0}, {1, 0}, {1, 1}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad type: status %d, want 400", resp.StatusCode)
	}

	// Valid zone.
	resp = postJSON(t, srv.URL+"/zones", map[string]interface{}{
		"name":        "Old Town",
		"type":        "yellow",
		"description": "crowded at night",
		"coordinates": [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid zone: status %d, want 201", resp.StatusCode)
	}

	out := ZoneExtView{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Id == "" || out.Type != "yellow" {
		t.Fatalf("unexpected zone response: %+v", out)
	}
}

func TestRunSweepEndToEnd(t *testing.T) {
	s, srv := newTestServer(t, ratelimit.Config{})
	ctx := context.Background()

	lat, lng := 26.90, 75.78
	tourist := models.Tourist{Name: "T", Email: "t@example.com", Lat: &lat, Lng: &lng}
	touristId, err := s.db.CreateTourist(ctx, &tourist)
	if err != nil {
		t.Fatalf("CreateTourist failed: %v", err)
	}

	zone := models.Zone{
		Name:        "Red Fort Area",
		Type:        models.ZoneTypeRed,
		Description: "restricted",
		Coordinates: [][2]float64{{75.70, 26.80}, {75.90, 26.80}, {75.90, 27.00}, {75.70, 27.00}},
	}
	if _, err := s.db.CreateZone(ctx, &zone); err != nil {
		t.Fatalf("CreateZone failed: %v", err)
	}

	resp := postJSON(t, srv.URL+"/run-sweep", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run-sweep: status %d, want 200", resp.StatusCode)
	}

	out := struct {
		ProcessedTourists int   `json:"processedTourists"`
		CreatedAlerts     int64 `json:"createdAlerts"`
		ActiveZones       int   `json:"activeZones"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.ProcessedTourists != 1 || out.CreatedAlerts != 1 || out.ActiveZones != 1 {
		t.Fatalf("unexpected sweep result: %+v", out)
	}

	got, err := s.db.FindTourist(ctx, touristId)
	if err != nil {
		t.Fatalf("FindTourist failed: %v", err)
	}
	if !got.GeoFenceBreached {
		t.Fatalf("expected breach flag set after sweep")
	}
}

func TestLocationRequiresToken(t *testing.T) {
	_, srv := newTestServer(t, ratelimit.Config{})

	resp := postJSON(t, srv.URL+"/location", LocationInput{Lat: 1, Lng: 1})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tokenless location update: status %d, want 401", resp.StatusCode)
	}
}

func TestLocationUpdateWithToken(t *testing.T) {
	s, srv := newTestServer(t, ratelimit.Config{})
	ctx := context.Background()

	tourist := models.Tourist{Name: "T", Email: "t@example.com"}
	touristId, err := s.db.CreateTourist(ctx, &tourist)
	if err != nil {
		t.Fatalf("CreateTourist failed: %v", err)
	}

	token := store.NewToken()
	if err := s.db.SetConnectionToken(ctx, touristId, token); err != nil {
		t.Fatalf("SetConnectionToken failed: %v", err)
	}

	buf, _ := json.Marshal(LocationInput{Lat: 26.90, Lng: 75.78})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/location", bytes.NewReader(buf))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("location update failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("location update: status %d, want 200", resp.StatusCode)
	}

	got, err := s.db.FindTourist(ctx, touristId)
	if err != nil {
		t.Fatalf("FindTourist failed: %v", err)
	}
	if got.Lat == nil || *got.Lat != 26.90 {
		t.Fatalf("position not stored: %v", got.Lat)
	}

	// Out-of-range coordinates are rejected.
	buf, _ = json.Marshal(LocationInput{Lat: 95, Lng: 75.78})
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/location", bytes.NewReader(buf))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("location update failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range update: status %d, want 400", resp.StatusCode)
	}
}

func TestLocationRateLimit(t *testing.T) {
	s, srv := newTestServer(t, ratelimit.Config{Enabled: true, PerMinute: 2})
	ctx := context.Background()

	tourist := models.Tourist{Name: "T", Email: "t@example.com"}
	touristId, err := s.db.CreateTourist(ctx, &tourist)
	if err != nil {
		t.Fatalf("CreateTourist failed: %v", err)
	}

	token := store.NewToken()
	if err := s.db.SetConnectionToken(ctx, touristId, token); err != nil {
		t.Fatalf("SetConnectionToken failed: %v", err)
	}

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		buf, _ := json.Marshal(LocationInput{Lat: 10, Lng: 10})
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/location", bytes.NewReader(buf))
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("location update failed: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("requests under the limit rejected: %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("request over the limit: status %d, want 429", statuses[2])
	}
}

func TestSosOpensAlert(t *testing.T) {
	s, srv := newTestServer(t, ratelimit.Config{})
	ctx := context.Background()

	lat, lng := 26.90, 75.78
	tourist := models.Tourist{Name: "T", Email: "t@example.com", Lat: &lat, Lng: &lng}
	touristId, err := s.db.CreateTourist(ctx, &tourist)
	if err != nil {
		t.Fatalf("CreateTourist failed: %v", err)
	}

	token := store.NewToken()
	if err := s.db.SetConnectionToken(ctx, touristId, token); err != nil {
		t.Fatalf("SetConnectionToken failed: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/sos", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sos failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sos: status %d, want 200", resp.StatusCode)
	}

	alerts, err := s.db.ActiveAlerts(ctx)
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != models.AlertTypeSos || alerts[0].Severity != models.SeverityHigh {
		t.Fatalf("expected one HIGH SOS alert, got %+v", alerts)
	}
	if alerts[0].Lat != lat || alerts[0].Lng != lng {
		t.Fatalf("sos alert location (%f, %f), want (%f, %f)", alerts[0].Lat, alerts[0].Lng, lat, lng)
	}
}
