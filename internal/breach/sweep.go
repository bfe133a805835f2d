package breach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"tourist-tracker/internal/geo"
	"tourist-tracker/internal/metrics"
	"tourist-tracker/internal/models"
	"tourist-tracker/internal/store"
)

// ErrSweepInProgress is returned when a sweep trigger arrives while a
// pass is still running in this process. The trigger is skipped, not
// queued. The guard is per-process, not a global lock: a manual trigger
// on the API server can still overlap a daemon tick. The bulk alert
// resolve on zone exit repairs any duplicate such an overlap opens.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Store is the persistence surface the sweep needs. *store.Store
// implements it; tests may substitute their own.
type Store interface {
	TouristsWithPosition(ctx context.Context) ([]models.Tourist, error)
	ActiveZones(ctx context.Context) ([]models.Zone, error)
	UpdateTouristBreach(ctx context.Context, id string, upd store.BreachUpdate) error
	FindUnresolvedAlert(ctx context.Context, userId string, alertType string) (*models.Alert, error)
	CreateAlert(ctx context.Context, in store.NewAlert) (string, error)
	ResolveUnresolvedAlerts(ctx context.Context, userId string, alertType string, resolvedBy *string) (int64, error)
}

// Result aggregates one sweep pass. The field names match the wire
// format the dashboard consumes.
type Result struct {
	ProcessedTourists int   `json:"processedTourists"`
	UpdatedRecords    int64 `json:"updatedRecords"`
	ActiveZones       int   `json:"activeZones"`
	CreatedAlerts     int64 `json:"createdAlerts"`
	ResolvedAlerts    int64 `json:"resolvedAlerts"`
}

// Sweeper runs breach detection passes over all positioned tourists.
type Sweeper struct {
	store     Store
	workers   int
	opTimeout time.Duration

	running atomic.Bool
}

// New builds a Sweeper. workers bounds per-tourist parallelism within a
// pass; opTimeout bounds each tourist's persistence unit.
func New(st Store, workers int, opTimeout time.Duration) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}

	return &Sweeper{
		store:     st,
		workers:   workers,
		opTimeout: opTimeout,
	}
}

// tally collects counters across sweep workers.
type tally struct {
	updated  int64
	created  int64
	resolved int64
	failed   int64
}

// Run executes one sweep pass: snapshot tourists and zones, evaluate
// every tourist against the zone snapshot, persist state transitions
// and alert mutations, and report aggregate counts. A failure to load
// either feed aborts the pass; everything else is isolated per tourist.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.SweepsSkippedTotal.Inc()
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	start := time.Now()

	tourists, err := s.store.TouristsWithPosition(ctx)
	if err != nil {
		metrics.SweepsFailedTotal.Inc()
		return nil, fmt.Errorf("failed to load tourist feed: %w", err)
	}

	zones, err := s.store.ActiveZones(ctx)
	if err != nil {
		metrics.SweepsFailedTotal.Inc()
		return nil, fmt.Errorf("failed to load zone feed: %w", err)
	}

	// Drop zones without a usable ring. The zone stays out of this
	// pass only; the record itself is untouched.
	usable := make([]models.Zone, 0, len(zones))
	for _, z := range zones {
		if len(z.Coordinates) < 3 {
			log.Printf("sweep: zone %s has %d coordinate points, skipping", z.Id, len(z.Coordinates))
			continue
		}
		usable = append(usable, z)
	}

	var t tally
	now := time.Now()

	jobs := make(chan models.Tourist)
	wg := &sync.WaitGroup{}
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tourist := range jobs {
				s.processTourist(ctx, now, tourist, usable, &t)
			}
		}()
	}

	for _, tourist := range tourists {
		jobs <- tourist
	}
	close(jobs)
	wg.Wait()

	metrics.SweepsTotal.Inc()
	metrics.SweepDurationMs.Observe(float64(time.Since(start).Milliseconds()))

	result := &Result{
		ProcessedTourists: len(tourists),
		UpdatedRecords:    atomic.LoadInt64(&t.updated),
		ActiveZones:       len(zones),
		CreatedAlerts:     atomic.LoadInt64(&t.created),
		ResolvedAlerts:    atomic.LoadInt64(&t.resolved),
	}

	log.Printf("sweep: processed %d tourists against %d zones, updated %d, created %d alerts, resolved %d alerts",
		result.ProcessedTourists, result.ActiveZones, result.UpdatedRecords, result.CreatedAlerts, result.ResolvedAlerts)

	return result, nil
}

// processTourist runs the classifier and state machine for one tourist
// and persists whatever changed. Failures are logged and counted, never
// propagated to the pass.
func (s *Sweeper) processTourist(ctx context.Context, now time.Time, tourist models.Tourist, zones []models.Zone, t *tally) {
	if tourist.Lat == nil || tourist.Lng == nil {
		return
	}

	p := geo.Point{Lng: *tourist.Lng, Lat: *tourist.Lat}
	if !p.Valid() {
		log.Printf("sweep: tourist %s has invalid coordinates (%f, %f), skipping", tourist.Id, *tourist.Lat, *tourist.Lng)
		atomic.AddInt64(&t.failed, 1)
		metrics.TouristFailuresTotal.Inc()
		return
	}

	zone := Classify(p, zones)
	d := Evaluate(tourist.GeoFenceBreached, zone)

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if d.OpenAlert {
		existing, err := s.store.FindUnresolvedAlert(opCtx, tourist.Id, models.AlertTypeGeofence)
		if err != nil {
			log.Printf("sweep: failed to check open alerts for tourist %s (%v)", tourist.Id, err)
			atomic.AddInt64(&t.failed, 1)
			metrics.TouristFailuresTotal.Inc()
			return
		}

		if existing == nil {
			_, err = s.store.CreateAlert(opCtx, store.NewAlert{
				UserId:   tourist.Id,
				Type:     models.AlertTypeGeofence,
				Severity: d.Severity,
				Lat:      p.Lat,
				Lng:      p.Lng,
			})
			if err != nil {
				log.Printf("sweep: failed to create alert for tourist %s (%v)", tourist.Id, err)
				atomic.AddInt64(&t.failed, 1)
				metrics.TouristFailuresTotal.Inc()
				return
			}

			atomic.AddInt64(&t.created, 1)
			metrics.AlertsCreatedTotal.WithLabelValues(models.AlertTypeGeofence).Inc()
		}
	}

	if d.ResolveAlerts {
		n, err := s.store.ResolveUnresolvedAlerts(opCtx, tourist.Id, models.AlertTypeGeofence, nil)
		if err != nil {
			log.Printf("sweep: failed to resolve alerts for tourist %s (%v)", tourist.Id, err)
			atomic.AddInt64(&t.failed, 1)
			metrics.TouristFailuresTotal.Inc()
			return
		}

		atomic.AddInt64(&t.resolved, n)
		metrics.AlertsResolvedTotal.WithLabelValues(models.AlertTypeGeofence).Add(float64(n))
	}

	upd := store.BreachUpdate{GeoFenceBreached: d.Breached}
	if d.Zone != nil {
		upd.CurrentZoneId = &d.Zone.Id
		upd.CurrentZoneType = &d.Zone.Type
		upd.CurrentZoneName = &d.Zone.Name
	}
	if d.Breached {
		if tourist.GeoFenceBreached && tourist.BreachTime != nil {
			upd.BreachTime = tourist.BreachTime
		} else {
			bt := now
			upd.BreachTime = &bt
		}
	}

	if breachStateUnchanged(tourist, upd) {
		return
	}

	err := s.store.UpdateTouristBreach(opCtx, tourist.Id, upd)
	if err != nil {
		log.Printf("sweep: failed to update tourist %s (%v)", tourist.Id, err)
		atomic.AddInt64(&t.failed, 1)
		metrics.TouristFailuresTotal.Inc()
		return
	}

	atomic.AddInt64(&t.updated, 1)
}

// breachStateUnchanged reports whether the update would be a no-op, so
// repeated sweeps over a stationary tourist do not churn the record.
func breachStateUnchanged(tourist models.Tourist, upd store.BreachUpdate) bool {
	return tourist.GeoFenceBreached == upd.GeoFenceBreached &&
		strPtrEq(tourist.CurrentZoneId, upd.CurrentZoneId) &&
		strPtrEq(tourist.CurrentZoneType, upd.CurrentZoneType) &&
		strPtrEq(tourist.CurrentZoneName, upd.CurrentZoneName) &&
		timePtrEq(tourist.BreachTime, upd.BreachTime)
}

func strPtrEq(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEq(a *time.Time, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
