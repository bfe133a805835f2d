package trackapiserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"tourist-tracker/internal/breach"
	"tourist-tracker/internal/metrics"
	"tourist-tracker/internal/ratelimit"
	"tourist-tracker/internal/store"
)

type TrackApiServer struct {
	cfg     Config
	db      *store.Store
	sweeper *breach.Sweeper
	limiter ratelimit.Limiter
}

/* Main */
func New(cfg Config) (*TrackApiServer, error) {
	db, err := store.New(cfg.Db)
	if err != nil {
		return nil, err
	}

	s := &TrackApiServer{
		cfg:     cfg,
		db:      db,
		sweeper: breach.New(db, cfg.Sweep.Workers, time.Duration(cfg.Sweep.OpTimeout)*time.Second),
		limiter: ratelimit.New(cfg.RateLimit),
	}

	return s, nil
}

func (s *TrackApiServer) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Authority surface, optionally behind basic auth.
	r.Group(func(r chi.Router) {
		if s.cfg.Http.BasicAuth {
			userdb := make(map[string]string)
			for _, v := range s.cfg.Http.Users {
				userdb[v.User] = v.Password
			}
			r.Use(middleware.BasicAuth(s.cfg.Http.ServerName, userdb))
		}

		r.Route("/tourists", func(r chi.Router) {
			r.Mount("/", s.apiTouristRouter())
		})

		r.Route("/locations", func(r chi.Router) {
			r.Mount("/", s.apiLocationHistoryRouter())
		})

		r.Route("/zones", func(r chi.Router) {
			r.Mount("/", s.apiZoneRouter())
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Mount("/", s.apiAlertRouter())
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Mount("/", s.apiDashboardRouter())
		})

		r.Post("/run-sweep", s.apiRunSweep)
		r.Post("/generate-token", s.apiGenerateToken)
	})

	// Companion app surface, authenticated by connection token.
	r.Group(func(r chi.Router) {
		r.Use(s.touristTokenCtx)
		r.Post("/location", s.apiLocationPost)
		r.Post("/sos", s.apiSosPost)
		r.Post("/toggle-sos", s.apiToggleSosPost)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func (s *TrackApiServer) Run() error {
	return http.ListenAndServe(s.cfg.Http.Listen, s.router())
}
