package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lunchuis/panel/internal/config"
	"github.com/lunchuis/panel/internal/gateway"
	"github.com/lunchuis/panel/internal/handler"
	mw "github.com/lunchuis/panel/internal/middleware"
	"github.com/lunchuis/panel/internal/stats"
	"github.com/lunchuis/panel/internal/store"
	"github.com/lunchuis/panel/internal/ws"
)

// New creates a Chi router with all panel routes wired up. Combo and order
// mutations carry the admin guard; everything else tolerates anonymous
// requests so the public catalog and cart keep working without a token.
func New(cfg *config.Config, s *store.Store, gw *gateway.Gateway, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Mirrors the upstream health shape so the panel itself can be probed
	// the same way it probes the backend.
	r.Get("/actuator/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"UP"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	statsAgg := stats.New(
		stats.ComboListerFunc(gw.ResolveCombos),
		stats.OrderListerFunc(gw.ResolveOrders),
	)

	comboHandler := handler.NewComboHandler(gw, hub)
	orderHandler := handler.NewOrderHandler(gw, hub)
	cartHandler := handler.NewCartHandler(s, gw, hub)
	statsHandler := handler.NewStatsHandler(statsAgg)
	sessionHandler := handler.NewSessionHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Session(cfg.JWTSecret))

		r.Route("/combos", func(r chi.Router) {
			comboHandler.RegisterRoutes(r, mw.RequireAdmin)
		})
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r, mw.RequireAdmin)
		})
		r.Route("/cart", cartHandler.RegisterRoutes)
		r.Route("/stats", func(r chi.Router) {
			statsHandler.RegisterRoutes(r, mw.RequireAdmin)
		})
		r.Route("/session", sessionHandler.RegisterRoutes)
	})

	return r
}
