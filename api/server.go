/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/readings/*              Meter readings
  /api/tariffs/*               Tariff periods
  /api/payments/*              Realized payments
  /api/advance-payments/*      Standing orders
  /api/monthly-stats etc.      Aggregate reports
  /api/solar/*                 Solar production + cloud import
  /api/ha/*                    Home Assistant proxy
  /api/homeassistant/metrics   Pushed sensor snapshots (bearer auth)
  /api/settings                Settings
  /api/demo/load               Sample dataset loader

SECURITY NOTE:
  Only the metric ingestion path is authenticated. Everything else is
  meant to sit behind the home network boundary.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Reading routes
		r.Route("/readings", func(r chi.Router) {
			r.Get("/", h.ListReadings)
			r.Post("/", h.CreateReading)
			r.Get("/{id}", h.GetReading)
			r.Put("/{id}", h.UpdateReading)
			r.Delete("/{id}", h.DeleteReading)
		})

		// Tariff routes
		r.Route("/tariffs", func(r chi.Router) {
			r.Get("/", h.ListTariffs)
			r.Post("/", h.CreateTariff)
			r.Put("/{id}", h.UpdateTariff)
			r.Delete("/{id}", h.DeleteTariff)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Put("/{id}", h.UpdatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		// Standing order routes
		r.Route("/advance-payments", func(r chi.Router) {
			r.Get("/", h.ListAdvancePayments)
			r.Post("/", h.CreateAdvancePayment)
			r.Put("/{id}", h.UpdateAdvancePayment)
			r.Delete("/{id}", h.DeleteAdvancePayment)
		})

		// Aggregate reports
		r.Get("/monthly-stats", h.GetMonthlyStats)
		r.Get("/balance", h.GetBalance)
		r.Get("/forecast", h.GetForecast)
		r.Get("/statistics", h.GetStatistics)

		// Solar production routes
		r.Route("/solar", func(r chi.Router) {
			r.Get("/", h.ListSolarReadings)
			r.Get("/monthly", h.GetSolarMonthly)
			r.Get("/status", h.GetSolarStatus)
			r.Post("/import-yesterday", h.ImportSolarYesterday)
			r.Post("/import-range", h.ImportSolarRange)
			r.Post("/fill-gaps", h.FillSolarGaps)
		})

		// Home Assistant proxy routes
		r.Route("/ha", func(r chi.Router) {
			r.Post("/test", h.HATest)
			r.Post("/sensors", h.HASensors)
			r.Post("/values", h.HAValues)
		})

		// Pushed sensor snapshots
		r.Route("/homeassistant/metrics", func(r chi.Router) {
			r.With(h.RequireAPIToken).Post("/", h.IngestMetrics)
			r.Get("/", h.ListMetrics)
		})

		// Settings routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Demo data
		r.Post("/demo/load", h.LoadDemoData)
	})

	return r
}
