package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vobaolong/shopify-be-sub001/internal/api/middleware"
	"github.com/vobaolong/shopify-be-sub001/internal/auth"
)

type RouterConfig struct {
	Handlers       *Handlers
	JWTService     *auth.JWTService
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handlers
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTService))

		// Buyer routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleBuyer))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListMyOrders)
				r.Post("/", h.CreateOrder)
				r.Get("/{orderID}", h.GetMyOrder)
				r.Post("/{orderID}/status", h.CancelMyOrder)
				r.Post("/{orderID}/returns", h.RequestReturn)
			})
			r.Get("/transactions", h.ListMyTransactions)
			r.Get("/account", h.GetMyAccount)
		})

		// Store routes
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleStore))
			r.Use(middleware.RequireStoreAccess)
			r.Get("/orders", h.ListStoreOrders)
			r.Get("/orders/{orderID}", h.GetStoreOrder)
			r.Post("/orders/{orderID}/status", h.TransitionStoreOrder)
			r.Post("/orders/{orderID}/returns/decision", h.DecideStoreReturn)
			r.Get("/transactions", h.ListStoreTransactions)
			r.Get("/account", h.GetStoreAccount)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Get("/orders", h.ListAllOrders)
			r.Get("/orders/{orderID}", h.GetAnyOrder)
			r.Post("/orders/{orderID}/status", h.TransitionAnyOrder)
			r.Post("/orders/{orderID}/returns/decision", h.DecideAnyReturn)
			r.Get("/transactions", h.ListAccountTransactions)
			r.Get("/audit", h.AuditAccount)
		})
	})

	return r
}
