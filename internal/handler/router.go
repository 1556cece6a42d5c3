package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/ysrap-etpe/internal/middleware"
)

// MaxBodyBytes ограничивает размер тела запроса.
const MaxBodyBytes = 10 << 20

// RouterOptions задаёт необязательные части маршрутизатора.
type RouterOptions struct {
	// Limiter ограничивает частоту запросов; nil отключает ограничение.
	Limiter custommiddleware.Limiter
	// AdminKey включает маршруты /api/admin.
	AdminKey       string
	MetricsEnabled bool
}

// SetupRouter настраивает HTTP-маршруты и middleware сервиса ysrap-etpe.
func (h *Handler) SetupRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))
	if opts.MetricsEnabled {
		r.Use(custommiddleware.Metrics)
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(chimw.RequestSize(MaxBodyBytes))

	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(custommiddleware.RateLimit(opts.Limiter, h.logger))
		}

		r.Get("/health", h.Health)
		r.Get("/health/ready", h.Ready)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/partners", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/me", h.GetProfile)
				r.Put("/me", h.UpdateProfile)
			})
			r.Get("/{id}", h.GetPartner)
		})

		r.Route("/bags", func(r chi.Router) {
			r.Get("/", h.ListBags)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/partner", h.ListPartnerBags)
				r.Post("/", h.CreateBag)
				r.Put("/{id}", h.UpdateBag)
				r.Patch("/{id}/sold-out", h.MarkBagSoldOut)
			})
			r.Get("/{id}", h.GetBag)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.PlaceOrder)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/partner", h.ListPartnerOrders)
				r.Patch("/{id}/status", h.UpdateOrderStatus)
				r.Post("/verify-pickup", h.VerifyPickup)
			})
			r.Get("/{id}", h.GetOrder)
		})

		if opts.AdminKey != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(custommiddleware.AdminKey(opts.AdminKey))

				r.Get("/dashboard", h.Dashboard)
				r.Get("/partners", h.ListPartners)
				r.Get("/partners/{id}", h.PartnerDetails)
				r.Patch("/partners/{id}/status", h.SetPartnerStatus)
				r.Get("/orders", h.ListOrders)
				r.Get("/commission-report", h.CommissionReport)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
