package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/rentalflow-backend/booking"
	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/auth0"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
	"github.com/semanticallynull/rentalflow-backend/internal/o11y"
	"github.com/semanticallynull/rentalflow-backend/session"
)

// Config carries the API's collaborators. Auth is the authentication
// middleware guarding every session, booking and profile route; tests inject
// a fake.
type Config struct {
	Catalog   *catalog.Repository
	Resolver  *catalog.Resolver
	Sessions  *session.Repository
	Customers *customer.Repository
	Bookings  *booking.Repository
	Finalizer *booking.Finalizer
	Identity  auth0.Client

	Auth gin.HandlerFunc
	Obs  *o11y.Observability

	MetricsUsername string
	MetricsPassword string
}

type API struct {
	r         *gin.Engine
	items     *catalog.Repository
	resolver  *catalog.Resolver
	sessions  *session.Repository
	customers *customer.Repository
	bookings  *booking.Repository
	finalizer *booking.Finalizer
	identity  auth0.Client
	logger    *slog.Logger
}

func New(cfg Config) *API {
	a := &API{
		r:         gin.New(),
		items:     cfg.Catalog,
		resolver:  cfg.Resolver,
		sessions:  cfg.Sessions,
		customers: cfg.Customers,
		bookings:  cfg.Bookings,
		finalizer: cfg.Finalizer,
		identity:  cfg.Identity,
		logger:    slog.Default(),
	}

	a.r.Use(gin.Recovery())
	if cfg.Obs != nil {
		a.logger = cfg.Obs.Logger
		a.r.Use(middleware.Tracing())
		a.r.Use(middleware.Logging(cfg.Obs.Logger))
		a.r.Use(middleware.Metrics(cfg.Obs.Registry))

		metrics := a.r.Group("/metrics")
		if cfg.MetricsUsername != "" {
			metrics.Use(gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}))
		}
		metrics.GET("", gin.WrapH(promhttp.HandlerFor(cfg.Obs.Registry, promhttp.HandlerOpts{})))
	}

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	a.r.GET("/items", a.itemsHandler)
	a.r.GET("/items/:id", a.itemHandler)

	protected := a.r.Group("/")
	if cfg.Auth != nil {
		protected.Use(cfg.Auth)
	}
	{
		protected.POST("/sessions", a.createSessionHandler)
		protected.GET("/sessions/:id", a.getSessionHandler)
		protected.PUT("/sessions/:id/dates", a.setDatesHandler)
		protected.PUT("/sessions/:id/addons", a.setAddonsHandler)
		protected.PUT("/sessions/:id/items", a.setItemsHandler)
		protected.POST("/sessions/:id/items/:itemId/toggle", a.toggleItemHandler)
		protected.GET("/sessions/:id/review", a.reviewHandler)
		protected.POST("/sessions/:id/checkout", a.checkoutHandler)

		protected.GET("/bookings", a.listBookingsHandler)
		protected.GET("/bookings/:id", a.getBookingHandler)
		protected.GET("/bookings/:id/events", a.bookingEventsHandler)
		protected.GET("/bookings/:id/receipt", a.bookingReceiptHandler)

		protected.GET("/me", a.getProfileHandler)
		protected.PUT("/me", a.updateProfileHandler)

		protected.POST("/payments/customer-session", a.createCustomerSession)
		protected.POST("/payments/setup-intent", a.createSetupIntent)
	}

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}
