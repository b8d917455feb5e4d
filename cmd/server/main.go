package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stripe/stripe-go/v84"

	"github.com/semanticallynull/rentalflow-backend/api"
	"github.com/semanticallynull/rentalflow-backend/booking"
	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/auth0"
	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
	"github.com/semanticallynull/rentalflow-backend/internal/events"
	"github.com/semanticallynull/rentalflow-backend/internal/middleware"
	"github.com/semanticallynull/rentalflow-backend/internal/o11y"
	"github.com/semanticallynull/rentalflow-backend/session"
)

var cli = struct {
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" default:""`
	Port        int    `name:"port" env:"PORT" default:"8080"`

	Auth0Domain string `name:"auth0-domain" env:"AUTH0_DOMAIN"`
	Audience    string `name:"audience" env:"AUDIENCE"`

	StripeKey string `name:"stripe-key" env:"STRIPE_KEY"`
	AMQPURL   string `name:"amqp-url" env:"AMQP_URL"`

	OTLPEndpoint string `name:"otlp-endpoint" env:"OTLP_ENDPOINT"`

	MetricsUsername string `name:"metrics-username" env:"METRICS_USERNAME"`
	MetricsPassword string `name:"metrics-password" env:"METRICS_PASSWORD"`
}{}

func main() {
	if err := run(); err != nil {
		log.Fatalf("unexpected error: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	kong.Parse(&cli)

	stripe.Key = cli.StripeKey

	obs, cleanup, err := o11y.Setup(ctx, cli.OTLPEndpoint)
	defer cleanup()
	if err != nil {
		return err
	}

	var store docstore.Store
	if cli.DatabaseURL != "" {
		db, err := sqlx.ConnectContext(ctx, "pgx", cli.DatabaseURL)
		if err != nil {
			return err
		}
		sqlStore := docstore.NewSQLStore(db)
		if err := sqlStore.Migrate(ctx); err != nil {
			return err
		}
		store = sqlStore
	} else {
		obs.Logger.Warn("no database configured, using in-memory store")
		store = docstore.NewMemory()
	}

	var pub events.Publisher = events.Noop{}
	if cli.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cli.AMQPURL)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer amqpPub.Close()
		pub = amqpPub
	}

	items := catalog.NewRepository(store)
	resolver := catalog.NewResolver(items, obs.Logger)
	sessions := session.NewRepository(store)
	customers := customer.NewRepository(store)
	bookings := booking.NewRepository(store)
	finalizer := booking.NewFinalizer(store, sessions, resolver, pub, obs.Logger)

	var auth gin.HandlerFunc
	if cli.Auth0Domain != "" {
		auth, err = middleware.JWTAuth(cli.Auth0Domain, cli.Audience)
		if err != nil {
			return err
		}
	}

	a := api.New(api.Config{
		Catalog:         items,
		Resolver:        resolver,
		Sessions:        sessions,
		Customers:       customers,
		Bookings:        bookings,
		Finalizer:       finalizer,
		Identity:        auth0.NewHTTPClient(cli.Auth0Domain),
		Auth:            auth,
		Obs:             obs,
		MetricsUsername: cli.MetricsUsername,
		MetricsPassword: cli.MetricsPassword,
	})

	serv := http.Server{
		Addr:    fmt.Sprintf(":%d", cli.Port),
		Handler: a.Router(),
	}

	go func() {
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return serv.Shutdown(ctx)
}
