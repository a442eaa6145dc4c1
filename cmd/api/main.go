package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	cloudinaryad "quickstay/internal/adapters/cloudinary"
	server "quickstay/internal/adapters/http_server"
	"quickstay/internal/adapters/mail"
	"quickstay/internal/adapters/observability"
	redisad "quickstay/internal/adapters/redis"
	"quickstay/internal/adapters/stripe"
	"quickstay/internal/app"
	"quickstay/internal/shared"
	mysqlrepo "quickstay/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	uploader, err := cloudinaryad.New(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret, cfg.CloudFolder)
	if err != nil {
		log.Fatal().Err(err).Msg("cloudinary init failed")
	}
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	payments, err := stripe.New(cfg.StripeBase, cfg.StripeKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("stripe init failed")
	}

	catalog := app.NewCatalogService(repo, cache, uploader, cfg.CacheTTL)
	bookings := app.NewBookingService(repo, repo, cache, mailer, payments, cfg.CacheTTL, cfg.Currency)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	server.MountHandlers(srv, catalog, bookings, cfg.JWTSecret)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
