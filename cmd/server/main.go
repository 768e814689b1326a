package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gatepass/internal/auth"
	"gatepass/internal/auth/resettoken"
	"gatepass/internal/certificate"
	"gatepass/internal/issuance"
	"gatepass/internal/jwttoken"
	"gatepass/internal/mail"
	"gatepass/internal/payment"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/platform/logger"
	"gatepass/internal/platform/metrics"
	platformredis "gatepass/internal/platform/redis"
	"gatepass/internal/registrant/store"
	"gatepass/internal/scanlog"
	"gatepass/internal/scanlog/publisher"
	httptransport "gatepass/internal/transport/http"
	"gatepass/internal/verification"
)

const (
	jwtIssuer   = "gatepass"
	jwtAudience = "gatepass"
)

// main wires dependencies and owns process lifecycle. Business logic lives in
// the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		registrants store.Store
		scanStore   scanlog.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		registrants = store.NewPostgres(db)
		scanStore = scanlog.NewPostgres(db)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		registrants = store.NewInMemory()
		scanStore = scanlog.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	var resetTokens resettoken.Store = resettoken.NewInMemoryStore()
	if redisClient != nil {
		defer redisClient.Close()
		resetTokens = resettoken.NewRedisStore(redisClient)
	}

	var mailer mail.Mailer = mail.Noop{}
	if smtp, err := mail.NewSMTP(cfg.SMTP); err != nil {
		log.Error("build smtp mailer", "error", err)
		os.Exit(1)
	} else if smtp != nil {
		mailer = smtp
	} else {
		log.Warn("SMTP_HOST not set, outbound mail disabled")
	}

	scanOpts := []scanlog.Option{}
	kafkaPublisher, err := publisher.NewKafka(cfg.Kafka, log)
	if err != nil {
		log.Error("build kafka publisher", "error", err)
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		go func() {
			if err := kafkaPublisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("kafka publisher stopped", "error", err)
			}
		}()
		scanOpts = append(scanOpts, scanlog.WithSink(kafkaPublisher))
	}

	logs := scanlog.NewService(scanStore, log, scanOpts...)

	hasher := auth.NewBcryptHasher()
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtAudience)

	issuanceSvc := issuance.NewService(registrants, mailer, hasher, m, log, issuance.Config{
		UploadsDir: cfg.UploadsDir,
		EventName:  cfg.EventName,
		LoginURL:   cfg.PublicBaseURL + "/login",
	})
	renderer := certificate.New(filepath.Join(cfg.UploadsDir, "certificates"), cfg.EventName)
	verificationSvc := verification.NewService(registrants, logs, renderer, m, log)
	authSvc := auth.NewService(registrants, tokens, resetTokens, hasher, mailer, log, cfg.PublicBaseURL)
	payments := payment.NewVerifier(cfg.PaymentSecret)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:        httptransport.NewAuthHandler(authSvc, issuanceSvc, tokens, log),
		Payments:    httptransport.NewPaymentHandler(payments, issuanceSvc, log),
		Scans:       httptransport.NewScanHandler(verificationSvc, logs, tokens, log),
		Registrants: httptransport.NewRegistrantHandler(issuanceSvc, tokens, log),
		UploadsDir:  cfg.UploadsDir,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting gatepass", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
