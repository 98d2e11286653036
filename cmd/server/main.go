package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bizflow/bizflow/internal/auth"
	"github.com/bizflow/bizflow/internal/config"
	"github.com/bizflow/bizflow/internal/es"
	"github.com/bizflow/bizflow/internal/events"
	"github.com/bizflow/bizflow/internal/handlers"
	"github.com/bizflow/bizflow/internal/identity"
	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/logging"
	"github.com/bizflow/bizflow/internal/tenant"
	httpserver "github.com/bizflow/bizflow/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	store, err := kvstore.NewGormStore(db)
	if err != nil {
		log.Fatalf("kv store init error: %v", err)
	}

	identitySvc, err := identity.NewService(store, logger)
	if err != nil {
		log.Fatalf("identity init error: %v", err)
	}

	tenantSvc, err := tenant.NewService(store, identitySvc, logger)
	if err != nil {
		log.Fatalf("tenant init error: %v", err)
	}

	var prod *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Identity: identitySvc, JWTSecret: jwtSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{Tenant: tenantSvc, Producer: prod, ES: esClient, Index: "products"},
		SaleHandler:    &handlers.SaleHandler{Tenant: tenantSvc, Producer: prod},
		ReportHandler:  &handlers.ReportHandler{Tenant: tenantSvc, Store: store},
		AdminHandler:   &handlers.AdminHandler{Identity: identitySvc},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "products"},
		Guard:          &auth.Middleware{Identity: identitySvc, Secret: jwtSecret},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.APP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
