package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	apphttp "movieclub-api/internal/http"
	"movieclub-api/internal/auth"
	"movieclub-api/internal/service"
)

func newServeCmd(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), logger)
		},
	}
}

func serve(parent context.Context, logger *logrus.Logger) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}()

	posterStore, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}

	tokens := auth.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
	}
	issuer, err := auth.NewTokenIssuer(tokens)
	if err != nil {
		return err
	}
	verifier, err := auth.NewTokenVerifier(tokens)
	if err != nil {
		return err
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	userService := service.NewUserService(st.users, hasher, issuer)
	catalogService := service.NewCatalogService(st.catalog, service.PosterOptions{
		Store:     posterStore,
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Expires:   cfg.Storage.URLExpiry,
	})

	if cfg.Catalog.SeedFile != "" {
		catalog, err := readCatalog(cfg.Catalog.SeedFile)
		if err != nil {
			return err
		}
		res, err := catalogService.Seed(ctx, catalog)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		logger.Infof("seeded %d movies and %d actors from %s", res.Movies, res.Actors, cfg.Catalog.SeedFile)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Options{
		Users:          userService,
		Catalog:        catalogService,
		Local:          auth.NewLocalStrategy(st.users, hasher),
		JWT:            auth.NewJWTStrategy(verifier),
		Logger:         logger,
		Metrics:        apphttp.NewMetrics(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PublicDir:      cfg.Server.PublicDir,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}
