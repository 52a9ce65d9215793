package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"portfolio/config"
	"portfolio/db"
	"portfolio/handlers"
	"portfolio/models"
	"portfolio/pipeline"
	"portfolio/storage"
	"portfolio/utils"
	"portfolio/web"

	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	log := utils.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := db.New(cfg, log)
	defer client.Close()
	if err = models.Migrate(ctx, client); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	store := models.NewStore(client)
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		created, err := store.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot create admin user")
		}
		if created {
			log.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
		}
	}

	media, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("cannot initialise media storage")
	}
	p := pipeline.New(pipeline.ConfigFrom(cfg), media, store, log)

	// sessions outlive ctx, so their connection is not bound to it
	conn, err := client.Conn(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	sessionStore := gormsessions.NewStore(conn, true, []byte(cfg.SessionKey))

	router := web.NewRouter(web.Deps{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Handlers: handlers.New(cfg, p, store, log),
		Media:    media,
		Sessions: sessionStore,
	})

	if cfg.TLSDomains != "" {
		log.Info().Str("domains", cfg.TLSDomains).Msg("starting TLS server")
		err = autotls.Run(router, strings.Split(cfg.TLSDomains, ",")...)
		log.Info().Err(err).Msg("server stopped")
		return
	}

	server := &http.Server{
		Addr:    cfg.BindAddress,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.BindAddress).Str("storage", cfg.StorageBackend).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
	case err = <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
