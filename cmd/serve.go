package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/brutaldon/internal/auth"
	"github.com/desertthunder/brutaldon/internal/repositories"
	"github.com/desertthunder/brutaldon/internal/server"
	"github.com/desertthunder/brutaldon/internal/services"
	"github.com/desertthunder/brutaldon/internal/shared"
	"github.com/desertthunder/brutaldon/internal/web"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the web front-end until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, config.Log.ParseLevel())

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	handler, err := r.newHandler(config, db)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// newHandler wires storage, the Mastodon provider and the page handlers behind the standard middleware.
func (r *Runner) newHandler(config *shared.Config, db *sql.DB) (http.Handler, error) {
	clients := repositories.NewClientRepository(db)
	accounts := repositories.NewAccountRepository(db)

	provider := services.NewMastodonProvider(services.ProviderOpts{
		HTTPClient: r.httpClient,
		AppName:    config.Mastodon.AppName,
		Website:    config.Mastodon.Website,
		UserAgent:  config.Mastodon.UserAgent,
		Scopes:     config.Mastodon.Scopes,
		RateLimit:  config.Mastodon.RateLimit,
		Burst:      config.Mastodon.Burst,
	})

	app, err := web.NewApp(web.AppOpts{
		Resolver:    auth.NewResolver(clients, accounts, provider, r.logger),
		Provisioner: auth.NewProvisioner(clients, accounts, provider, r.logger),
		Sessions:    web.NewSessions(config.Session),
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	router := server.NewBasicRouter()
	router.Use(server.Standard(r.logger)...)
	app.Register(router)

	return router, nil
}
