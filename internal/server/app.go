// Package server initializes and runs the application: it wires config,
// storage, services and the HTTP transport together, runs migrations, and
// handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dayli-app/api/internal/logging"
	"github.com/dayli-app/api/internal/server/billing"
	"github.com/dayli-app/api/internal/server/config"
	"github.com/dayli-app/api/internal/server/httpapi"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
	"github.com/dayli-app/api/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	provider := billing.NewStripeProvider(billing.StripeConfig{
		APIKey:     c.StripeAPIKey,
		PriceID:    c.StripePriceID,
		SuccessURL: c.CheckoutSuccessURL,
		CancelURL:  c.CheckoutCancelURL,
		ReturnURL:  c.PortalReturnURL,
	})
	decoder := billing.NewStripeWebhookDecoder(c.StripeWebhookSecret)

	accountService := services.NewAccountService(db, m, c)
	billingService := services.NewBillingService(db, m, provider, decoder)
	postService := services.NewPostService(db, m)
	attachmentService := services.NewAttachmentService(db, m, c)

	httpServer := httpapi.NewServer(c.EndpointAddr, logger,
		accountService, billingService, postService, attachmentService, c.SecretKey)

	return &App{config: c, logger: logger, db: db, server: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
