package commands

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"order-assistant/assistant"
	"order-assistant/cache"
	"order-assistant/completion"
	"order-assistant/controllers"
	"order-assistant/database"
	"order-assistant/orders"
	"order-assistant/reference"
	"order-assistant/routes"
	"order-assistant/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db, log)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	refCache, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	if closer, ok := refCache.(io.Closer); ok {
		defer closer.Close()
	}

	completer := completion.NewClient(cfg.OpenAI, log)
	if !completer.Configured() {
		log.Warn("OPENAI_API_KEY is not set; chat turns will report a configuration error")
	}

	svc := assistant.NewService(assistant.Options{
		Store:        store.NewGormStore(db),
		Completer:    completer,
		Reference:    reference.NewFetcher(refCache, cfg.Training.CacheTTL, cfg.Training.Timeout, log),
		ReferenceURL: cfg.Training.URL,
		Extractor:    orders.NewExtractor(cfg.Order),
		Dispatcher:   orders.NewDispatcher(cfg.OrderWebhookURL(), cfg.Webhook.Token, cfg.Webhook.Timeout, log),
		Logger:       log,
	})

	app := routes.NewApp(cfg.Server, cfg.BodyLimitBytes(), log)
	routes.Register(app, controllers.NewChatController(svc), db)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "port", cfg.Server.Port, "version", version)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
