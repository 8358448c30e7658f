package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/config"
	"flashvpn-bot/internal/handlers"
	"flashvpn-bot/internal/permissions"
	"flashvpn-bot/internal/repository"
	"flashvpn-bot/internal/services"
	"flashvpn-bot/pkg/db"
	"flashvpn-bot/pkg/telegrambot"
	"flashvpn-bot/pkg/xuiclient"
)

func main() {
	// Setup logger
	logger := setupLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}

	// Connect to the database and apply the schema
	database, err := db.Connect(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := repository.Migrate(context.Background(), database); err != nil {
		logger.Fatal("Failed to apply schema:", err)
	}

	// Initialize repositories
	accounts := repository.NewPostgresAccountRepository(database)
	deposits := repository.NewPostgresDepositRepository(database)

	// Initialize services
	panelClient := xuiclient.NewClient(cfg.Panel, logger)
	ledger := services.NewLedgerService(accounts, logger)
	payments := services.NewPaymentService(deposits, logger)
	subscription := services.NewSubscriptionService(accounts, ledger, panelClient, cfg.Panel.InboundID, logger)
	reconciler := services.NewExpiryReconciler(accounts, panelClient, cfg.Panel.InboundID,
		time.Duration(cfg.Sweep.IntervalSeconds)*time.Second, logger)
	stateService := services.NewUserStateService(logger)
	qrService := services.NewQRService(logger)

	// Setup permission controller and handlers
	permCtrl := permissions.NewController(cfg.Telegram.AdminIDs, logger)
	factory := handlers.NewHandlerFactory(accounts, subscription, payments, stateService, qrService, cfg, logger)

	// Initialize bot
	bot, err := telegrambot.NewBot(cfg, factory, permCtrl, logger)
	if err != nil {
		logger.Fatal("Failed to create bot:", err)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Start the expiry reconciler
	go reconciler.Run(ctx)

	// Start bot
	logger.Info("Starting FlashVPN bot")
	if err := bot.Start(ctx); err != nil {
		logger.Fatal("Bot failed:", err)
	}
}

// setupLogger sets up the logger
func setupLogger() *logrus.Logger {
	logger := logrus.New()

	// Set log level from environment variable or default to info
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
