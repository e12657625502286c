package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Fatebook/internal/api/fatebook"
	"github.com/Alias1177/Fatebook/internal/config"
	"github.com/Alias1177/Fatebook/internal/database"
	"github.com/Alias1177/Fatebook/internal/forecast"
	"github.com/Alias1177/Fatebook/internal/host/telegram"
	"github.com/Alias1177/Fatebook/internal/plugin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, database.ConnectionParams{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	logger.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")

	client := fatebook.NewClient(fatebook.ClientOptions{
		BaseURL:        cfg.FatebookBaseURL,
		RequestTimeout: cfg.RequestTimeoutDuration(),
		RequestsPerSec: cfg.RequestsPerSec,
	})
	p := plugin.New(forecast.NewSubmitter(client))

	bot := telegram.New(api, p, db, telegram.Options{FormTimeout: cfg.FormTimeoutDuration()})
	p.Register(bot)
	if err := bot.SyncCommands(); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish bot commands")
	}

	// Setup update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	logger.Info().Msg("Listening for updates")
	bot.Run(ctx, updates)
	api.StopReceivingUpdates()
	logger.Info().Msg("Shut down")
}
