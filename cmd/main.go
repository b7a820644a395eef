package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bill_spider/internal/app"
	"bill_spider/internal/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("can't read .env")
	}

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("can't load config")
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.Logic.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.Logic.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	spider, err := app.NewBillApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("can't start bill spider")
	}

	if err := spider.Start(); err != nil {
		log.Fatal().Err(err).Msg("bill run failed")
	}

	log.Info().Msg("bill spider finished")
}
