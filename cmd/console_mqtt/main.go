package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/camera_tester/internal/app"
	"github.com/relabs-tech/camera_tester/internal/config"
)

func main() {
	configPath := flag.String("config", "", "KEY=VALUE config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := app.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	log.Info().Msg("starting camera tester console (MQTT subscriber)")

	if err := app.RunConsoleMQTT(cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
