// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Info().Msg("starting camera tester web server (MQTT subscriber)")
	log.Info().Msg("Note: progress only appears while ./calibration runs with MQTT_BROKER set")

	if err := app.RunWeb(cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
