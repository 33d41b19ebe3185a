// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/camera_tester/internal/app"
	"github.com/relabs-tech/camera_tester/internal/config"
)

func main() {
	configPath := flag.String("config", "", "KEY=VALUE config file")
	asJSON := flag.Bool("json", false, "print registers as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := app.SetupLogging(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	log.Info().Msg("starting TSL2591 register dump")

	if err := app.RunRegisterDump(cfg, log.Logger, os.Stdout, *asJSON); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
