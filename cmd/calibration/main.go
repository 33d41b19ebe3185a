// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Finds the LED PWM duty cycle that reproduces each reference light level
// (off, low, med, max) at the camera's film plane, as measured by a TSL2591
// behind the lens.
//
// Run:
//
//	go run ./cmd/calibration -config camera_tester.conf
//
// Exit status: 0 on success, 2 if a light level could not be found,
// 1 on configuration or hardware errors.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/camera_tester/internal/app"
	"github.com/relabs-tech/camera_tester/internal/config"
)

const (
	exitFailed = 2
	exitFatal  = 1
)

func main() {
	configPath := flag.String("config", "", "KEY=VALUE config file (defaults are used when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(exitFatal)
	}
	if err := app.SetupLogging(cfg.LogLevel); err != nil {
		log.Error().Err(err).Msg("failed to set up logging")
		os.Exit(exitFatal)
	}

	log.Info().Msg("starting camera tester calibration")

	outcome, err := app.RunCalibration(cfg, log.Logger, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(exitFatal)
	}
	if !outcome.OK() {
		os.Exit(exitFailed)
	}
}
