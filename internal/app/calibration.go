// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/camera_tester/internal/calibration"
	"github.com/relabs-tech/camera_tester/internal/config"
	"github.com/relabs-tech/camera_tester/internal/photometry"
	"github.com/relabs-tech/camera_tester/internal/progress"
	"github.com/relabs-tech/camera_tester/internal/report"
	"github.com/relabs-tech/camera_tester/internal/scan"
)

// RunCalibration finds the PWM duty cycle for each reference light level.
// Once the coarse sweep passes the gate the settings are printed to w, with
// "none" for bands that were not resolved. Every failed condition is logged. The returned error is only set for hardware or
// setup problems.
func RunCalibration(cfg *config.Config, logger zerolog.Logger, w io.Writer) (*calibration.Outcome, error) {
	rig, err := OpenRig(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rig.Close(); err != nil {
			logger.Warn().Err(err).Msg("calibration: rig shutdown error")
		}
	}()
	logger.Info().Str("rig", cfg.Rig).Msg("calibration: rig ready")

	optics := photometry.Optics{
		Transmittance: cfg.LensTransmittance,
		FNumber:       cfg.LensFNumber,
		Magnification: cfg.LensMagnification,
	}
	targets := photometry.NewTargets(optics, cfg.Tolerance)
	targets.LogBounds(logger)

	sinks, closeSinks, err := openSinks(cfg, rig.Bus, logger)
	if err != nil {
		return nil, err
	}
	defer closeSinks()

	rec := progress.NewRecorder(func(ev progress.Event) {
		for _, sink := range sinks {
			sink(ev)
		}
	})

	scanner, err := scan.New(rig.LED, rig.Sensor, targets, scan.Options{
		Settle:      cfg.SettleDelay,
		Integration: rig.Integration,
		Sleep:       rig.Sleep,
		Observer:    rec,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	out, err := calibration.New(scanner, targets, rec, logger).Run()
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}

	if err := writeReport(w, logger, out); err != nil {
		return out, err
	}
	return out, nil
}

// writeReport prints the resolved settings once the coarse sweep passed the
// gate, then logs every failure.
func writeReport(w io.Writer, logger zerolog.Logger, out *calibration.Outcome) error {
	if out.GatePassed() {
		if err := report.Print(w, out); err != nil {
			return fmt.Errorf("calibration: write report: %w", err)
		}
	}
	report.LogFailures(logger, out)
	return nil
}

// openSinks connects the optional progress outputs. The display shares
// rigBus when the rig has one.
func openSinks(cfg *config.Config, rigBus i2c.Bus, logger zerolog.Logger) ([]func(progress.Event), func(), error) {
	var (
		sinks   []func(progress.Event)
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.MQTTBroker != "" {
		pub, err := NewPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicProgress, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, pub.Publish)
		closers = append(closers, pub.Close)
	}

	if cfg.DisplayEnabled {
		bus, release, err := displayBus(cfg, rigBus)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		disp, err := NewDisplay(bus, cfg.DisplayI2CAddr, logger)
		if err != nil {
			release()
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, disp.Show)
		// the final screen stays up; only the bus is released
		closers = append(closers, release)
	}

	return sinks, closeAll, nil
}

// displayBus returns rigBus when set, otherwise opens cfg.I2CBus. release
// only closes a bus opened here.
func displayBus(cfg *config.Config, rigBus i2c.Bus) (bus i2c.Bus, release func(), err error) {
	if rigBus != nil {
		return rigBus, func() {}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	opened, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus for display: %w", err)
	}
	return opened, func() { opened.Close() }, nil
}
