// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/config"
	"github.com/relabs-tech/camera_tester/internal/sensors"
)

// RunRegisterDump reads every TSL2591 register and writes them to w, as a
// table or as JSON.
func RunRegisterDump(cfg *config.Config, logger zerolog.Logger, w io.Writer, asJSON bool) error {
	gain, err := sensors.ParseGain(cfg.SensorGain)
	if err != nil {
		return err
	}
	integ, err := sensors.IntegrationFor(cfg.SensorIntegrationTime)
	if err != nil {
		return err
	}
	tsl, closer, err := sensors.OpenTSL2591(cfg.I2CBus, cfg.SensorI2CAddr, sensors.Opts{Gain: gain, Integration: integ})
	if err != nil {
		return err
	}
	defer closer()
	logger.Info().Msgf("register_debug: opened %s", tsl)

	regs, err := tsl.DumpRegisters()
	if err != nil {
		return err
	}
	return WriteRegisters(w, regs, asJSON)
}

// WriteRegisters formats a register dump.
func WriteRegisters(w io.Writer, regs []sensors.RegisterValue, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(regs)
	}
	for _, r := range regs {
		if _, err := fmt.Fprintf(w, "0x%02X %-8s 0x%02X  %08b  %s\n", r.Address, r.Name, r.Value, r.Value, r.Description); err != nil {
			return err
		}
	}
	return nil
}
