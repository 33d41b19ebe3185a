// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/camera_tester/internal/config"
	"github.com/relabs-tech/camera_tester/internal/scan"
	"github.com/relabs-tech/camera_tester/internal/sensors"
)

// LED is a PWM output that can be switched off on shutdown.
type LED interface {
	scan.PWM
	Halt() error
}

// Rig bundles the LED and light sensor used for a calibration run.
type Rig struct {
	LED         LED
	Sensor      scan.LightSensor
	Integration time.Duration
	Sleep       func(time.Duration)

	// Bus is the I²C bus the sensor sits on; nil for the simulated rig.
	Bus i2c.Bus

	closers []func() error
}

// Close switches the LED off and releases the hardware.
func (r *Rig) Close() error {
	var errs []error
	if r.LED != nil {
		if err := r.LED.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("led: halt: %w", err))
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenRig builds the rig selected by cfg.Rig.
func OpenRig(cfg *config.Config) (*Rig, error) {
	switch cfg.Rig {
	case config.RigSimulated:
		sim := sensors.NewSimulatedRig(cfg.SimAmbientLux, cfg.SimPeakLux, cfg.SimGamma)
		return &Rig{
			LED:         sim,
			Sensor:      sim,
			Integration: cfg.SensorIntegrationTime,
			Sleep:       func(time.Duration) {},
		}, nil
	case config.RigHardware:
		return openHardwareRig(cfg)
	}
	return nil, fmt.Errorf("unknown rig %q", cfg.Rig)
}

func openHardwareRig(cfg *config.Config) (*Rig, error) {
	gain, err := sensors.ParseGain(cfg.SensorGain)
	if err != nil {
		return nil, err
	}
	integ, err := sensors.IntegrationFor(cfg.SensorIntegrationTime)
	if err != nil {
		return nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
	}
	rig := &Rig{Integration: cfg.SensorIntegrationTime, Sleep: time.Sleep, Bus: bus}
	rig.closers = append(rig.closers, bus.Close)

	tsl, err := sensors.NewTSL2591(bus, cfg.SensorI2CAddr, sensors.Opts{Gain: gain, Integration: integ})
	if err != nil {
		rig.Close()
		return nil, err
	}
	rig.Sensor = tsl
	rig.closers = append(rig.closers, tsl.Halt)

	freq := physic.Frequency(cfg.PWMFrequencyHz) * physic.Hertz
	led, err := openLED(cfg, bus, freq)
	if err != nil {
		rig.Close()
		return nil, err
	}
	rig.LED = led
	return rig, nil
}

func openLED(cfg *config.Config, bus i2c.Bus, freq physic.Frequency) (LED, error) {
	if cfg.LEDDriver == config.LEDDriverPCA9685 {
		return sensors.NewPCA9685LED(bus, cfg.LEDPCA9685Addr, cfg.LEDPCA9685Channel, freq)
	}
	return sensors.OpenGPIOLED(cfg.LEDPin, freq)
}
