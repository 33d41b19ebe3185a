// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package scan sweeps the LED duty cycle across a range and sorts the
// resulting illumination readings into the calibration windows.
package scan

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/photometry"
)

// ErrSaturated is returned (wrapped) by a LightSensor whose ADC overflowed.
// The scanner treats it as a reading above the safety ceiling.
var ErrSaturated = errors.New("light sensor saturated")

// PWM drives the LED. The last duty cycle set stays active.
type PWM interface {
	SetDutyCycle(duty uint16) error
}

// LightSensor reads illumination in lux.
type LightSensor interface {
	ReadLux() (float64, error)
}

// ChannelReader is implemented by sensors exposing their raw channels.
// Only used for diagnostic logging.
type ChannelReader interface {
	ReadChannels() (visible, infrared uint32, err error)
}

// Observer is notified of scan progress.
type Observer interface {
	ScanStarted(p Params)
	SampleTaken(s Sample)
	ScanFinished(r *Result)
}

// Params describes one sweep.
type Params struct {
	Min       uint16
	Max       uint16
	Divisions int
}

// Sample is a single reading taken during a sweep.
type Sample struct {
	Index   int
	Duty    uint16
	Lux     float64
	Band    photometry.BandID
	Matched bool
}

// Result is the outcome of one sweep.
type Result struct {
	Params  Params
	Ambient float64 // reading at index 0
	Duties  [photometry.NumBands][]uint16
	Samples int
	Aborted bool // stopped at the safety ceiling
}

// Band returns the duty cycles that landed in the given window.
func (r *Result) Band(id photometry.BandID) []uint16 {
	return r.Duties[id]
}

// Options configures a Scanner.
type Options struct {
	// Settle is the wait between setting the duty cycle and reading the sensor.
	// It must exceed Integration.
	Settle      time.Duration
	Integration time.Duration

	Sleep    func(time.Duration) // defaults to time.Sleep
	Observer Observer
	Logger   zerolog.Logger
}

// Scanner performs duty-cycle sweeps. Not safe for concurrent use: it owns
// the LED and the sensor for the duration of a sweep.
type Scanner struct {
	pwm     PWM
	sensor  LightSensor
	targets *photometry.Targets

	settle   time.Duration
	sleep    func(time.Duration)
	observer Observer
	log      zerolog.Logger
}

// New builds a Scanner.
func New(pwm PWM, sensor LightSensor, targets *photometry.Targets, opts Options) (*Scanner, error) {
	if pwm == nil || sensor == nil || targets == nil {
		return nil, errors.New("scan: pwm, sensor and targets are required")
	}
	if opts.Settle <= opts.Integration {
		return nil, fmt.Errorf("scan: settle delay %s must exceed sensor integration time %s",
			opts.Settle, opts.Integration)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Scanner{
		pwm:      pwm,
		sensor:   sensor,
		targets:  targets,
		settle:   opts.Settle,
		sleep:    sleep,
		observer: opts.Observer,
		log:      opts.Logger,
	}, nil
}

// Duty returns the duty cycle of step i of a sweep.
func Duty(min, max uint16, divisions, i int) uint16 {
	return uint16(int(min) + i*(int(max)-int(min))/divisions)
}

// Scan steps the LED from min to max (both inclusive) in divisions+1 steps.
// Readings above the safety ceiling stop the sweep; the partial result is
// returned without error. An error is only returned for invalid arguments or
// hardware faults.
func (s *Scanner) Scan(min, max uint16, divisions int) (*Result, error) {
	if divisions <= 0 {
		return nil, fmt.Errorf("scan: divisions must be positive, got %d", divisions)
	}
	if min > max {
		return nil, fmt.Errorf("scan: min duty %d above max duty %d", min, max)
	}

	p := Params{Min: min, Max: max, Divisions: divisions}
	res := &Result{Params: p}
	if s.observer != nil {
		s.observer.ScanStarted(p)
	}
	s.log.Debug().Uint16("min", min).Uint16("max", max).Int("divisions", divisions).Msg("scan: start")

	for i := 0; i <= divisions; i++ {
		duty := Duty(min, max, divisions, i)
		if err := s.pwm.SetDutyCycle(duty); err != nil {
			return nil, fmt.Errorf("scan: set duty cycle %d: %w", duty, err)
		}
		s.sleep(s.settle)

		lux, err := s.sensor.ReadLux()
		if errors.Is(err, ErrSaturated) {
			res.Samples++
			res.Aborted = true
			if i == 0 {
				// ambient alone overflowed the sensor; record it as the ceiling
				res.Ambient = s.targets.LuxLimit
			}
			s.log.Warn().Uint16("duty", duty).Float64("lux_limit", s.targets.LuxLimit).
				Msg("Light sensor saturated, stopping scan")
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan: read lux at duty %d: %w", duty, err)
		}
		res.Samples++

		if i == 0 {
			res.Ambient = lux
		}

		sample := Sample{Index: i, Duty: duty, Lux: lux}
		if band, ok := s.targets.Classify(lux); ok {
			sample.Band, sample.Matched = band, true
			res.Duties[band] = append(res.Duties[band], duty)
			s.logMatch(band, duty, lux)
		}
		if s.observer != nil {
			s.observer.SampleTaken(sample)
		}

		if s.targets.Exceeds(lux) {
			res.Aborted = true
			s.log.Warn().Float64("lux", lux).Float64("lux_limit", s.targets.LuxLimit).
				Msg("Light level exceeds allowed limit, stopping scan")
			break
		}
	}

	if s.observer != nil {
		s.observer.ScanFinished(res)
	}
	return res, nil
}

func (s *Scanner) logMatch(band photometry.BandID, duty uint16, lux float64) {
	ev := s.log.Debug()
	if !ev.Enabled() {
		return
	}
	ev = ev.Str("band", band.String()).Uint16("duty", duty).Float64("lux", lux)
	if cr, ok := s.sensor.(ChannelReader); ok {
		if vis, ir, err := cr.ReadChannels(); err == nil {
			ev = ev.Uint32("visible", vis).Uint32("infrared", ir)
		}
	}
	ev.Msg("scan: match")
}
