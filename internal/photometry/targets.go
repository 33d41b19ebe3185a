// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package photometry turns the comparalumen luminance references of the SX-70
// repair manual into illumination windows (lux) measured at the sensor plane.
//
// Expected illumination for an object of luminance B seen through a lens:
//
//	E = (t * pi * B) / (4 * N^2 * (1+m)^2)
//
// where E is in foot-candles (divide by 0.0929 to get lux), t is the lens
// transmittance, N the f-number and m the image magnification.
package photometry

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// FootCandleLux converts foot-candles to lux (lux = fc / FootCandleLux).
const FootCandleLux = 0.0929

// DefaultTolerance widens each expected value into a match window.
const DefaultTolerance = 0.08

// Optics holds the optical constants of the camera fixture.
type Optics struct {
	Transmittance float64
	FNumber       float64
	Magnification float64
}

// DefaultOptics matches the SX-70 lens at f/8 focused at infinity.
var DefaultOptics = Optics{
	Transmittance: 0.95,
	FNumber:       8.0,
	Magnification: 0.0,
}

// Illuminance returns the expected illumination in lux for a luminance in cd/ft².
func (o Optics) Illuminance(luminance float64) float64 {
	denom := 4 * o.FNumber * o.FNumber * (1 + o.Magnification) * (1 + o.Magnification)
	fc := (o.Transmittance * math.Pi * luminance) / denom
	return fc / FootCandleLux
}

// BandID identifies one of the four calibration levels.
// The numeric order is also the classification priority.
type BandID int

const (
	Off BandID = iota
	Low
	Med
	Max

	NumBands = 4
)

func (b BandID) String() string {
	switch b {
	case Off:
		return "OFF"
	case Low:
		return "LOW"
	case Med:
		return "MED"
	case Max:
		return "MAX"
	default:
		return fmt.Sprintf("BandID(%d)", int(b))
	}
}

// Reference is one entry of the comparalumen light level table.
type Reference struct {
	Band      BandID
	Label     string
	Luminance float64 // cd/ft²
}

// References is the comparalumen table in classification order.
var References = [NumBands]Reference{
	{Band: Off, Label: "off", Luminance: 6.25},
	{Band: Low, Label: "low", Luminance: 50},
	{Band: Med, Label: "med", Luminance: 100},
	{Band: Max, Label: "max", Luminance: 800},
}

// Band is a target illumination window.
type Band struct {
	ID        BandID
	Label     string
	Luminance float64
	Expected  float64 // lux
	Min       float64 // lux, inclusive
	Max       float64 // lux, exclusive
}

// Contains reports whether lux falls inside the window.
func (b Band) Contains(lux float64) bool {
	return lux >= b.Min && lux < b.Max
}

// Targets is the immutable set of calibration windows.
type Targets struct {
	Optics    Optics
	Tolerance float64
	Bands     [NumBands]Band

	// LuxLimit is the hard safety ceiling: twice the top of the brightest window.
	LuxLimit float64
}

// NewTargets derives the four windows and the safety ceiling.
func NewTargets(optics Optics, tolerance float64) *Targets {
	t := &Targets{Optics: optics, Tolerance: tolerance}
	for i, ref := range References {
		expected := optics.Illuminance(ref.Luminance)
		t.Bands[i] = Band{
			ID:        ref.Band,
			Label:     ref.Label,
			Luminance: ref.Luminance,
			Expected:  expected,
			Min:       expected - expected*tolerance,
			Max:       expected + expected*tolerance,
		}
	}
	t.LuxLimit = t.Bands[Max].Max * 2
	return t
}

// Band returns the window for id.
func (t *Targets) Band(id BandID) Band {
	return t.Bands[id]
}

// Classify returns the first window, in OFF, LOW, MED, MAX order, containing lux.
func (t *Targets) Classify(lux float64) (BandID, bool) {
	for _, b := range t.Bands {
		if b.Contains(lux) {
			return b.ID, true
		}
	}
	return 0, false
}

// Exceeds reports whether lux is above the safety ceiling.
func (t *Targets) Exceeds(lux float64) bool {
	return lux > t.LuxLimit
}

// LogBounds logs every window and the safety ceiling.
func (t *Targets) LogBounds(logger zerolog.Logger) {
	for _, b := range t.Bands {
		logger.Info().
			Str("band", b.ID.String()).
			Float64("luminance", b.Luminance).
			Float64("expected_lux", b.Expected).
			Float64("min_lux", b.Min).
			Float64("max_lux", b.Max).
			Msg("target window")
	}
	logger.Info().Float64("lux_limit", t.LuxLimit).Msg("safety ceiling")
}
