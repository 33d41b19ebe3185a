// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration locates, for each comparalumen level, the LED duty
// cycle whose illumination falls inside the level's window.
//
// Flow:
//  1. Coarse sweep of the full duty range (101 samples).
//  2. Gate: ambient must be below the OFF window and LOW/MED/MAX must each
//     have at least one match. OFF is optional.
//  3. One refinement sweep (21 samples) per band whose matches span more than
//     RefineSpan, restricted to that span.
//  4. Median of each band's duty cycles.
package calibration

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/photometry"
	"github.com/relabs-tech/camera_tester/internal/scan"
)

const (
	FullScaleDuty   = 65535
	CoarseDivisions = 100
	RefineDivisions = 20
	RefineSpan      = 20 // refine only when max-min exceeds this
)

// Scanner runs a duty-cycle sweep.
type Scanner interface {
	Scan(min, max uint16, divisions int) (*scan.Result, error)
}

// Observer is notified of stage transitions and the final outcome.
type Observer interface {
	StageEntered(stage Stage)
	Finished(o *Outcome)
}

// Calibrator runs the scan-and-refine search.
type Calibrator struct {
	scanner  Scanner
	targets  *photometry.Targets
	observer Observer
	log      zerolog.Logger
}

// New creates a Calibrator. observer may be nil.
func New(scanner Scanner, targets *photometry.Targets, observer Observer, logger zerolog.Logger) *Calibrator {
	return &Calibrator{
		scanner:  scanner,
		targets:  targets,
		observer: observer,
		log:      logger,
	}
}

func (c *Calibrator) enter(stage Stage) {
	c.log.Debug().Str("stage", string(stage)).Msg("calibration: stage")
	if c.observer != nil {
		c.observer.StageEntered(stage)
	}
}

// Run performs one calibration pass. Expected failures are reported in the
// outcome; an error means the hardware could not be driven.
func (c *Calibrator) Run() (*Outcome, error) {
	c.enter(StageInitialScan)
	c.log.Info().Msg("Finding value ranges ...")

	coarse, err := c.scanner.Scan(0, FullScaleDuty, CoarseDivisions)
	if err != nil {
		return nil, fmt.Errorf("calibration: initial scan: %w", err)
	}

	out := &Outcome{Ambient: coarse.Ambient, Coarse: coarse}
	for id := range out.Settings {
		out.Settings[id].Band = c.targets.Bands[id]
	}

	out.Failures = c.gate(coarse)
	if len(out.Failures) > 0 {
		return c.finish(out), nil
	}

	for id := photometry.Off; id <= photometry.Max; id++ {
		band := c.targets.Band(id)
		duties := coarse.Band(id)

		if id == photometry.Off && len(duties) == 0 {
			c.log.Warn().Msgf("No light level range found for %s (%g)", band.Label, band.Luminance)
			continue
		}

		c.enter(refineStages[id])
		c.log.Info().Msgf("Refining range for %s ...", id)

		setting, err := c.refine(band, duties)
		if err != nil {
			return nil, err
		}
		out.Settings[id] = setting

		if !setting.Found {
			if id == photometry.Off {
				c.log.Warn().Msgf("Light level range for %s (%g) lost during refinement", band.Label, band.Luminance)
				continue
			}
			out.Failures = append(out.Failures, Failure{Reason: BandLost, Band: band})
		}
	}

	return c.finish(out), nil
}

// gate checks every precondition for refinement and reports each one that fails.
func (c *Calibrator) gate(coarse *scan.Result) []Failure {
	var failures []Failure
	off := c.targets.Band(photometry.Off)
	if !(coarse.Ambient < off.Max) {
		failures = append(failures, Failure{Reason: AmbientTooBright, Band: off, Ambient: coarse.Ambient})
	}
	for _, id := range []photometry.BandID{photometry.Low, photometry.Med, photometry.Max} {
		if len(coarse.Band(id)) == 0 {
			failures = append(failures, Failure{Reason: BandNotFound, Band: c.targets.Band(id)})
		}
	}
	return failures
}

// refine narrows one band with a single re-sweep and reduces it to its median.
func (c *Calibrator) refine(band photometry.Band, duties []uint16) (Setting, error) {
	setting := Setting{Band: band}

	lo, hi := span(duties)
	if int(hi)-int(lo) > RefineSpan {
		res, err := c.scanner.Scan(lo, hi, RefineDivisions)
		if err != nil {
			return setting, fmt.Errorf("calibration: refine %s: %w", band.ID, err)
		}
		duties = res.Band(band.ID)
		setting.Refined = true
		c.log.Debug().
			Str("band", band.ID.String()).
			Uint16("min", lo).
			Uint16("max", hi).
			Int("matches", len(duties)).
			Msg("calibration: refined")
	}

	m, ok := Median(duties)
	if !ok {
		return setting, nil
	}
	setting.Duty = uint16(m)
	setting.Found = true
	setting.Samples = len(duties)
	return setting, nil
}

func (c *Calibrator) finish(out *Outcome) *Outcome {
	if out.OK() {
		c.enter(StageReportSuccess)
	} else {
		c.enter(StageReportFailure)
	}
	if c.observer != nil {
		c.observer.Finished(out)
	}
	return out
}

func span(duties []uint16) (lo, hi uint16) {
	lo, hi = duties[0], duties[0]
	for _, d := range duties[1:] {
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}
