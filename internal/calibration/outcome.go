// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"

	"github.com/relabs-tech/camera_tester/internal/photometry"
	"github.com/relabs-tech/camera_tester/internal/scan"
)

// Stage is a step of the calibration state machine.
type Stage string

const (
	StageInitialScan   Stage = "initial_scan"
	StageRefineOff     Stage = "refine_off"
	StageRefineLow     Stage = "refine_low"
	StageRefineMed     Stage = "refine_med"
	StageRefineMax     Stage = "refine_max"
	StageReportSuccess Stage = "report_success"
	StageReportFailure Stage = "report_failure"
)

var refineStages = [photometry.NumBands]Stage{
	photometry.Off: StageRefineOff,
	photometry.Low: StageRefineLow,
	photometry.Med: StageRefineMed,
	photometry.Max: StageRefineMax,
}

// Reason classifies a calibration failure.
type Reason int

const (
	// AmbientTooBright: the zero-duty reading is not below the OFF window's top.
	AmbientTooBright Reason = iota
	// BandNotFound: the coarse sweep produced no reading in a required window.
	BandNotFound
	// BandLost: the refinement sweep produced no reading in a required window.
	BandLost
)

// Failure is one reason the calibration could not complete.
type Failure struct {
	Reason  Reason
	Band    photometry.Band
	Ambient float64
}

func (f Failure) Error() string {
	switch f.Reason {
	case AmbientTooBright:
		return fmt.Sprintf("Ambient light level %g exceeds allowed limit %g", f.Ambient, f.Band.Max)
	case BandLost:
		return fmt.Sprintf("Light level range for %s (%g) lost during refinement", f.Band.Label, f.Band.Luminance)
	default:
		return fmt.Sprintf("No light level range found for %s (%g)", f.Band.Label, f.Band.Luminance)
	}
}

// Setting is the resolved PWM value of one band.
type Setting struct {
	Band    photometry.Band
	Duty    uint16
	Found   bool
	Refined bool // a refinement sweep was run
	Samples int  // duty cycles the median was taken over
}

// Outcome is the result of a calibration run.
type Outcome struct {
	Ambient  float64
	Settings [photometry.NumBands]Setting
	Failures []Failure
	Coarse   *scan.Result
}

// OK reports whether LOW, MED and MAX were all resolved.
func (o *Outcome) OK() bool {
	return len(o.Failures) == 0
}

// GatePassed reports whether the coarse sweep allowed refinement, i.e. only
// refinement failures, if any, were recorded.
func (o *Outcome) GatePassed() bool {
	for _, f := range o.Failures {
		if f.Reason != BandLost {
			return false
		}
	}
	return true
}

// Failed reports whether a failure names the given band.
func (o *Outcome) Failed(id photometry.BandID) bool {
	for _, f := range o.Failures {
		if f.Reason != AmbientTooBright && f.Band.ID == id {
			return true
		}
	}
	return false
}
