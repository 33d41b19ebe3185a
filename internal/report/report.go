// Package report prints calibration results.
package report

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/calibration"
)

// Print writes one line per band with its resolved PWM setting.
// Bands that were not resolved print "none".
func Print(w io.Writer, o *calibration.Outcome) error {
	for _, s := range o.Settings {
		value := "none"
		if s.Found {
			value = fmt.Sprintf("%d", s.Duty)
		}
		if _, err := fmt.Fprintf(w, "PWM setting for %s (%g) = %s\n", s.Band.Label, s.Band.Luminance, value); err != nil {
			return err
		}
	}
	return nil
}

// LogFailures logs one error per failed condition.
func LogFailures(logger zerolog.Logger, o *calibration.Outcome) {
	for _, f := range o.Failures {
		logger.Error().Str("band", f.Band.ID.String()).Msg(f.Error())
	}
}
