package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/calibration"
	"github.com/relabs-tech/camera_tester/internal/photometry"
)

func outcome() *calibration.Outcome {
	tgt := photometry.NewTargets(photometry.DefaultOptics, photometry.DefaultTolerance)
	o := &calibration.Outcome{}
	for i := range o.Settings {
		o.Settings[i].Band = tgt.Bands[i]
	}
	return o
}

func TestPrint(t *testing.T) {
	o := outcome()
	o.Settings[photometry.Low].Found, o.Settings[photometry.Low].Duty = true, 30145
	o.Settings[photometry.Med].Found, o.Settings[photometry.Med].Duty = true, 45218
	o.Settings[photometry.Max].Found, o.Settings[photometry.Max].Duty = true, 60291

	var buf bytes.Buffer
	if err := Print(&buf, o); err != nil {
		t.Fatalf("Print: %v", err)
	}
	want := strings.Join([]string{
		"PWM setting for off (6.25) = none",
		"PWM setting for low (50) = 30145",
		"PWM setting for med (100) = 45218",
		"PWM setting for max (800) = 60291",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("Print() =\n%s\nwant\n%s", got, want)
	}
}

func TestLogFailures(t *testing.T) {
	o := outcome()
	o.Failures = []calibration.Failure{
		{Reason: calibration.BandNotFound, Band: o.Settings[photometry.Low].Band},
		{Reason: calibration.BandNotFound, Band: o.Settings[photometry.Med].Band},
	}

	var buf bytes.Buffer
	LogFailures(zerolog.New(&buf), o)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}
	var entry struct {
		Level   string `json:"level"`
		Band    string `json:"band"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Level != "error" || entry.Band != "MED" || entry.Message != "No light level range found for med (100)" {
		t.Errorf("unexpected entry %+v", entry)
	}
}
