package scan

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/photometry"
)

// fakeRig is an LED and sensor pair whose reading depends on the duty cycle.
type fakeRig struct {
	duty    uint16
	set     []uint16
	luxFor  func(duty uint16) float64
	readErr func(duty uint16) error
}

func (f *fakeRig) SetDutyCycle(duty uint16) error {
	f.duty = duty
	f.set = append(f.set, duty)
	return nil
}

func (f *fakeRig) ReadLux() (float64, error) {
	if f.readErr != nil {
		if err := f.readErr(f.duty); err != nil {
			return 0, err
		}
	}
	return f.luxFor(f.duty), nil
}

type recorder struct {
	started  []Params
	samples  []Sample
	finished []*Result
}

func (r *recorder) ScanStarted(p Params)   { r.started = append(r.started, p) }
func (r *recorder) SampleTaken(s Sample)   { r.samples = append(r.samples, s) }
func (r *recorder) ScanFinished(x *Result) { r.finished = append(r.finished, x) }

func newTestScanner(t *testing.T, rig *fakeRig, obs Observer) (*Scanner, *photometry.Targets) {
	t.Helper()
	targets := photometry.NewTargets(photometry.DefaultOptics, photometry.DefaultTolerance)
	s, err := New(rig, rig, targets, Options{
		Settle:      500 * time.Millisecond,
		Integration: 400 * time.Millisecond,
		Sleep:       func(time.Duration) {},
		Observer:    obs,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, targets
}

func TestNew_SettleMustExceedIntegration(t *testing.T) {
	targets := photometry.NewTargets(photometry.DefaultOptics, photometry.DefaultTolerance)
	rig := &fakeRig{luxFor: func(uint16) float64 { return 0 }}
	for _, settle := range []time.Duration{300 * time.Millisecond, 400 * time.Millisecond} {
		_, err := New(rig, rig, targets, Options{Settle: settle, Integration: 400 * time.Millisecond})
		if err == nil {
			t.Errorf("settle %s: expected error", settle)
		}
	}
}

func TestScan_SamplesEvenlyInclusive(t *testing.T) {
	tests := []struct {
		min, max  uint16
		divisions int
	}{
		{min: 0, max: 65535, divisions: 100},
		{min: 29490, max: 30801, divisions: 20},
		{min: 100, max: 100, divisions: 20},
		{min: 0, max: 7, divisions: 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d/%d", tt.min, tt.max, tt.divisions), func(t *testing.T) {
			rig := &fakeRig{luxFor: func(uint16) float64 { return 0 }}
			s, _ := newTestScanner(t, rig, nil)

			res, err := s.Scan(tt.min, tt.max, tt.divisions)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if res.Samples != tt.divisions+1 || len(rig.set) != tt.divisions+1 {
				t.Fatalf("samples = %d (set %d), want %d", res.Samples, len(rig.set), tt.divisions+1)
			}
			if rig.set[0] != tt.min || rig.set[len(rig.set)-1] != tt.max {
				t.Errorf("first/last duty = %d/%d, want %d/%d", rig.set[0], rig.set[len(rig.set)-1], tt.min, tt.max)
			}
			for i, d := range rig.set {
				want := uint16(int(tt.min) + i*(int(tt.max)-int(tt.min))/tt.divisions)
				if d != want {
					t.Errorf("step %d duty = %d, want %d", i, d, want)
				}
			}
			if res.Aborted {
				t.Error("scan should not be aborted")
			}
		})
	}
}

func TestScan_AmbientIsFirstReading(t *testing.T) {
	rig := &fakeRig{luxFor: func(d uint16) float64 { return 0.1 + float64(d)/1000 }}
	s, _ := newTestScanner(t, rig, nil)

	res, err := s.Scan(0, 1000, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Ambient != 0.1 {
		t.Errorf("Ambient = %v, want 0.1", res.Ambient)
	}
}

func TestScan_ClassifiesIntoBands(t *testing.T) {
	targets := photometry.NewTargets(photometry.DefaultOptics, photometry.DefaultTolerance)
	lux := map[uint16]float64{
		0: targets.Bands[photometry.Off].Expected,
		1: targets.Bands[photometry.Low].Expected,
		2: targets.Bands[photometry.Med].Expected,
		3: targets.Bands[photometry.Max].Expected,
		4: 0,
	}
	rig := &fakeRig{luxFor: func(d uint16) float64 { return lux[d] }}
	rec := &recorder{}
	s, _ := newTestScanner(t, rig, rec)

	res, err := s.Scan(0, 4, 4)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for id := photometry.Off; id <= photometry.Max; id++ {
		got := res.Band(id)
		if len(got) != 1 || got[0] != uint16(id) {
			t.Errorf("%s duties = %v, want [%d]", id, got, id)
		}
	}
	if len(rec.started) != 1 || len(rec.finished) != 1 || len(rec.samples) != 5 {
		t.Fatalf("observer saw %d starts, %d samples, %d finishes", len(rec.started), len(rec.samples), len(rec.finished))
	}
	if rec.samples[4].Matched {
		t.Error("dark sample should not match a band")
	}
	if !rec.samples[2].Matched || rec.samples[2].Band != photometry.Med {
		t.Errorf("sample 2 = %+v, want MED match", rec.samples[2])
	}
}

func TestScan_EachReadingInAtMostOneBand(t *testing.T) {
	targets := photometry.NewTargets(photometry.DefaultOptics, 0.9)
	rig := &fakeRig{luxFor: func(uint16) float64 { return 1.0 }} // inside OFF and LOW
	s, err := New(rig, rig, targets, Options{
		Settle: time.Second, Integration: 0, Sleep: func(time.Duration) {}, Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := s.Scan(0, 10, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Band(photometry.Off)) != 11 || len(res.Band(photometry.Low)) != 0 {
		t.Errorf("OFF=%d LOW=%d, want 11 and 0", len(res.Band(photometry.Off)), len(res.Band(photometry.Low)))
	}
}

func TestScan_StopsAboveLuxLimit(t *testing.T) {
	var limit float64
	rig := &fakeRig{luxFor: func(d uint16) float64 {
		if d >= 30000 {
			return limit + 1
		}
		return 0
	}}
	s, targets := newTestScanner(t, rig, nil)
	limit = targets.LuxLimit

	res, err := s.Scan(0, 65535, 100)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// first step at or above 30000 is i=46 (30146)
	if res.Samples != 47 || len(rig.set) != 47 {
		t.Errorf("samples = %d (set %d), want 47", res.Samples, len(rig.set))
	}
	if !res.Aborted {
		t.Error("expected aborted scan")
	}
	if last := rig.set[len(rig.set)-1]; last != 30146 {
		t.Errorf("last duty = %d, want 30146", last)
	}
}

func TestScan_SaturationStopsScan(t *testing.T) {
	rig := &fakeRig{
		luxFor: func(uint16) float64 { return 0 },
		readErr: func(d uint16) error {
			if d >= 50 {
				return fmt.Errorf("tsl2591: %w", ErrSaturated)
			}
			return nil
		},
	}
	s, _ := newTestScanner(t, rig, nil)

	res, err := s.Scan(0, 100, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Aborted || res.Samples != 6 {
		t.Errorf("aborted=%v samples=%d, want true and 6", res.Aborted, res.Samples)
	}
}

func TestScan_SaturatedAmbientRecordedAtCeiling(t *testing.T) {
	rig := &fakeRig{
		luxFor:  func(uint16) float64 { return 0 },
		readErr: func(uint16) error { return fmt.Errorf("tsl2591: %w", ErrSaturated) },
	}
	s, targets := newTestScanner(t, rig, nil)

	res, err := s.Scan(0, 65535, 100)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !res.Aborted || res.Samples != 1 {
		t.Errorf("aborted=%v samples=%d, want true and 1", res.Aborted, res.Samples)
	}
	if res.Ambient != targets.LuxLimit {
		t.Errorf("ambient = %v, want lux limit %v", res.Ambient, targets.LuxLimit)
	}
}

func TestScan_HardwareErrorPropagates(t *testing.T) {
	boom := errors.New("i2c nack")
	rig := &fakeRig{
		luxFor:  func(uint16) float64 { return 0 },
		readErr: func(uint16) error { return boom },
	}
	s, _ := newTestScanner(t, rig, nil)

	if _, err := s.Scan(0, 100, 10); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestScan_InvalidArguments(t *testing.T) {
	rig := &fakeRig{luxFor: func(uint16) float64 { return 0 }}
	s, _ := newTestScanner(t, rig, nil)

	if _, err := s.Scan(0, 100, 0); err == nil {
		t.Error("expected error for zero divisions")
	}
	if _, err := s.Scan(200, 100, 10); err == nil {
		t.Error("expected error for min > max")
	}
}
