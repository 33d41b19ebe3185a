package photometry

import (
	"math"
	"testing"
)

func TestIlluminance_DefaultOptics(t *testing.T) {
	// 0.95 * pi * 6.25 / 256 / 0.0929
	want := 0.95 * math.Pi * 6.25 / 256 / 0.0929
	got := DefaultOptics.Illuminance(6.25)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Illuminance(6.25) = %v, want %v", got, want)
	}
	if got < 0.78 || got > 0.79 {
		t.Errorf("Illuminance(6.25) = %v, expected about 0.784 lux", got)
	}
}

func TestNewTargets_MonotonicExpected(t *testing.T) {
	tgt := NewTargets(DefaultOptics, DefaultTolerance)
	for i := 1; i < NumBands; i++ {
		if tgt.Bands[i].Expected <= tgt.Bands[i-1].Expected {
			t.Errorf("%s expected %v not above %s expected %v",
				tgt.Bands[i].ID, tgt.Bands[i].Expected, tgt.Bands[i-1].ID, tgt.Bands[i-1].Expected)
		}
	}
}

func TestNewTargets_WindowBounds(t *testing.T) {
	for _, tol := range []float64{0.01, 0.08, 0.5, 0.99} {
		tgt := NewTargets(DefaultOptics, tol)
		for _, b := range tgt.Bands {
			if !(b.Min < b.Expected && b.Expected < b.Max) {
				t.Errorf("tol=%v %s: want %v < %v < %v", tol, b.ID, b.Min, b.Expected, b.Max)
			}
			if math.Abs(b.Min-b.Expected*(1-tol)) > 1e-9 || math.Abs(b.Max-b.Expected*(1+tol)) > 1e-9 {
				t.Errorf("tol=%v %s: window [%v, %v) not derived from %v", tol, b.ID, b.Min, b.Max, b.Expected)
			}
		}
	}
}

func TestNewTargets_LuxLimit(t *testing.T) {
	tgt := NewTargets(DefaultOptics, DefaultTolerance)
	if want := tgt.Bands[Max].Max * 2; tgt.LuxLimit != want {
		t.Errorf("LuxLimit = %v, want %v", tgt.LuxLimit, want)
	}
	if tgt.Exceeds(tgt.LuxLimit) {
		t.Error("limit itself should not exceed the limit")
	}
	if !tgt.Exceeds(tgt.LuxLimit + 0.001) {
		t.Error("value above limit should exceed it")
	}
}

func TestBand_ContainsInclusiveExclusive(t *testing.T) {
	b := Band{Min: 1, Max: 2}
	tests := []struct {
		lux  float64
		want bool
	}{
		{lux: 0.999, want: false},
		{lux: 1, want: true},
		{lux: 1.5, want: true},
		{lux: 2, want: false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.lux); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.lux, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tgt := NewTargets(DefaultOptics, DefaultTolerance)
	tests := []struct {
		name   string
		lux    float64
		want   BandID
		wantOK bool
	}{
		{name: "off", lux: tgt.Bands[Off].Expected, want: Off, wantOK: true},
		{name: "low", lux: tgt.Bands[Low].Expected, want: Low, wantOK: true},
		{name: "med", lux: tgt.Bands[Med].Expected, want: Med, wantOK: true},
		{name: "max", lux: tgt.Bands[Max].Expected, want: Max, wantOK: true},
		{name: "dark", lux: 0, wantOK: false},
		{name: "between low and med", lux: (tgt.Bands[Low].Max + tgt.Bands[Med].Min) / 2, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tgt.Classify(tt.lux)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%v) ok = %v, want %v", tt.lux, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.lux, got, tt.want)
			}
		})
	}
}

func TestClassify_PriorityOnOverlap(t *testing.T) {
	// With 90% tolerance OFF [0.08, 1.49) and LOW [0.63, 11.9) overlap.
	tgt := NewTargets(DefaultOptics, 0.9)
	lux := 1.0
	if !tgt.Bands[Off].Contains(lux) || !tgt.Bands[Low].Contains(lux) {
		t.Fatalf("test reading %v should fall in both OFF and LOW", lux)
	}
	got, ok := tgt.Classify(lux)
	if !ok || got != Off {
		t.Errorf("Classify(%v) = %s, %v; want OFF", lux, got, ok)
	}
}

func TestBandID_String(t *testing.T) {
	if Med.String() != "MED" {
		t.Errorf("Med.String() = %q", Med.String())
	}
	if BandID(9).String() != "BandID(9)" {
		t.Errorf("unexpected %q", BandID(9).String())
	}
}
