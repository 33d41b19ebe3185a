package progress

import "time"

// Event types.
const (
	TypeStage     = "stage"
	TypeScanStart = "scan_start"
	TypeSample    = "sample"
	TypeScanEnd   = "scan_end"
	TypeResult    = "result"
)

// Event is one calibration progress message as published over MQTT.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`

	Stage string `json:"stage,omitempty"`

	// scan_start / scan_end
	Min       uint16 `json:"min,omitempty"`
	Max       uint16 `json:"max,omitempty"`
	Divisions int    `json:"divisions,omitempty"`
	Samples   int    `json:"samples,omitempty"`
	Aborted   bool   `json:"aborted,omitempty"`

	// sample
	Index int     `json:"index,omitempty"`
	Duty  uint16  `json:"duty,omitempty"`
	Lux   float64 `json:"lux,omitempty"`
	Band  string  `json:"band,omitempty"` // empty when the reading matched no window

	// result
	OK       bool      `json:"ok,omitempty"`
	Ambient  float64   `json:"ambient,omitempty"`
	Settings []Setting `json:"settings,omitempty"`
	Failures []string  `json:"failures,omitempty"`
}

// Setting is the resolved PWM value of a band.
type Setting struct {
	Band      string  `json:"band"`
	Luminance float64 `json:"luminance"`
	Duty      uint16  `json:"duty"`
	Found     bool    `json:"found"`
}
