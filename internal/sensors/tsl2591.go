// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/camera_tester/internal/scan"
)

// TSL2591DefaultAddr is the fixed I²C address of the TSL2591.
const TSL2591DefaultAddr uint16 = 0x29

// ErrUnknownDevice is returned when the ID register does not match.
var ErrUnknownDevice = errors.New("unexpected device id")

const (
	tslCommand = 0xA0 // CMD bit + normal transaction

	tslRegEnable  = 0x00
	tslRegControl = 0x01
	tslRegPID     = 0x11
	tslRegID      = 0x12
	tslRegStatus  = 0x13
	tslRegC0DataL = 0x14

	tslID = 0x50

	tslEnablePowerOn = 0x01
	tslEnableAEN     = 0x02

	// lux coefficients
	tslLuxDF = 408.0

	tslMaxCount100ms = 36863
	tslMaxCount      = 65535
)

// Gain is the TSL2591 analog gain (CONTROL bits 5:4).
type Gain byte

const (
	GainLow    Gain = 0x00 // 1x
	GainMedium Gain = 0x10 // 25x
	GainHigh   Gain = 0x20 // 428x
	GainMax    Gain = 0x30 // 9876x
)

// ParseGain maps a config name to a Gain.
func ParseGain(name string) (Gain, error) {
	switch name {
	case "low":
		return GainLow, nil
	case "medium":
		return GainMedium, nil
	case "high":
		return GainHigh, nil
	case "max":
		return GainMax, nil
	}
	return 0, fmt.Errorf("tsl2591: unknown gain %q", name)
}

// Multiplier returns the nominal gain factor.
func (g Gain) Multiplier() float64 {
	switch g {
	case GainMedium:
		return 25
	case GainHigh:
		return 428
	case GainMax:
		return 9876
	default:
		return 1
	}
}

// Integration is the ADC integration time (CONTROL bits 2:0).
type Integration byte

// IntegrationFor maps 100ms..600ms to the register value.
func IntegrationFor(d time.Duration) (Integration, error) {
	ms := d.Milliseconds()
	if ms < 100 || ms > 600 || ms%100 != 0 || d%time.Millisecond != 0 {
		return 0, fmt.Errorf("tsl2591: unsupported integration time %s", d)
	}
	return Integration(ms/100 - 1), nil
}

// Duration returns the integration time.
func (i Integration) Duration() time.Duration {
	return time.Duration(int(i)+1) * 100 * time.Millisecond
}

// Opts configures the sensor.
type Opts struct {
	Gain        Gain
	Integration Integration
}

// TSL2591 is a light-to-digital converter with a full-spectrum channel (ch0)
// and an infrared channel (ch1).
type TSL2591 struct {
	dev  *i2c.Dev
	opts Opts
}

// NewTSL2591 checks the device ID, applies gain and integration time and
// powers the ADC on.
func NewTSL2591(bus i2c.Bus, addr uint16, opts Opts) (*TSL2591, error) {
	t := &TSL2591{dev: &i2c.Dev{Bus: bus, Addr: addr}, opts: opts}

	id, err := t.ReadRegister(tslRegID)
	if err != nil {
		return nil, fmt.Errorf("tsl2591: read id: %w", err)
	}
	if id != tslID {
		return nil, fmt.Errorf("tsl2591: id 0x%02X: %w", id, ErrUnknownDevice)
	}
	if err := t.WriteRegister(tslRegControl, byte(opts.Gain)|byte(opts.Integration)); err != nil {
		return nil, fmt.Errorf("tsl2591: set gain/integration: %w", err)
	}
	if err := t.WriteRegister(tslRegEnable, tslEnablePowerOn|tslEnableAEN); err != nil {
		return nil, fmt.Errorf("tsl2591: enable: %w", err)
	}
	return t, nil
}

// OpenTSL2591 initializes periph, opens the named I²C bus ("" for the first
// one) and the sensor on it. The returned closer releases the bus.
func OpenTSL2591(busName string, addr uint16, opts Opts) (*TSL2591, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("tsl2591: open I2C bus %q: %w", busName, err)
	}
	t, err := NewTSL2591(bus, addr, opts)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	closer := func() error {
		herr := t.Halt()
		if err := bus.Close(); err != nil {
			return err
		}
		return herr
	}
	return t, closer, nil
}

// ReadRegister reads one register.
func (t *TSL2591) ReadRegister(reg byte) (byte, error) {
	var b [1]byte
	if err := t.dev.Tx([]byte{tslCommand | reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteRegister writes one register.
func (t *TSL2591) WriteRegister(reg, value byte) error {
	_, err := t.dev.Write([]byte{tslCommand | reg, value})
	return err
}

// ReadRaw returns the full-spectrum and infrared ADC counts.
func (t *TSL2591) ReadRaw() (ch0, ch1 uint16, err error) {
	var b [4]byte
	if err := t.dev.Tx([]byte{tslCommand | tslRegC0DataL}, b[:]); err != nil {
		return 0, 0, fmt.Errorf("tsl2591: read channels: %w", err)
	}
	ch0 = uint16(b[0]) | uint16(b[1])<<8
	ch1 = uint16(b[2]) | uint16(b[3])<<8
	return ch0, ch1, nil
}

// ReadLux returns the illumination in lux. A saturated ADC returns an error
// wrapping scan.ErrSaturated.
func (t *TSL2591) ReadLux() (float64, error) {
	ch0, ch1, err := t.ReadRaw()
	if err != nil {
		return 0, err
	}
	return Lux(ch0, ch1, t.opts)
}

// ReadChannels returns visible and infrared counts.
func (t *TSL2591) ReadChannels() (visible, infrared uint32, err error) {
	ch0, ch1, err := t.ReadRaw()
	if err != nil {
		return 0, 0, err
	}
	if ch0 > ch1 {
		visible = uint32(ch0 - ch1)
	}
	return visible, uint32(ch1), nil
}

// Halt powers the sensor down.
func (t *TSL2591) Halt() error {
	return t.WriteRegister(tslRegEnable, 0x00)
}

func (t *TSL2591) String() string {
	return fmt.Sprintf("TSL2591{%s}", t.dev)
}

// Lux converts raw counts to lux.
func Lux(ch0, ch1 uint16, opts Opts) (float64, error) {
	maxCount := uint16(tslMaxCount)
	if opts.Integration == 0 {
		maxCount = tslMaxCount100ms
	}
	if ch0 >= maxCount || ch1 >= maxCount {
		return 0, fmt.Errorf("tsl2591: channel overflow (ch0=%d ch1=%d), reduce gain: %w", ch0, ch1, scan.ErrSaturated)
	}
	if ch0 == 0 {
		return 0, nil
	}
	atime := float64(opts.Integration.Duration().Milliseconds())
	cpl := atime * opts.Gain.Multiplier() / tslLuxDF
	c0, c1 := float64(ch0), float64(ch1)
	return (c0 - c1) * (1 - c1/c0) / cpl, nil
}
