// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/progress"
)

// screen is the state shown on the OLED.
type screen struct {
	stage   string
	sample  progress.Event
	samples int
	result  *progress.Event
}

// update folds ev into the screen state.
func (s *screen) update(ev progress.Event) {
	switch ev.Type {
	case progress.TypeStage:
		s.stage = ev.Stage
	case progress.TypeScanStart:
		s.samples = 0
	case progress.TypeSample:
		s.sample = ev
		s.samples++
	case progress.TypeResult:
		s.result = &ev
	}
}

// lines returns the text rows, at most four.
func (s *screen) lines() []string {
	if s.result != nil {
		out := []string{"FAIL"}
		if s.result.OK {
			out[0] = "PASS"
		}
		for _, st := range s.result.Settings {
			if st.Band == "OFF" {
				continue
			}
			value := "none"
			if st.Found {
				value = fmt.Sprintf("%d", st.Duty)
			}
			out = append(out, fmt.Sprintf("%-3s %s", st.Band, value))
		}
		return out
	}
	if s.stage == "" {
		return []string{"Camera Tester", "Waiting..."}
	}
	band := s.sample.Band
	if band == "" {
		band = "-"
	}
	return []string{
		s.stage,
		fmt.Sprintf("PWM %5d #%d", s.sample.Duty, s.samples),
		fmt.Sprintf("Lux %8.3f", s.sample.Lux),
		"Band " + band,
	}
}

// render draws the screen into a 128x64 frame.
func (s *screen) render() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range s.lines() {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawBytes([]byte(line))
	}
	return img
}

// Display shows calibration progress on an SSD1306 OLED.
type Display struct {
	dev    *ssd1306.Dev
	screen screen
	log    zerolog.Logger
}

// ssd1306Addr is the address the ssd1306 driver always talks to.
const ssd1306Addr = 0x3C

// addrBus redirects transactions for one address to another.
type addrBus struct {
	i2c.Bus
	from, to uint16
}

func (b addrBus) Tx(addr uint16, w, r []byte) error {
	if addr == b.from {
		addr = b.to
	}
	return b.Bus.Tx(addr, w, r)
}

// NewDisplay initializes the OLED at addr on bus and shows a splash screen.
func NewDisplay(bus i2c.Bus, addr uint16, logger zerolog.Logger) (*Display, error) {
	if addr != ssd1306Addr {
		bus = addrBus{Bus: bus, from: ssd1306Addr, to: addr}
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display at 0x%02X: %w", addr, err)
	}
	logger.Info().Msgf("display: initialized at 0x%02X", addr)
	d := &Display{dev: dev, log: logger}
	d.draw()
	return d, nil
}

// Show updates the OLED with ev. Draw errors are logged.
func (d *Display) Show(ev progress.Event) {
	d.screen.update(ev)
	// scan bookkeeping does not change what is drawn
	if ev.Type == progress.TypeScanStart || ev.Type == progress.TypeScanEnd {
		return
	}
	d.draw()
}

func (d *Display) draw() {
	img := d.screen.render()
	if err := d.dev.Draw(d.dev.Bounds(), img, image.Point{}); err != nil {
		d.log.Warn().Err(err).Msg("display: draw error")
	}
}
