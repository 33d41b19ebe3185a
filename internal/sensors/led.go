// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// MaxDuty is full scale on the 16-bit duty cycle used throughout the tester.
const MaxDuty = 65535

// DutyFor scales a 16-bit duty cycle to a periph gpio.Duty.
func DutyFor(duty uint16) gpio.Duty {
	return gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / MaxDuty)
}

// GPIOLED drives the LED from a hardware PWM capable pin.
type GPIOLED struct {
	pin  gpio.PinOut
	freq physic.Frequency
}

// NewGPIOLED wraps pin and switches the LED off.
func NewGPIOLED(pin gpio.PinOut, freq physic.Frequency) (*GPIOLED, error) {
	l := &GPIOLED{pin: pin, freq: freq}
	if err := l.SetDutyCycle(0); err != nil {
		return nil, err
	}
	return l, nil
}

// OpenGPIOLED initializes periph and looks the pin up by name.
func OpenGPIOLED(pinName string, freq physic.Frequency) (*GPIOLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("led: pin %q not found", pinName)
	}
	return NewGPIOLED(pin, freq)
}

// SetDutyCycle sets the LED duty cycle. 0 drives the pin low.
func (l *GPIOLED) SetDutyCycle(duty uint16) error {
	if duty == 0 {
		if err := l.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("led %s: %w", l.pin, err)
		}
		return nil
	}
	if err := l.pin.PWM(DutyFor(duty), l.freq); err != nil {
		return fmt.Errorf("led %s: pwm %d: %w", l.pin, duty, err)
	}
	return nil
}

// Halt switches the LED off and stops the PWM.
func (l *GPIOLED) Halt() error {
	if err := l.pin.Out(gpio.Low); err != nil {
		return err
	}
	return l.pin.Halt()
}

// PCA9685LED drives the LED from one channel of a PCA9685 (12-bit).
type PCA9685LED struct {
	dev     *pca9685.Dev
	channel int
}

// NewPCA9685LED sets the PWM frequency and switches the channel off.
func NewPCA9685LED(bus i2c.Bus, addr uint16, channel int, freq physic.Frequency) (*PCA9685LED, error) {
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("pca9685 at 0x%02X: %w", addr, err)
	}
	if err := dev.SetPwmFreq(freq); err != nil {
		return nil, fmt.Errorf("pca9685: set frequency %s: %w", freq, err)
	}
	l := &PCA9685LED{dev: dev, channel: channel}
	if err := l.SetDutyCycle(0); err != nil {
		return nil, err
	}
	return l, nil
}

// SetDutyCycle sets the LED duty cycle, truncated to 12 bits.
func (l *PCA9685LED) SetDutyCycle(duty uint16) error {
	if err := l.dev.SetPwm(l.channel, 0, gpio.Duty(duty>>4)); err != nil {
		return fmt.Errorf("pca9685 channel %d: pwm %d: %w", l.channel, duty, err)
	}
	return nil
}

// Halt switches the channel off.
func (l *PCA9685LED) Halt() error {
	return l.SetDutyCycle(0)
}
