// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Rig selects the hardware behind the calibration.
const (
	RigHardware  = "hardware"
	RigSimulated = "simulated"
)

// LED drivers.
const (
	LEDDriverGPIO    = "gpio"
	LEDDriverPCA9685 = "pca9685"
)

// EnvPrefix prefixes environment variables overriding config keys,
// e.g. CAMERA_TESTER_MQTT_BROKER.
const EnvPrefix = "CAMERA_TESTER"

// Config holds all application configuration values.
type Config struct {
	Rig      string
	LogLevel string

	// Light sensor (TSL2591)
	I2CBus                string
	SensorI2CAddr         uint16
	SensorGain            string // low, medium, high, max
	SensorIntegrationTime time.Duration

	// Timing
	SettleDelay time.Duration // must exceed SensorIntegrationTime

	// LED
	LEDDriver         string
	LEDPin            string
	LEDPCA9685Addr    uint16
	LEDPCA9685Channel int
	PWMFrequencyHz    int

	// Optics and tolerance
	LensTransmittance float64
	LensFNumber       float64
	LensMagnification float64
	Tolerance         float64

	// MQTT (empty broker disables publishing)
	MQTTBroker          string
	MQTTClientID        string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	TopicProgress       string

	// Display
	DisplayEnabled bool
	DisplayI2CAddr uint16

	// Web Server
	WebServerPort int

	// Simulated rig
	SimAmbientLux float64
	SimPeakLux    float64
	SimGamma      float64
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Rig:      RigHardware,
		LogLevel: "info",

		I2CBus:                "",
		SensorI2CAddr:         0x29,
		SensorGain:            "low",
		SensorIntegrationTime: 400 * time.Millisecond,

		SettleDelay: 500 * time.Millisecond,

		LEDDriver:         LEDDriverGPIO,
		LEDPin:            "GPIO18",
		LEDPCA9685Addr:    0x40,
		LEDPCA9685Channel: 0,
		PWMFrequencyHz:    5000,

		LensTransmittance: 0.95,
		LensFNumber:       8.0,
		LensMagnification: 0.0,
		Tolerance:         0.08,

		MQTTClientID:        "camera-tester-calibration",
		MQTTClientIDConsole: "camera-tester-console",
		MQTTClientIDWeb:     "camera-tester-web",
		TopicProgress:       "camera_tester/calibration",

		DisplayEnabled: false,
		DisplayI2CAddr: 0x3C,

		WebServerPort: 8080,

		SimAmbientLux: 0.5,
		SimPeakLux:    150,
		SimGamma:      2.2,
	}
}

// keys lists every accepted config key.
var keys = []string{
	"RIG", "LOG_LEVEL",
	"I2C_BUS", "SENSOR_I2C_ADDR", "SENSOR_GAIN", "SENSOR_INTEGRATION_MS",
	"SETTLE_DELAY_MS",
	"LED_DRIVER", "LED_PIN", "LED_PCA9685_ADDR", "LED_PCA9685_CHANNEL", "PWM_FREQUENCY_HZ",
	"LENS_TRANSMITTANCE", "LENS_F_NUMBER", "LENS_MAGNIFICATION", "TOLERANCE",
	"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_CLIENT_ID_CONSOLE", "MQTT_CLIENT_ID_WEB", "TOPIC_PROGRESS",
	"DISPLAY_ENABLED", "DISPLAY_I2C_ADDR",
	"WEB_SERVER_PORT",
	"SIM_AMBIENT_LUX", "SIM_PEAK_LUX", "SIM_GAMMA",
}

// Load reads a KEY=VALUE configuration file on top of Default. An empty path
// only applies environment overrides. Lines starting with # are comments.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[strings.ToLower(k)] = true
	}
	for _, k := range v.AllKeys() {
		if !known[k] {
			return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(k))
		}
	}

	cfg := Default()
	for _, key := range keys {
		if !v.IsSet(key) {
			continue
		}
		value := strings.TrimSpace(v.GetString(key))
		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "RIG":
		c.Rig = value
	case "LOG_LEVEL":
		c.LogLevel = value

	// Light sensor
	case "I2C_BUS":
		c.I2CBus = value
	case "SENSOR_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_I2C_ADDR %q: %w", value, err)
		}
		c.SensorI2CAddr = uint16(addr)
	case "SENSOR_GAIN":
		switch value {
		case "low", "medium", "high", "max":
			c.SensorGain = value
		default:
			return fmt.Errorf("SENSOR_GAIN must be low, medium, high or max, got %q", value)
		}
	case "SENSOR_INTEGRATION_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_INTEGRATION_MS %q: %w", value, err)
		}
		if ms < 100 || ms > 600 || ms%100 != 0 {
			return fmt.Errorf("SENSOR_INTEGRATION_MS must be one of 100, 200, ... 600, got %d", ms)
		}
		c.SensorIntegrationTime = time.Duration(ms) * time.Millisecond

	// Timing
	case "SETTLE_DELAY_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SETTLE_DELAY_MS %q: %w", value, err)
		}
		c.SettleDelay = time.Duration(ms) * time.Millisecond

	// LED
	case "LED_DRIVER":
		switch value {
		case LEDDriverGPIO, LEDDriverPCA9685:
			c.LEDDriver = value
		default:
			return fmt.Errorf("LED_DRIVER must be %s or %s, got %q", LEDDriverGPIO, LEDDriverPCA9685, value)
		}
	case "LED_PIN":
		c.LEDPin = value
	case "LED_PCA9685_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid LED_PCA9685_ADDR %q: %w", value, err)
		}
		c.LEDPCA9685Addr = uint16(addr)
	case "LED_PCA9685_CHANNEL":
		ch, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_PCA9685_CHANNEL %q: %w", value, err)
		}
		if ch < 0 || ch > 15 {
			return fmt.Errorf("LED_PCA9685_CHANNEL must be 0-15, got %d", ch)
		}
		c.LEDPCA9685Channel = ch
	case "PWM_FREQUENCY_HZ":
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PWM_FREQUENCY_HZ %q: %w", value, err)
		}
		c.PWMFrequencyHz = hz

	// Optics
	case "LENS_TRANSMITTANCE":
		return parseFloat(key, value, &c.LensTransmittance)
	case "LENS_F_NUMBER":
		return parseFloat(key, value, &c.LensFNumber)
	case "LENS_MAGNIFICATION":
		return parseFloat(key, value, &c.LensMagnification)
	case "TOLERANCE":
		return parseFloat(key, value, &c.Tolerance)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_PROGRESS":
		c.TopicProgress = value

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Simulated rig
	case "SIM_AMBIENT_LUX":
		return parseFloat(key, value, &c.SimAmbientLux)
	case "SIM_PEAK_LUX":
		return parseFloat(key, value, &c.SimPeakLux)
	case "SIM_GAMMA":
		return parseFloat(key, value, &c.SimGamma)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseFloat(key, value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = f
	return nil
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.Rig != RigHardware && c.Rig != RigSimulated {
		return fmt.Errorf("RIG must be %s or %s, got %q", RigHardware, RigSimulated, c.Rig)
	}
	if c.SettleDelay <= c.SensorIntegrationTime {
		return fmt.Errorf("SETTLE_DELAY_MS (%s) must exceed SENSOR_INTEGRATION_MS (%s)",
			c.SettleDelay, c.SensorIntegrationTime)
	}
	if c.LEDDriver == LEDDriverGPIO && c.LEDPin == "" {
		return fmt.Errorf("LED_PIN is required for the %s driver", LEDDriverGPIO)
	}
	if c.PWMFrequencyHz <= 0 {
		return fmt.Errorf("PWM_FREQUENCY_HZ must be positive, got %d", c.PWMFrequencyHz)
	}
	// PCA9685 prescaler range
	if c.LEDDriver == LEDDriverPCA9685 && (c.PWMFrequencyHz < 24 || c.PWMFrequencyHz > 1526) {
		return fmt.Errorf("PWM_FREQUENCY_HZ must be 24-1526 for the %s driver, got %d",
			LEDDriverPCA9685, c.PWMFrequencyHz)
	}
	if c.LensTransmittance <= 0 || c.LensTransmittance > 1 {
		return fmt.Errorf("LENS_TRANSMITTANCE must be in (0, 1], got %g", c.LensTransmittance)
	}
	if c.LensFNumber <= 0 {
		return fmt.Errorf("LENS_F_NUMBER must be positive, got %g", c.LensFNumber)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("TOLERANCE must be in (0, 1), got %g", c.Tolerance)
	}
	if c.MQTTBroker != "" && c.TopicProgress == "" {
		return fmt.Errorf("TOPIC_PROGRESS is required when MQTT_BROKER is set")
	}
	return nil
}
