package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/config"
	"github.com/relabs-tech/camera_tester/internal/progress"
)

// RunConsoleMQTT prints calibration progress published by the calibration
// command until interrupted.
func RunConsoleMQTT(cfg *config.Config, logger zerolog.Logger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not set")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Info().Msgf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicProgress, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev progress.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			logger.Warn().Err(err).Msg("console: progress unmarshal error")
			return
		}
		fmt.Println(FormatEvent(ev))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logger.Info().Msgf("console: subscribed to %s", cfg.TopicProgress)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("console: shutting down")
	client.Disconnect(250)
	return nil
}

// FormatEvent renders one progress event as a console line.
func FormatEvent(ev progress.Event) string {
	switch ev.Type {
	case progress.TypeStage:
		return fmt.Sprintf("[STAGE] %s", ev.Stage)
	case progress.TypeScanStart:
		return fmt.Sprintf("[SCAN ] %d..%d in %d steps", ev.Min, ev.Max, ev.Divisions)
	case progress.TypeSample:
		band := ev.Band
		if band == "" {
			band = "-"
		}
		return fmt.Sprintf("[SAMPL] #%-3d pwm=%5d lux=%9.3f band=%s", ev.Index, ev.Duty, ev.Lux, band)
	case progress.TypeScanEnd:
		line := fmt.Sprintf("[SCAN ] done, %d samples", ev.Samples)
		if ev.Aborted {
			line += " (stopped at light limit)"
		}
		return line
	case progress.TypeResult:
		var b strings.Builder
		status := "FAILED"
		if ev.OK {
			status = "OK"
		}
		fmt.Fprintf(&b, "[RESLT] %s ambient=%.3f lux", status, ev.Ambient)
		for _, s := range ev.Settings {
			value := "none"
			if s.Found {
				value = fmt.Sprintf("%d", s.Duty)
			}
			fmt.Fprintf(&b, "\n        %-3s (%g) = %s", s.Band, s.Luminance, value)
		}
		for _, f := range ev.Failures {
			fmt.Fprintf(&b, "\n        error: %s", f)
		}
		return b.String()
	}
	return fmt.Sprintf("[?    ] %s", ev.Type)
}
