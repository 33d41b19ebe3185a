// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/camera_tester/internal/progress"
)

// Publisher sends calibration progress events to an MQTT topic.
// Publish errors are logged and never interrupt the calibration.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    zerolog.Logger
}

// NewPublisher connects to broker.
func NewPublisher(broker, clientID, topic string, logger zerolog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, token.Error())
	}
	logger.Info().Str("broker", broker).Str("topic", topic).Msg("publisher: connected to MQTT broker")
	return &Publisher{client: client, topic: topic, log: logger}, nil
}

// Publish sends ev. Result events are retained so late subscribers see the
// last outcome.
func (p *Publisher) Publish(ev progress.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn().Err(err).Msg("publisher: json marshal error")
		return
	}
	retained := ev.Type == progress.TypeResult
	if token := p.client.Publish(p.topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		p.log.Warn().Err(token.Error()).Str("type", ev.Type).Msg("publisher: MQTT publish error")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
