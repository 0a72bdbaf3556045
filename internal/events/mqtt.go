package events

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTT connection handler
var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

// MQTT connection lost handler
var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// MQTTBridge mirrors published events onto broker topics so kiosk firmware
// that cannot hold an HTTP stream open can still follow along. Display
// audiences map to displays/<name>/events; everything else goes to
// displays/all/events.
type MQTTBridge struct {
	client mqtt.Client
}

var _ Sink = (*MQTTBridge)(nil)

// NewMQTTBridge connects to the broker and returns the sink.
func NewMQTTBridge(brokerURL, clientID string) (*MQTTBridge, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	log.Info().Str("broker", brokerURL).Msg("MQTT bridge initialized")
	return &MQTTBridge{client: client}, nil
}

// Deliver publishes the event without waiting on broker acknowledgement.
func (b *MQTTBridge) Deliver(evt Event, aud Audience) {
	topic := "displays/all/events"
	if aud.kind == audienceDisplay {
		topic = fmt.Sprintf("displays/%s/events", aud.display)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("event", evt.Name).Msg("failed to marshal event for MQTT")
		return
	}

	token := b.client.Publish(topic, 1, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (b *MQTTBridge) Close() {
	b.client.Disconnect(250)
}
