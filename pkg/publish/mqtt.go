package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/report"
	"github.com/itohio/capmeter/pkg/sample"
)

const mqttTimeout = 5 * time.Second

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each sample as a JSON document.
type MQTT struct {
	client   publisher
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
}

var _ Sink = (*MQTT)(nil)

// Payload is the JSON document published per sample.
type Payload struct {
	Timestamp  time.Time `json:"timestamp"`
	Farads     float64   `json:"farads"`
	Unit       string    `json:"unit"`
	Fast       bool      `json:"fast"`
	OutOfRange bool      `json:"out_of_range"`
}

// NewMQTT connects to the broker.
func NewMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errors.New("publish mqtt: broker required")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("publish mqtt: connect %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish mqtt: connect %s: %w", cfg.Broker, err)
	}

	return newMQTT(client, cfg), nil
}

func newMQTT(client publisher, cfg config.MQTTConfig) *MQTT {
	return &MQTT{
		client:   client,
		topic:    cfg.Topic,
		qos:      cfg.QoS,
		retained: cfg.Retained,
		timeout:  mqttTimeout,
	}
}

// Publish sends s and waits for the broker acknowledgement of its QoS.
func (m *MQTT) Publish(s sample.Sample) error {
	payload, err := json.Marshal(newPayload(s))
	if err != nil {
		return fmt.Errorf("publish mqtt: marshal: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, m.retained, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish mqtt: %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish mqtt: %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects, giving in-flight messages a moment to complete.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

func newPayload(s sample.Sample) Payload {
	p := Payload{
		Timestamp:  s.Timestamp,
		Fast:       s.Fast,
		OutOfRange: s.OutOfRange,
	}

	// Overflow records are always in the microfarad tier
	unit := report.Micro
	if !s.OutOfRange {
		p.Farads = s.Capacitance
		unit = report.UnitOf(picofarads(s))
	}
	p.Unit = string(rune(unit)) + "F"
	return p
}
