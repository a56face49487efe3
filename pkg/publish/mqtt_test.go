package publish

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		s    sample.Sample
		want Payload
	}{
		{
			name: "pico",
			s:    sample.Sample{Timestamp: now, Capacitance: 1000e-12},
			want: Payload{Timestamp: now, Farads: 1000e-12, Unit: "pF"},
		},
		{
			name: "nano",
			s:    sample.Sample{Timestamp: now, Capacitance: 47e-9},
			want: Payload{Timestamp: now, Farads: 47e-9, Unit: "nF"},
		},
		{
			name: "micro fast",
			s:    sample.Sample{Timestamp: now, Capacitance: 10e-6, Fast: true},
			want: Payload{Timestamp: now, Farads: 10e-6, Unit: "uF", Fast: true},
		},
		{
			name: "out of range",
			s:    sample.Sample{Timestamp: now, Fast: true, OutOfRange: true},
			want: Payload{Timestamp: now, Unit: "uF", Fast: true, OutOfRange: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newPayload(tt.s))
		})
	}
}

func TestMQTT_Publish(t *testing.T) {
	pub := &fakePublisher{}
	m := newMQTT(pub, config.MQTTConfig{Topic: "lab/cap", QoS: 1, Retained: true})

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.Publish(sample.Sample{Timestamp: now, Capacitance: 100e-12}))

	require.Len(t, pub.calls, 1)
	call := pub.calls[0]
	assert.Equal(t, "lab/cap", call.topic)
	assert.Equal(t, byte(1), call.qos)
	assert.True(t, call.retained)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(call.payload, &doc))
	assert.Equal(t, "2024-05-01T12:00:00Z", doc["timestamp"])
	assert.InDelta(t, 100e-12, doc["farads"], 1e-18)
	assert.Equal(t, "pF", doc["unit"])
	assert.Equal(t, false, doc["fast"])
	assert.Equal(t, false, doc["out_of_range"])
}

func TestMQTT_PublishErrors(t *testing.T) {
	t.Run("broker error", func(t *testing.T) {
		pub := &fakePublisher{token: &fakeToken{err: errBroken}}
		m := newMQTT(pub, config.MQTTConfig{Topic: "t"})
		assert.ErrorIs(t, m.Publish(sample.Sample{}), errBroken)
	})

	t.Run("timeout", func(t *testing.T) {
		pub := &fakePublisher{token: &fakeToken{timeout: true}}
		m := newMQTT(pub, config.MQTTConfig{Topic: "t"})
		err := m.Publish(sample.Sample{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestMQTT_Close(t *testing.T) {
	pub := &fakePublisher{}
	m := newMQTT(pub, config.MQTTConfig{Topic: "t"})
	assert.NoError(t, m.Close())
	assert.True(t, pub.disconnected)
}

func TestNewMQTT_RequiresBroker(t *testing.T) {
	_, err := NewMQTT(config.MQTTConfig{})
	assert.Error(t, err)
}
