package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
	Modbus      ModbusConfig      `yaml:"modbus"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MeasurementConfig contains host side processing parameters.
type MeasurementConfig struct {
	WindowSeconds  float64 `yaml:"window_seconds"`  // History shown in the scope
	AverageSamples int     `yaml:"average_samples"` // Number of reports to average (0 = disabled, default)
}

// MockConfig contains the simulated front end used by the mock device.
type MockConfig struct {
	Capacitance float64       `yaml:"capacitance"` // Capacitor under test (F)
	SlowOhms    float64       `yaml:"slow_ohms"`   // Slow path resistor (Ω)
	FastOhms    float64       `yaml:"fast_ohms"`   // Fast path resistor (Ω)
	Supply      float64       `yaml:"supply"`      // Supply voltage (V)
	RefRatio    float64       `yaml:"ref_ratio"`   // Comparator reference as a fraction of supply
	PollCost    time.Duration `yaml:"poll_cost"`   // Virtual time per comparator poll
}

// ModbusRegisterCount is the size of the holding register block written per
// sample starting at ModbusConfig.Address.
const ModbusRegisterCount = 5

// ModbusConfig contains the Modbus TCP publisher configuration.
type ModbusConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"` // host:port
	UnitID   uint8         `yaml:"unit_id"`
	Address  uint16        `yaml:"address"` // First holding register
	Timeout  time.Duration `yaml:"timeout"`
}

// MQTTConfig contains the MQTT publisher configuration.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyACM0",
			Baud: 115200,
		},
		Measurement: MeasurementConfig{
			WindowSeconds:  30,
			AverageSamples: 0,
		},
		Mock: MockConfig{
			Capacitance: 100e-9,
			SlowOhms:    1e6,
			FastOhms:    220,
			Supply:      3.3,
			RefRatio:    0.6321,
			PollCost:    250 * time.Nanosecond,
		},
		Modbus: ModbusConfig{
			Enabled:  false,
			Endpoint: "localhost:502",
			UnitID:   1,
			Address:  0,
			Timeout:  time.Second,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "capmeter",
			Topic:    "capmeter/reading",
			QoS:      0,
			Retained: false,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}

	if c.Mock.Capacitance == 0 {
		c.Mock.Capacitance = def.Mock.Capacitance
	}
	if c.Mock.SlowOhms == 0 {
		c.Mock.SlowOhms = def.Mock.SlowOhms
	}
	if c.Mock.FastOhms == 0 {
		c.Mock.FastOhms = def.Mock.FastOhms
	}
	if c.Mock.Supply == 0 {
		c.Mock.Supply = def.Mock.Supply
	}
	if c.Mock.RefRatio == 0 {
		c.Mock.RefRatio = def.Mock.RefRatio
	}
	if c.Mock.PollCost == 0 {
		c.Mock.PollCost = def.Mock.PollCost
	}

	if c.Modbus.Endpoint == "" {
		c.Modbus.Endpoint = def.Modbus.Endpoint
	}
	if c.Modbus.Timeout == 0 {
		c.Modbus.Timeout = def.Modbus.Timeout
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
}
