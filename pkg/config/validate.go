package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate the config.
func (c *Config) Validate() error {
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial: baud must not be negative, got %d", c.Serial.Baud)
	}

	if c.Measurement.WindowSeconds < 0 {
		return fmt.Errorf("measurement: window_seconds must not be negative, got %g", c.Measurement.WindowSeconds)
	}
	if c.Measurement.AverageSamples < 0 {
		return fmt.Errorf("measurement: average_samples must not be negative, got %d", c.Measurement.AverageSamples)
	}

	if c.Mock.Capacitance < 0 {
		return fmt.Errorf("mock: capacitance must not be negative, got %g", c.Mock.Capacitance)
	}
	if c.Mock.SlowOhms < 0 || c.Mock.FastOhms < 0 {
		return fmt.Errorf("mock: resistances must not be negative")
	}
	if c.Mock.FastOhms > 0 && c.Mock.SlowOhms > 0 && c.Mock.FastOhms >= c.Mock.SlowOhms {
		return fmt.Errorf("mock: fast_ohms (%g) must be below slow_ohms (%g)", c.Mock.FastOhms, c.Mock.SlowOhms)
	}
	if c.Mock.RefRatio < 0 || c.Mock.RefRatio >= 1 {
		return fmt.Errorf("mock: ref_ratio must be in [0, 1), got %g", c.Mock.RefRatio)
	}
	if c.Mock.PollCost < 0 {
		return fmt.Errorf("mock: poll_cost must not be negative, got %s", c.Mock.PollCost)
	}

	if c.Modbus.Enabled && c.Modbus.Endpoint == "" {
		return fmt.Errorf("modbus: endpoint is required when enabled")
	}
	if uint32(c.Modbus.Address)+ModbusRegisterCount > 0x10000 {
		return fmt.Errorf("modbus: address %d leaves no room for the %d register block", c.Modbus.Address, ModbusRegisterCount)
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt: broker is required when enabled")
		}
		if c.MQTT.Topic == "" {
			return fmt.Errorf("mqtt: topic is required when enabled")
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}

	return nil
}
