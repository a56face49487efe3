package main

import (
	"log"

	"github.com/itohio/capmeter/pkg/capmeter"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/publish"
	"github.com/itohio/capmeter/pkg/sample"
)

const chainBufferSize = 500

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device       capmeter.Device
	sinks        []publish.Sink
	consumerDone chan struct{} // Closed by the consumer of the chain output
}

// startMeasurementChain wires device samples through conversion, optional
// averaging and the configured sinks. The caller consumes the returned stream
// and closes chain.consumerDone when it is drained.
func startMeasurementChain(cfg *config.Config, device capmeter.Device) (*measurementChain, <-chan sample.Sample) {
	stream := sample.NewConverter(chainBufferSize)(device.Samples())

	if cfg.Measurement.AverageSamples > 0 {
		stream = sample.NewAveragingConverter(cfg.Measurement.AverageSamples, chainBufferSize)(stream)
	}

	sinks := openSinks(cfg)
	if len(sinks) > 0 {
		stream = publish.Fanout(chainBufferSize, sinks...)(stream)
	}

	return &measurementChain{
		device:       device,
		sinks:        sinks,
		consumerDone: make(chan struct{}),
	}, stream
}

// openSinks connects every enabled sink. A sink that fails to connect is
// logged and skipped.
func openSinks(cfg *config.Config) []publish.Sink {
	var sinks []publish.Sink

	if cfg.Modbus.Enabled {
		m, err := publish.NewModbus(cfg.Modbus)
		if err != nil {
			log.Printf("Modbus publisher disabled: %v", err)
		} else {
			log.Printf("Publishing to Modbus %s unit %d at %d", cfg.Modbus.Endpoint, cfg.Modbus.UnitID, cfg.Modbus.Address)
			sinks = append(sinks, m)
		}
	}

	if cfg.MQTT.Enabled {
		m, err := publish.NewMQTT(cfg.MQTT)
		if err != nil {
			log.Printf("MQTT publisher disabled: %v", err)
		} else {
			log.Printf("Publishing to MQTT %s topic %s", cfg.MQTT.Broker, cfg.MQTT.Topic)
			sinks = append(sinks, m)
		}
	}

	return sinks
}

// closeMeasurementChain gracefully closes the measurement chain.
// Closing the device closes its samples channel, which drains every stage
// down to the consumer.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		if err := chain.device.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
	}

	if chain.consumerDone != nil {
		<-chain.consumerDone
	}

	if err := publish.CloseAll(chain.sinks...); err != nil {
		log.Printf("Error closing publishers: %v", err)
	}
}
