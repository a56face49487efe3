package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/scope"
)

// runHeadless logs every reading until ctx is cancelled or the device stops.
func runHeadless(ctx context.Context, cfg *config.Config, useMock bool) error {
	device := newDevice(cfg, useMock)
	if err := device.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	chain, samples := startMeasurementChain(cfg, device)
	go func() {
		defer close(chain.consumerDone)
		for s := range samples {
			log.Printf("%s %s", s.Timestamp.Format(time.RFC3339Nano), scope.FormatSample(s))
		}
	}()

	select {
	case <-ctx.Done():
	case <-chain.consumerDone:
		log.Printf("Device stopped")
	}

	closeMeasurementChain(chain)
	return nil
}
