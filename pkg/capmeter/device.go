package capmeter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/capmeter/pkg/report"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the firmware UART setting.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the meter over its UART.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		samples:   make(chan RawSample, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading records.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true
	d.start(port)

	return nil
}

// start runs the reader. The reader owns the samples channel and closes it
// once it stops, so no send can race the close.
func (d *Serial) start(r io.Reader) {
	go func() {
		defer close(d.done)
		defer close(d.samples)
		d.readSamples(r)
	}()
}

// Close closes the connection and stops reading samples. The samples channel
// is closed by the reader once it has stopped.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	// Closing the port unblocks the reader
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	select {
	case <-d.done:
	case <-time.After(time.Second):
		// The reader closes samples when it eventually returns
		log.Printf("Serial reader did not stop in time")
	}

	d.connected = false

	return nil
}

// Samples returns the channel for reading samples.
func (d *Serial) Samples() <-chan RawSample {
	return d.samples
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readSamples reads records from r and parses them into RawSample.
func (d *Serial) readSamples(r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readSamples: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	scanner.Split(scanRecords)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			// Terminals may add a line feed after the carriage return
			record := bytes.TrimLeft(scanner.Bytes(), "\n")
			if len(record) == 0 {
				continue
			}

			reading, err := report.Parse(record)
			if err != nil {
				log.Printf("Failed to parse record %q: %v", record, err)
				continue
			}

			// Send sample to channel (non-blocking)
			select {
			case d.samples <- RawSample{Timestamp: time.Now(), Reading: reading}:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Samples channel full, dropping sample")
			}
		}
	}
}

// scanRecords is a bufio.SplitFunc yielding records terminated by '\r'.
// The terminator is stripped.
func scanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\r'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		// Partial trailing record
		return len(data), data, nil
	}
	return 0, nil, nil
}
