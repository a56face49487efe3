package publish

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goburrow/modbus"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/sample"
)

// Register block layout written on every sample.
const (
	// RegisterCount is the size of the block starting at the configured address.
	RegisterCount = config.ModbusRegisterCount

	FlagFast       = 1 << 0
	FlagOutOfRange = 1 << 1
)

type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) (results []byte, err error)
}

// Modbus writes each sample to a block of holding registers:
// four registers with picofarads (big-endian, most significant first)
// followed by one flags register.
type Modbus struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  registerWriter
	address uint16
}

var _ Sink = (*Modbus)(nil)

// NewModbus connects to a Modbus TCP server.
func NewModbus(cfg config.ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("publish modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("publish modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &Modbus{
		handler: h,
		client:  modbus.NewClient(h),
		address: cfg.Address,
	}, nil
}

// Publish writes the register block for s.
func (m *Modbus) Publish(s sample.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload := packRegisters(encodeRegisters(s))
	if _, err := m.client.WriteMultipleRegisters(m.address, RegisterCount, payload); err != nil {
		return fmt.Errorf("publish modbus: write registers at %d: %w", m.address, err)
	}
	return nil
}

// Close closes the TCP connection.
func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func encodeRegisters(s sample.Sample) []uint16 {
	var pf uint64
	if !s.OutOfRange {
		pf = picofarads(s)
	}

	var flags uint16
	if s.Fast {
		flags |= FlagFast
	}
	if s.OutOfRange {
		flags |= FlagOutOfRange
	}

	return []uint16{
		uint16(pf >> 48),
		uint16(pf >> 32),
		uint16(pf >> 16),
		uint16(pf),
		flags,
	}
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
