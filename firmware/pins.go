//go:build rp2040

package main

import "machine"

const (
	// Measurement configuration
	INTERVAL_MS = 200 // Reporting interval; also bounds one slow charge phase
	SETTLE_MS   = 100 // Delay after power up before the first cycle

	// Resistor path pins. Both connect to the capacitor node.
	PIN_FAST = machine.GP2 // 220 Ω
	PIN_SLOW = machine.GP3 // 1 MΩ

	// Capacitor node sense pin. Its input threshold stands in for the
	// comparator reference.
	PIN_SENSE = machine.GP4

	// Serial configuration
	// One 13 byte record per interval: 5 records/sec * 13 bytes = 65 bytes/sec.
	PIN_UART_TX    = machine.UART0_TX_PIN
	PIN_UART_RX    = machine.UART0_RX_PIN
	UART_BAUD_RATE = 115200
)
