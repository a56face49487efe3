//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/interrupt"

	"github.com/itohio/capmeter/pkg/hal"
	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

var (
	_ hal.Comparator = (*senseComparator)(nil)
	_ hal.GPIO       = pinBank{}
	_ hal.TickSource = (*alarmTick)(nil)
	_ hal.SubTicker  = (*alarmTick)(nil)
	_ hal.Sender     = (*uartSender)(nil)
)

// senseComparator emulates the analog comparator with the digital input
// threshold of the sense pin. Reference and ground map to the two sides of
// that threshold.
//
// Discharge therefore ends once the pin reads low, i.e. below V_IL, not at
// ground. The capacitor is not empty when charging starts and every charge
// times V_IL to V_IH only; readings are relative to that window.
type senseComparator struct {
	pin      machine.Pin
	pos, neg hal.Input
}

func newSenseComparator(pin machine.Pin) *senseComparator {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return &senseComparator{pin: pin, pos: hal.InputRef, neg: hal.InputCap}
}

func (c *senseComparator) Select(pos, neg hal.Input) {
	c.pos, c.neg = pos, neg
}

func (c *senseComparator) Output() bool {
	high := c.pin.Get()
	switch {
	case c.pos == hal.InputCap:
		// cap against ground: above while the pin still reads high
		return high
	case c.neg == hal.InputCap:
		// reference against cap: above until the cap crosses the threshold
		return !high
	}
	return false
}

// pinBank drives the resistor path pins.
type pinBank struct{}

func (pinBank) SetDirection(pin hal.Pin, dir hal.Direction) {
	mode := machine.PinInput
	if dir == hal.DirOut {
		mode = machine.PinOutput
	}
	machine.Pin(pin).Configure(machine.PinConfig{Mode: mode})
}

func (pinBank) DriveHigh(pin hal.Pin) { machine.Pin(pin).High() }
func (pinBank) Release(pin hal.Pin)   { machine.Pin(pin).Low() }

// alarmTick runs the periodic callback from TIMER alarm 1. Alarm 0 belongs
// to the runtime.
type alarmTick struct {
	periodUs uint32
	next     uint32
	fn       func()
}

var tick alarmTick

func (a *alarmTick) Register(periodMs uint32, fn func()) error {
	if periodMs == 0 || fn == nil {
		return errors.New("alarm tick: invalid registration")
	}

	a.periodUs = periodMs * 1000
	a.fn = fn
	a.next = rp.TIMER.TIMERAWL.Get() + a.periodUs

	irq := interrupt.New(rp.IRQ_TIMER_IRQ_1, alarmISR)
	rp.TIMER.INTE.SetBits(rp.TIMER_INTE_ALARM_1)
	rp.TIMER.ALARM1.Set(a.next)
	irq.Enable()
	return nil
}

// RemainingMicros is the distance to the armed alarm.
func (a *alarmTick) RemainingMicros() uint32 {
	left := rp.TIMER.ALARM1.Get() - rp.TIMER.TIMERAWL.Get()
	if left > a.periodUs {
		// Alarm fired, ISR not yet run
		return 0
	}
	return left
}

func alarmISR(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(rp.TIMER_INTR_ALARM_1)
	tick.next += tick.periodUs
	rp.TIMER.ALARM1.Set(tick.next)
	tick.fn()
}

// uartSender writes records to UART0.
type uartSender struct {
	u *uartx.UART
}

func newUARTSender() (*uartSender, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: UART_BAUD_RATE,
		TX:       PIN_UART_TX,
		RX:       PIN_UART_RX,
	}); err != nil {
		return nil, err
	}
	return &uartSender{u: u}, nil
}

func (s *uartSender) Send(b []byte) error {
	n, err := s.u.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errors.New("uart: short write")
	}
	return nil
}
