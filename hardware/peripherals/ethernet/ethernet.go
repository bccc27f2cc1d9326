// This file is part of Palo.
//
// Palo is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Palo is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Palo.  If not, see <https://www.gnu.org/licenses/>.

// Package ethernet implements the Ethernet controller seen by the
// ETHERNET task: the host address register, the input/output FIFOs, and
// the EIDFCT (ethernet input data function) status word, backed by a
// transport.Transport for the actual wire.
package ethernet

import "github.com/petersieg/palo/logger"

// Register selectors for Write, keyed by RSEL.
const (
	RegAddress = 0
	RegControl = 1
)

// EIDFCT status bits.
const (
	eidfctInputReady  = 1 << 0
	eidfctOutputReady = 1 << 1
	eidfctCollision   = 1 << 2
)

// Transport is the wire surface the controller drives, matching
// spec.md section 4.10's clear_tx/append_tx/send/enable_rx/clear_rx/
// get_rx_data/has_rx_data/receive contract exactly. Satisfied by
// transport.UDPTransport.
type Transport interface {
	ClearTX()
	AppendTX(word uint16)
	Send() error
	EnableRX(enable bool)
	ClearRX()
	GetRXData() uint16
	HasRXData() int
	Receive() (int, error)
}

// Controller models the Ethernet interface board.
type Controller struct {
	wire Transport

	hostAddress uint16
	enabled     bool

	incomingWords int // words remaining in the packet currently being drained
	eidfct        uint16
}

// New creates a controller with no transport attached; Send/Receive are
// then no-ops.
func New() *Controller {
	return &Controller{}
}

// Attach wires a transport. Detach by passing nil.
func (c *Controller) Attach(t Transport) { c.wire = t }

// Reset restores post-power-up state: reception disabled, FIFOs empty,
// EIDFCT clear. The host address register and the attached transport
// survive, matching the controller's own construction (New leaves both
// unset until Attach/Write configure them).
func (c *Controller) Reset() {
	c.enabled = false
	c.incomingWords = 0
	c.eidfct = 0
	if c.wire != nil {
		c.wire.EnableRX(false)
		c.wire.ClearTX()
		c.wire.ClearRX()
	}
}

// EthEIDFCT satisfies alu.Peripherals.
func (c *Controller) EthEIDFCT() uint16 { return c.eidfct }

// EthernetAddressHigh satisfies cpu.EmulatorExtras: the high byte of the
// configured host address, read by RSNF when BS=NONE in the emulator task.
func (c *Controller) EthernetAddressHigh() uint16 { return c.hostAddress & 0xFF00 }

// Write satisfies the RSEL-keyed dispatch of alu.Peripherals.TaskSpecialWrite
// for the ethernet task.
func (c *Controller) Write(rsel int, value uint16) {
	switch rsel & 0x3 {
	case RegAddress:
		c.hostAddress = value
	case RegControl:
		if c.wire != nil {
			c.wire.AppendTX(value)
		}
	}
}

// StartF interprets an emulator STARTF command issued by the ethernet
// task: bit 0 enables/disables reception, bit 1 flushes and sends the
// accumulated output FIFO as one packet.
func (c *Controller) StartF(value uint16) {
	c.enabled = value&0x1 != 0
	if c.wire != nil {
		c.wire.EnableRX(c.enabled)
	}
	if value&0x2 != 0 {
		c.flush()
	}
}

func (c *Controller) flush() {
	if c.wire == nil {
		return
	}
	if err := c.wire.Send(); err != nil {
		logger.Logf("ethernet", "send: %v", err)
		c.wire.ClearTX()
		return
	}
	c.eidfct |= eidfctOutputReady
}

// Tick polls the transport for a newly arrived packet and reports whether
// the ETHERNET task should wake this cycle.
func (c *Controller) Tick() bool {
	if !c.enabled || c.wire == nil {
		return false
	}
	if c.incomingWords > 0 {
		return true
	}
	n, err := c.wire.Receive()
	if err != nil || n == 0 {
		return false
	}
	c.incomingWords = n
	c.eidfct |= eidfctInputReady
	return true
}

// NextInputWord dequeues the next word of the currently buffered inbound
// packet, if any.
func (c *Controller) NextInputWord() (uint16, bool) {
	if c.wire == nil || c.incomingWords == 0 {
		return 0, false
	}
	w := c.wire.GetRXData()
	c.incomingWords--
	if c.incomingWords == 0 {
		c.eidfct &^= eidfctInputReady
	}
	return w, true
}
