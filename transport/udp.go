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

package transport

import (
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/petersieg/palo/logger"
	"github.com/petersieg/palo/notifications"
	"github.com/petersieg/palo/palerr"
)

// Port is the fixed UDP port the Ethernet transport broadcasts on and
// listens on (spec.md section 6).
const Port = 42424

// BroadcastAddr is the destination Send uses.
const BroadcastAddr = "255.255.255.255"

// RingSize is the receive ring buffer's byte capacity (spec.md section 4.10).
const RingSize = 8192

// reservedChecksumBytes is allocated in every buffered RX packet for a
// fake checksum that is never actually transmitted (spec.md section 6).
const reservedChecksumBytes = 2

// UDPTransport is the one concrete Transport this repository ships: a
// broadcast UDP socket with an 8192-byte ring buffer filled by a
// dedicated receive goroutine. The mutex is the only synchronization
// point between that goroutine and whatever drives the Ethernet
// controller (spec.md section 5).
type UDPTransport struct {
	env notifications.NotificationHook

	mu      sync.Mutex
	conn    *net.UDPConn
	running bool

	tx []uint16

	queue       [][]byte // buffered, not-yet-consumed packets, FIFO
	queuedBytes int

	current      []byte // the packet Receive most recently dequeued
	currentPos   int    // byte offset of the next GetRXData read
	firstRead    bool   // true until the first GetRXData after Receive
	rxEnabled    bool

	destPort int
	destAddr string
}

// NewUDP opens a UDP socket bound for broadcast send/receive on Port and
// starts the receive goroutine. Pass a nil hook to disable notifications.
func NewUDP(hook notifications.NotificationHook) (*UDPTransport, error) {
	return NewUDPOnPort(Port, Port, hook)
}

// NewUDPOnPort is NewUDP with the bind and broadcast-destination ports
// both overridable, so tests can run two transports loopback-style
// without fighting over the production port.
func NewUDPOnPort(bindPort, destPort int, hook notifications.NotificationHook) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: bindPort})
	if err != nil {
		return nil, palerr.Newf(palerr.IO, "transport: listen: %v", err)
	}
	if err := conn.SetWriteBuffer(RingSize); err != nil {
		logger.Logf("transport", "set write buffer: %v", err)
	}
	t := &UDPTransport{conn: conn, running: true, rxEnabled: true, env: hook, destPort: destPort, destAddr: BroadcastAddr}
	go t.receiveLoop()
	return t, nil
}

// SetDestAddr overrides the destination address Send broadcasts to.
// Production code never needs this - it exists so tests can point two
// loopback transports at each other without relying on a LAN broadcast
// domain being deliverable in the test sandbox.
func (t *UDPTransport) SetDestAddr(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destAddr = addr
}

// Close stops the receive goroutine and closes the socket.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
	return t.conn.Close()
}

func (t *UDPTransport) notify(n notifications.Notify, args ...interface{}) {
	if t.env == nil {
		return
	}
	_ = t.env(n, args...)
}

// ClearTX discards any words staged for the next Send.
func (t *UDPTransport) ClearTX() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tx = t.tx[:0]
}

// AppendTX stages one 16-bit word for the next Send.
func (t *UDPTransport) AppendTX(word uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tx = append(t.tx, word)
}

// Send transmits the staged words as one broadcast datagram: a 2-byte
// big-endian word count followed by the words, also big-endian (spec.md
// section 6). The trailing checksum bytes are never put on the wire.
func (t *UDPTransport) Send() error {
	t.mu.Lock()
	words := append([]uint16(nil), t.tx...)
	t.tx = t.tx[:0]
	destAddr := t.destAddr
	destPort := t.destPort
	t.mu.Unlock()

	if len(words) > 510 {
		return palerr.Newf(palerr.Protocol, "transport: frame too large: %d words", len(words))
	}

	buf := make([]byte, 2+len(words)*2)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(words)))
	for i, w := range words {
		binary.BigEndian.PutUint16(buf[2+i*2:], w)
	}

	dst := &net.UDPAddr{IP: net.ParseIP(destAddr), Port: destPort}
	if _, err := t.conn.WriteToUDP(buf, dst); err != nil {
		return palerr.Newf(palerr.Protocol, "transport: send: %v", err)
	}
	return nil
}

// EnableRX turns receive processing on or off. While disabled, the
// receive goroutine still drains the socket (so the OS buffer doesn't
// fill) but discards every datagram.
func (t *UDPTransport) EnableRX(enable bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rxEnabled = enable
}

// ClearRX discards every buffered and in-progress received packet.
func (t *UDPTransport) ClearRX() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = nil
	t.queuedBytes = 0
	t.current = nil
	t.currentPos = 0
}

// Receive dequeues the oldest buffered packet and returns its word
// count. A return of 0 means no packet is currently available; Receive
// never blocks (spec.md section 5).
func (t *UDPTransport) Receive() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return 0, nil
	}
	pkt := t.queue[0]
	t.queue = t.queue[1:]
	t.queuedBytes -= len(pkt)
	t.current = pkt
	t.currentPos = 0
	t.firstRead = true
	return (len(pkt) - 2 - reservedChecksumBytes) / 2, nil
}

// HasRXData reports how many bytes of the current packet remain unread,
// or the size of the next queued packet if none is in progress.
func (t *UDPTransport) HasRXData() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return len(t.current) - reservedChecksumBytes - t.currentPos
	}
	if len(t.queue) > 0 {
		return len(t.queue[0]) - reservedChecksumBytes
	}
	return 0
}

// GetRXData returns the next word of the packet Receive last dequeued.
// Per spec.md section 9's open question, the leading length prefix is
// skipped only on the first read of a given packet - never again until
// the next Receive.
func (t *UDPTransport) GetRXData() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return 0
	}
	if t.firstRead {
		t.currentPos = 2 // skip the 2-byte count prefix exactly once
		t.firstRead = false
	}
	if t.currentPos+2 > len(t.current)-reservedChecksumBytes {
		return 0
	}
	w := binary.BigEndian.Uint16(t.current[t.currentPos:])
	t.currentPos += 2
	return w
}

// receiveLoop is the dedicated receive goroutine. It decodes each
// datagram into the wire-plus-reserved-checksum buffer layout the ring
// stores. When the ring has no room for the datagram just read, it holds
// that datagram and sleeps 1ms at a time, raising NotifyPacketDropped on
// each wait, until room appears; it does not keep room for a full
// 1024-byte packet in reserve (spec.md section 5).
func (t *UDPTransport) receiveLoop() {
	buf := make([]byte, 2048)
	for {
		t.mu.Lock()
		running := t.running
		t.mu.Unlock()
		if !running {
			return
		}

		t.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		if n < 2 {
			continue
		}
		count := int(binary.BigEndian.Uint16(buf[0:2]))
		if n != 2+count*2 {
			t.notify(notifications.NotifyPacketDropped)
			logger.Logf("transport", "dropped malformed frame: got %d bytes, want %d", n, 2+count*2)
			continue
		}

		t.mu.Lock()
		if !t.rxEnabled {
			t.mu.Unlock()
			continue
		}
		for t.queuedBytes+n+reservedChecksumBytes > RingSize {
			t.mu.Unlock()
			t.notify(notifications.NotifyPacketDropped)
			time.Sleep(time.Millisecond)
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
		}
		pkt := make([]byte, n+reservedChecksumBytes)
		copy(pkt, buf[:n])
		t.queue = append(t.queue, pkt)
		t.queuedBytes += len(pkt)
		t.mu.Unlock()
	}
}
