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

// Package transport implements the Ethernet controller's abstract
// transport surface (spec.md section 4.10) and the one concrete
// implementation this repository ships: a UDP broadcast socket with an
// 8192-byte ring buffer filled by a dedicated receive goroutine. A mutex
// serializes every access to the ring between the CPU-driving caller and
// that goroutine, which is the only shared-mutable state in the whole
// simulator (spec.md section 5).
package transport

// Transport is the abstract surface hardware/peripherals/ethernet drives
// the BS/F1/F2 codes reserved to the Ethernet task through. Every method
// is non-blocking except Receive, which only ever acquires the ring
// mutex briefly.
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
