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

package transport_test

import (
	"testing"
	"time"

	"github.com/petersieg/palo/internal/palotest"
	"github.com/petersieg/palo/transport"
)

func TestUDPLoopback(t *testing.T) {
	a, err := transport.NewUDPOnPort(52424, 52425, nil)
	palotest.ExpectSuccess(t, err)
	defer a.Close()
	a.SetDestAddr("127.0.0.1")

	b, err := transport.NewUDPOnPort(52425, 52424, nil)
	palotest.ExpectSuccess(t, err)
	defer b.Close()
	b.SetDestAddr("127.0.0.1")

	a.AppendTX(0x1234)
	a.AppendTX(0x5678)
	palotest.ExpectSuccess(t, a.Send())

	var n int
	for i := 0; i < 50; i++ {
		n, err = b.Receive()
		palotest.ExpectSuccess(t, err)
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	palotest.ExpectEquality(t, n, 2)
	palotest.ExpectEquality(t, b.GetRXData(), uint16(0x1234))
	palotest.ExpectEquality(t, b.GetRXData(), uint16(0x5678))
}

func TestUDPFrameTooLarge(t *testing.T) {
	a, err := transport.NewUDPOnPort(52426, 52427, nil)
	palotest.ExpectSuccess(t, err)
	defer a.Close()

	for i := 0; i < 511; i++ {
		a.AppendTX(uint16(i))
	}
	palotest.ExpectFailure(t, a.Send())
}

func TestClearTXDiscardsStagedWords(t *testing.T) {
	a, err := transport.NewUDPOnPort(52428, 52429, nil)
	palotest.ExpectSuccess(t, err)
	defer a.Close()

	a.AppendTX(1)
	a.ClearTX()
	a.AppendTX(2)
	palotest.ExpectSuccess(t, a.Send())
}
