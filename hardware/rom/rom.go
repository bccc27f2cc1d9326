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

// Package rom loads the two binary ROM images the simulator boots from:
// the 32-entry constant ROM (16-bit words) and the writable-control-store
// seed image (32-bit microinstructions), both stored little-endian.
package rom

import (
	"encoding/binary"
	"io"

	"github.com/petersieg/palo/palerr"
)

// ConstantSize is the number of 16-bit words the constant ROM holds.
const ConstantSize = 32

// MicrocodeSize is the number of 32-bit microinstructions per bank.
const MicrocodeSize = 1024

// LoadConstant reads exactly ConstantSize little-endian 16-bit words from
// r. A short read or trailing data is an IO error.
func LoadConstant(r io.Reader) ([ConstantSize]uint16, error) {
	var out [ConstantSize]uint16
	buf := make([]byte, ConstantSize*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return out, palerr.Newf(palerr.IO, "constant rom: %v", err)
	}
	if n, err := r.Read(make([]byte, 1)); err != io.EOF || n != 0 {
		return out, palerr.New(palerr.IO, "constant rom: file is larger than expected")
	}
	for i := 0; i < ConstantSize; i++ {
		out[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return out, nil
}

// LoadMicrocode reads exactly MicrocodeSize little-endian 32-bit words
// from r into one control-store bank. A short read or trailing data is an
// IO error.
func LoadMicrocode(r io.Reader) ([MicrocodeSize]uint32, error) {
	var out [MicrocodeSize]uint32
	buf := make([]byte, MicrocodeSize*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return out, palerr.Newf(palerr.IO, "microcode rom: %v", err)
	}
	if n, err := r.Read(make([]byte, 1)); err != io.EOF || n != 0 {
		return out, palerr.New(palerr.IO, "microcode rom: file is larger than expected")
	}
	for i := 0; i < MicrocodeSize; i++ {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out, nil
}
