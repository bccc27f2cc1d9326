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

package altofs

import "encoding/binary"

// pageBytes renders a page's 256-word data area as its 512 little-endian
// bytes, matching the on-disk encoding diskimage uses for the same
// words.
func pageBytes(d [256]uint16) [512]byte {
	var b [512]byte
	for i, w := range d {
		binary.LittleEndian.PutUint16(b[i*2:], w)
	}
	return b
}

// bytesToPage is the inverse of pageBytes.
func bytesToPage(b [512]byte) [256]uint16 {
	var d [256]uint16
	for i := range d {
		d[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return d
}
