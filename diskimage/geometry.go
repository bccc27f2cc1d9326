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

// Package diskimage maps between raw Diablo disk image bytes and the
// logical, sector-addressable pages that hardware/peripherals/disk and
// altofs operate on. It understands two on-disk formats - a bare raw
// dump and a BFS-prefixed file - and round-trips both the VDA (linear
// page index) and RDA (cylinder/head/sector) addressing schemes used
// throughout the Alto File System.
package diskimage

import "github.com/petersieg/palo/palerr"

// Geometry describes one Diablo pack. The defaults match a single
// Diablo-31: 203 cylinders, 2 heads, 12 sectors, for 4872 sectors.
type Geometry struct {
	NumDisks     int
	NumCylinders int
	NumHeads     int
	NumSectors   int
}

// StandardGeometry is the single-pack Diablo-31 geometry named in
// spec.md section 3.
var StandardGeometry = Geometry{NumDisks: 1, NumCylinders: 203, NumHeads: 2, NumSectors: 12}

// SectorsPerDisk is the number of addressable pages on one pack.
func (g Geometry) SectorsPerDisk() int {
	return g.NumCylinders * g.NumHeads * g.NumSectors
}

// TotalSectors is the number of addressable pages across every disk the
// geometry describes.
func (g Geometry) TotalSectors() int {
	return g.NumDisks * g.SectorsPerDisk()
}

// Valid reports whether (disk, cylinder, head, sector) is addressable
// under g.
func (g Geometry) Valid(disk, cylinder, head, sector int) bool {
	return disk >= 0 && disk < g.NumDisks &&
		cylinder >= 0 && cylinder < g.NumCylinders &&
		head >= 0 && head < g.NumHeads &&
		sector >= 0 && sector < g.NumSectors
}

// VDA computes the linear virtual disk address for (disk, cylinder,
// head, sector). VDA is the addressing scheme altofs works in; it never
// appears on the wire.
func (g Geometry) VDA(disk, cylinder, head, sector int) (int, error) {
	if !g.Valid(disk, cylinder, head, sector) {
		return 0, palerr.Newf(palerr.User, "geometry: disk %d cyl %d head %d sector %d out of range", disk, cylinder, head, sector)
	}
	perDisk := g.SectorsPerDisk()
	within := cylinder*g.NumHeads*g.NumSectors + head*g.NumSectors + sector
	return disk*perDisk + within, nil
}

// Decode reverses VDA, returning (disk, cylinder, head, sector).
func (g Geometry) Decode(vda int) (disk, cylinder, head, sector int, err error) {
	perDisk := g.SectorsPerDisk()
	if vda < 0 || vda >= g.NumDisks*perDisk {
		return 0, 0, 0, 0, palerr.Newf(palerr.User, "geometry: vda %d out of range", vda)
	}
	disk = vda / perDisk
	within := vda % perDisk
	cylinder = within / (g.NumHeads * g.NumSectors)
	within %= g.NumHeads * g.NumSectors
	head = within / g.NumSectors
	sector = within % g.NumSectors
	return disk, cylinder, head, sector, nil
}

// RDA packs (cylinder, head, sector) into the 16-bit real-disk-address
// word stored in every label's next_rda/prev_rda fields. Sector occupies
// the low 4 bits (0..11 fits), head the next bit, cylinder the
// remaining high bits - enough range for any pack this emulator models.
func RDA(cylinder, head, sector int) uint16 {
	return uint16(cylinder<<5) | uint16(head<<4&0x10) | uint16(sector&0xF)
}

// DecodeRDA is the inverse of RDA.
func DecodeRDA(rda uint16) (cylinder, head, sector int) {
	cylinder = int(rda >> 5)
	head = int(rda>>4) & 0x1
	sector = int(rda) & 0xF
	return
}

// VDAToRDA converts a VDA directly to its packed RDA form under g.
func (g Geometry) VDAToRDA(vda int) (uint16, error) {
	_, cyl, head, sec, err := g.Decode(vda)
	if err != nil {
		return 0, err
	}
	return RDA(cyl, head, sec), nil
}

// RDAToVDA converts a packed RDA back to a linear VDA under g, assuming
// disk 0 (RDA carries no disk-select bits, matching real hardware: the
// drive is selected out of band).
func (g Geometry) RDAToVDA(rda uint16) (int, error) {
	cyl, head, sec := DecodeRDA(rda)
	return g.VDA(0, cyl, head, sec)
}
