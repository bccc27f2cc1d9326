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

package diskimage

import (
	"encoding/binary"
	"io"

	"github.com/petersieg/palo/hardware/peripherals/disk"
	"github.com/petersieg/palo/palerr"
)

// Format selects the on-disk container a disk image is read from or
// written to. Both describe the same logical pages; BFS simply prefixes
// a small descriptor ahead of the raw sector stream (spec.md section 6).
type Format int

const (
	// Raw is a bare num_cylinders*num_heads*num_sectors*sizeof(page)
	// byte stream with no header.
	Raw Format = iota

	// BFS prefixes a fixed-size descriptor identifying the geometry the
	// sectors were written with, so a BFS file is self-describing.
	BFS
)

// bfsMagic tags a BFS-format file so Load can tell formats apart without
// the caller asserting one.
const bfsMagic = uint32(0x414C544F) // "ALTO"

// bytesPerPage is the on-disk size of one page: 2-word header baked into
// the label encoding, 14-word label, 256-word data - all 16-bit words.
const bytesPerPage = (16 + 256) * 2

// Image is an in-memory, geometry-addressed disk image. It satisfies the
// disk.Drive interface consumed by hardware/peripherals/disk.Controller,
// and is the read/write surface altofs.FS builds the file system view
// on top of.
type Image struct {
	geometry Geometry
	pages    []disk.Page
}

// NewBlank allocates an all-zero image of the given geometry. Every page
// label comes up with Version=0 (allocated, not free) matching a
// freshly-formatted pack before altofs.Format marks pages free.
func NewBlank(g Geometry) *Image {
	return &Image{geometry: g, pages: make([]disk.Page, g.TotalSectors())}
}

// Geom returns the image's disk geometry.
func (im *Image) Geom() Geometry { return im.geometry }

// NumPages returns the number of addressable pages (== geometry.TotalSectors()).
func (im *Image) NumPages() int { return len(im.pages) }

// ReadPageAt reads the fully-decoded page at vda.
func (im *Image) ReadPageAt(vda int) (Page, error) {
	if vda < 0 || vda >= len(im.pages) {
		return Page{}, palerr.Newf(palerr.User, "diskimage: vda %d out of range", vda)
	}
	return fromDiskPage(vda, im.pages[vda]), nil
}

// WritePageAt writes p back at its own VDA.
func (im *Image) WritePageAt(p Page) error {
	if p.VDA < 0 || p.VDA >= len(im.pages) {
		return palerr.Newf(palerr.User, "diskimage: vda %d out of range", p.VDA)
	}
	im.pages[p.VDA] = p.toDiskPage()
	return nil
}

// Geometry satisfies disk.Drive: disk.Drive has no notion of multiple
// packs, so a multi-disk image is addressed one disk.Drive (one
// diskimage.Image) per attached unit.
func (im *Image) Geometry() (cylinders, heads, sectors int) {
	return im.geometry.NumCylinders, im.geometry.NumHeads, im.geometry.NumSectors
}

// ReadPage satisfies disk.Drive.
func (im *Image) ReadPage(cylinder, head, sector int) (disk.Page, error) {
	vda, err := im.geometry.VDA(0, cylinder, head, sector)
	if err != nil {
		return disk.Page{}, err
	}
	return im.pages[vda], nil
}

// WritePage satisfies disk.Drive.
func (im *Image) WritePage(cylinder, head, sector int, p disk.Page) error {
	vda, err := im.geometry.VDA(0, cylinder, head, sector)
	if err != nil {
		return err
	}
	im.pages[vda] = p
	return nil
}

// Load reads a disk image from r in the given format and returns it as a
// new Image. Raw format is read with geometry g; BFS format carries its
// own geometry in its header, and g is ignored.
func Load(r io.Reader, format Format, g Geometry) (*Image, error) {
	switch format {
	case BFS:
		return loadBFS(r)
	default:
		return loadRaw(r, g)
	}
}

func loadRaw(r io.Reader, g Geometry) (*Image, error) {
	im := NewBlank(g)
	buf := make([]byte, bytesPerPage)
	for vda := 0; vda < len(im.pages); vda++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, palerr.Newf(palerr.IO, "raw disk image: short read at page %d: %v", vda, err)
		}
		im.pages[vda] = decodePageBytes(buf)
	}
	if n, err := r.Read(make([]byte, 1)); err != io.EOF || n != 0 {
		return nil, palerr.New(palerr.IO, "raw disk image: file is larger than geometry implies")
	}
	return im, nil
}

func loadBFS(r io.Reader) (*Image, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, palerr.Newf(palerr.IO, "bfs disk image: short header: %v", err)
	}
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != bfsMagic {
		return nil, palerr.New(palerr.IO, "bfs disk image: bad magic")
	}
	g := Geometry{
		NumDisks:     int(binary.LittleEndian.Uint16(hdr[4:6])),
		NumCylinders: int(binary.LittleEndian.Uint16(hdr[6:8])),
		NumHeads:     int(binary.LittleEndian.Uint16(hdr[8:10])),
		NumSectors:   int(binary.LittleEndian.Uint16(hdr[10:12])),
	}
	return loadRaw(r, g)
}

// Save writes the image to w in the given format.
func (im *Image) Save(w io.Writer, format Format) error {
	if format == BFS {
		var hdr [16]byte
		binary.LittleEndian.PutUint32(hdr[0:4], bfsMagic)
		binary.LittleEndian.PutUint16(hdr[4:6], uint16(im.geometry.NumDisks))
		binary.LittleEndian.PutUint16(hdr[6:8], uint16(im.geometry.NumCylinders))
		binary.LittleEndian.PutUint16(hdr[8:10], uint16(im.geometry.NumHeads))
		binary.LittleEndian.PutUint16(hdr[10:12], uint16(im.geometry.NumSectors))
		if _, err := w.Write(hdr[:]); err != nil {
			return palerr.Newf(palerr.IO, "bfs disk image: write header: %v", err)
		}
	}
	buf := make([]byte, bytesPerPage)
	for _, p := range im.pages {
		encodePageBytes(p, buf)
		if _, err := w.Write(buf); err != nil {
			return palerr.Newf(palerr.IO, "disk image: write: %v", err)
		}
	}
	return nil
}

func decodePageBytes(buf []byte) disk.Page {
	var p disk.Page
	for i := 0; i < 16; i++ {
		p.Label[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	base := 16 * 2
	for i := 0; i < 256; i++ {
		p.Data[i] = binary.LittleEndian.Uint16(buf[base+i*2:])
	}
	return p
}

func encodePageBytes(p disk.Page, buf []byte) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], p.Label[i])
	}
	base := 16 * 2
	for i := 0; i < 256; i++ {
		binary.LittleEndian.PutUint16(buf[base+i*2:], p.Data[i])
	}
}
