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

import (
	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/logger"
	"github.com/petersieg/palo/notifications"
	"github.com/petersieg/palo/palerr"
)

// bytesPerPage is the usable data payload of one page.
const bytesPerPage = 512
const wordsPerPage = bytesPerPage / 2

// FS is an open AltoFS volume: a diskimage.Image plus the redundant
// free-page bitmap every mutation keeps in sync (spec.md section 3,
// "bitmap invariant").
type FS struct {
	env   *environment.Environment
	image *diskimage.Image
	geom  diskimage.Geometry

	// bitmap[vda] is true when the page is allocated. Redundant with
	// each page's label.Version != VersionFree; CheckIntegrity verifies
	// the two agree.
	bitmap []bool

	freeCount int

	// snNext is the next serial number Insert/MkDir will hand out; 0
	// means "not yet seeded from the volume", which nextSN resolves on
	// first use.
	snNext uint32
}

// Open wraps an already-loaded diskimage.Image as an AltoFS volume,
// rebuilding the free-page bitmap from each page's label.
func Open(env *environment.Environment, image *diskimage.Image) (*FS, error) {
	fs := &FS{env: env, image: image, geom: image.Geom()}
	fs.rebuildBitmap()
	return fs, nil
}

// rebuildBitmap scans every page's label and recomputes the bitmap and
// free count from scratch. Used by Open and by integrity repair.
func (fs *FS) rebuildBitmap() {
	n := fs.image.NumPages()
	fs.bitmap = make([]bool, n)
	fs.freeCount = 0
	for vda := 0; vda < n; vda++ {
		p, err := fs.image.ReadPageAt(vda)
		if err != nil {
			continue
		}
		if p.Label.Free() {
			fs.freeCount++
		} else {
			fs.bitmap[vda] = true
		}
	}
}

// Format reinitializes every page on the image as free, marks VDA 0 as a
// reserved bad page, then allocates and populates the one fixed structural
// file: the root directory (SysDir, leader VDA 1) - callers insert further
// files after formatting. This matches the `par -f` CLI surface (spec.md
// section 6).
func Format(env *environment.Environment, g diskimage.Geometry) (*FS, error) {
	image := diskimage.NewBlank(g)
	fs := &FS{env: env, image: image, geom: g}
	n := image.NumPages()
	fs.bitmap = make([]bool, n)
	fs.freeCount = n
	for vda := 0; vda < n; vda++ {
		p, _ := image.ReadPageAt(vda)
		p.Label = diskimage.Label{Version: diskimage.VersionFree}
		_ = image.WritePageAt(p)
	}

	// VDA 0 is reserved (mirrors the real pack's bad-page table) so
	// SysDir lands deterministically at the fixed leader VDA find-file
	// resolves against. It is marked Bad rather than merely allocated so
	// the bitmap invariant (allocated iff label.Version != Free) holds.
	reservedVDA, err := fs.allocPage()
	if err != nil {
		return nil, err
	}
	rp, err := fs.readPage(reservedVDA)
	if err != nil {
		return nil, err
	}
	rp.Label = diskimage.Label{Version: diskimage.VersionBad}
	if err := fs.writePage(rp); err != nil {
		return nil, err
	}

	leaderVDA, err := fs.allocPage()
	if err != nil {
		return nil, err
	}
	if leaderVDA != SysDirLeaderVDA {
		return nil, palerr.Newf(palerr.Programmer, "altofs: format: SysDir leader landed at vda %d, want %d", leaderVDA, SysDirLeaderVDA)
	}
	sn := SN{Word1: snDirectory, Word2: 1}
	if err := fs.initLeader(leaderVDA, sn, FileInfo{Name: "SysDir", Consecutive: true}); err != nil {
		return nil, err
	}
	logger.Log("altofs", "format: fresh volume created")
	fs.env.NotifyEvent(notifications.NotifyReset)
	return fs, nil
}

// Bitmap returns a defensive copy of the free-page bitmap: bitmap[vda]
// is true iff the page is allocated.
func (fs *FS) Bitmap() []bool {
	out := make([]bool, len(fs.bitmap))
	copy(out, fs.bitmap)
	return out
}

// FreePages reports how many pages are currently unallocated.
func (fs *FS) FreePages() int { return fs.freeCount }

// WipeFreePages scrubs the label and data of every page the bitmap
// currently marks free, including ones never passed through freePage (for
// instance pages that were already free when the image was mounted).
func (fs *FS) WipeFreePages() error {
	for vda, used := range fs.bitmap {
		if used {
			continue
		}
		p, err := fs.readPage(vda)
		if err != nil {
			return err
		}
		p.Label = diskimage.Label{Version: diskimage.VersionFree}
		p.Data = [256]uint16{}
		if err := fs.writePage(p); err != nil {
			return err
		}
	}
	return nil
}

// Image exposes the underlying disk image, e.g. so a caller can Save it.
func (fs *FS) Image() *diskimage.Image { return fs.image }

// readPage is a small wrapper that turns a diskimage I/O error into a
// structured palerr at the VDA in question.
func (fs *FS) readPage(vda int) (diskimage.Page, error) {
	p, err := fs.image.ReadPageAt(vda)
	if err != nil {
		return diskimage.Page{}, palerr.NewAtVDA(palerr.IO, vda, err.Error())
	}
	return p, nil
}

func (fs *FS) writePage(p diskimage.Page) error {
	if err := fs.image.WritePageAt(p); err != nil {
		return palerr.NewAtVDA(palerr.IO, p.VDA, err.Error())
	}
	return nil
}

// allocPage returns the first free VDA, marks it allocated in the
// bitmap, and returns it with label.Version left as VersionFree - the
// caller is responsible for writing a real label in the same logical
// operation (spec.md section 4.8, "callers pair with writing
// label.version to a non-free value atomically").
func (fs *FS) allocPage() (int, error) {
	for vda, used := range fs.bitmap {
		if !used {
			fs.bitmap[vda] = true
			fs.freeCount--
			return vda, nil
		}
	}
	return 0, palerr.New(palerr.Resource, "altofs: no free pages")
}

// freePage returns vda to the free list and zeroes its label and data,
// matching the real format's habit of scrubbing a freed page.
func (fs *FS) freePage(vda int) error {
	p, err := fs.readPage(vda)
	if err != nil {
		return err
	}
	p.Label = diskimage.Label{Version: diskimage.VersionFree}
	p.Data = [256]uint16{}
	if err := fs.writePage(p); err != nil {
		return err
	}
	if fs.bitmap[vda] {
		fs.bitmap[vda] = false
		fs.freeCount++
	}
	return nil
}
