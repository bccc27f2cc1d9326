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
	"github.com/petersieg/palo/palerr"
)

// nextVDA resolves a label's next_rda to a VDA; ok is false at chain end
// (rda == 0).
func (fs *FS) nextVDA(rda uint16) (int, bool, error) {
	if rda == 0 {
		return 0, false, nil
	}
	vda, err := fs.geom.RDAToVDA(rda)
	if err != nil {
		return 0, false, err
	}
	return vda, true, nil
}

// vdaRDA packs vda into the RDA form the label chain fields store.
func (fs *FS) vdaRDA(vda int) (uint16, error) {
	return fs.geom.VDAToRDA(vda)
}

// lastPage walks the chain from leaderVDA to its final linked page and
// returns that page (its label carries the zero-based file_pgnum).
func (fs *FS) lastPage(leaderVDA int) (diskimage.Page, error) {
	p, err := fs.readPage(leaderVDA)
	if err != nil {
		return diskimage.Page{}, err
	}
	seen := map[int]bool{leaderVDA: true}
	for {
		next, ok, err := fs.nextVDA(p.Label.NextRDA)
		if err != nil {
			return diskimage.Page{}, err
		}
		if !ok {
			return p, nil
		}
		if seen[next] {
			return diskimage.Page{}, palerr.NewAtVDA(palerr.Integrity, next, "altofs: page chain cycle")
		}
		seen[next] = true
		p, err = fs.readPage(next)
		if err != nil {
			return diskimage.Page{}, err
		}
	}
}

// extendChain allocates a free page, links it after tail, and returns
// the new page with file_pgnum = tail.file_pgnum+1 and the same serial
// number as the chain.
func (fs *FS) extendChain(tail diskimage.Page) (diskimage.Page, error) {
	newVDA, err := fs.allocPage()
	if err != nil {
		return diskimage.Page{}, err
	}
	newRDA, err := fs.vdaRDA(newVDA)
	if err != nil {
		return diskimage.Page{}, err
	}
	tailRDA, err := fs.vdaRDA(tail.VDA)
	if err != nil {
		return diskimage.Page{}, err
	}

	tail.Label.NextRDA = newRDA
	if err := fs.writePage(tail); err != nil {
		return diskimage.Page{}, err
	}

	newPage := diskimage.Page{
		VDA: newVDA,
		Label: diskimage.Label{
			PrevRDA:   tailRDA,
			FilePgNum: tail.Label.FilePgNum + 1,
			Version:   tail.Label.Version,
			SNWord1:   tail.Label.SNWord1,
			SNWord2:   tail.Label.SNWord2,
		},
	}
	if err := fs.writePage(newPage); err != nil {
		return diskimage.Page{}, err
	}
	return newPage, nil
}

// freeChainFrom returns every page from (and including) vda to the end
// of its chain to the free list.
func (fs *FS) freeChainFrom(vda int) error {
	for vda != 0 {
		p, err := fs.readPage(vda)
		if err != nil {
			return err
		}
		next, ok, err := fs.nextVDA(p.Label.NextRDA)
		if err != nil {
			return err
		}
		if err := fs.freePage(p.VDA); err != nil {
			return err
		}
		if !ok {
			break
		}
		vda = next
	}
	return nil
}
