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

import "github.com/petersieg/palo/palerr"

// Open produces a handle positioned at the start of a file's content -
// the first page after the leader (spec.md section 4.8). The leader page
// itself (pgnum 0) carries no user bytes.
func (fs *FS) Open(fe FileEntry) (*OpenFile, error) {
	leader, err := fs.readPage(fe.LeaderVDA)
	if err != nil {
		return nil, err
	}
	next, ok, err := fs.nextVDA(leader.Label.NextRDA)
	if err != nil {
		return nil, err
	}
	of := &OpenFile{Entry: fe}
	if ok {
		of.Pos = FilePosition{VDA: next, PgNum: 1, Pos: 0}
	} else {
		of.Pos = FilePosition{VDA: fe.LeaderVDA, PgNum: 0, Pos: 0}
	}
	return of, nil
}

// Read copies up to len(buf) bytes starting at of.Pos, following
// next_rda across page boundaries and incrementing pgnum. It returns
// fewer bytes than requested only at end of file.
func (fs *FS) Read(of *OpenFile, buf []byte) (int, error) {
	if of.Err != nil {
		return 0, of.Err
	}
	total := 0
	for total < len(buf) {
		if of.Pos.PgNum == 0 {
			// Nothing left to read: the leader carries no content and
			// a bare leader-only file has no following page.
			break
		}
		p, err := fs.readPage(of.Pos.VDA)
		if err != nil {
			of.Err = err
			return total, err
		}
		used := int(p.Label.NBytes)
		if of.Pos.Pos >= used {
			next, ok, err := fs.nextVDA(p.Label.NextRDA)
			if err != nil {
				of.Err = err
				return total, err
			}
			if !ok {
				break
			}
			of.Pos = FilePosition{VDA: next, PgNum: of.Pos.PgNum + 1, Pos: 0}
			continue
		}
		pb := pageBytes(p.Data)
		n := copy(buf[total:], pb[of.Pos.Pos:used])
		total += n
		of.Pos.Pos += n
	}
	return total, nil
}

// Write copies buf into the file starting at of.Pos, extending the chain
// with freshly allocated pages when the current page is full and more of
// buf remains (spec.md section 4.8).
func (fs *FS) Write(of *OpenFile, buf []byte) (int, error) {
	if of.Err != nil {
		return 0, of.Err
	}
	total := 0
	for total < len(buf) {
		if of.Pos.PgNum == 0 {
			// First content byte of a leader-only file: extend now.
			leader, err := fs.readPage(of.Entry.LeaderVDA)
			if err != nil {
				of.Err = err
				return total, err
			}
			np, err := fs.extendChain(leader)
			if err != nil {
				of.Err = err
				return total, err
			}
			of.Pos = FilePosition{VDA: np.VDA, PgNum: 1, Pos: 0}
			continue
		}
		p, err := fs.readPage(of.Pos.VDA)
		if err != nil {
			of.Err = err
			return total, err
		}
		pb := pageBytes(p.Data)
		room := bytesPerPage - of.Pos.Pos
		if room <= 0 {
			next, ok, err := fs.nextVDA(p.Label.NextRDA)
			if err != nil {
				of.Err = err
				return total, err
			}
			if !ok {
				np, err := fs.extendChain(p)
				if err != nil {
					of.Err = err
					return total, err
				}
				of.Pos = FilePosition{VDA: np.VDA, PgNum: of.Pos.PgNum + 1, Pos: 0}
			} else {
				of.Pos = FilePosition{VDA: next, PgNum: of.Pos.PgNum + 1, Pos: 0}
			}
			continue
		}
		n := copy(pb[of.Pos.Pos:], buf[total:])
		p.Data = bytesToPage(pb)
		if of.Pos.Pos+n > int(p.Label.NBytes) {
			p.Label.NBytes = uint16(of.Pos.Pos + n)
		}
		if err := fs.writePage(p); err != nil {
			of.Err = err
			return total, err
		}
		total += n
		of.Pos.Pos += n
	}
	return total, nil
}

// Trim discards every page after of.Pos's current page, zeroes the
// unused tail of the current page, and returns the discarded pages to
// the free list (spec.md section 4.8).
func (fs *FS) Trim(of *OpenFile) error {
	if of.Pos.PgNum == 0 {
		return nil
	}
	p, err := fs.readPage(of.Pos.VDA)
	if err != nil {
		return err
	}
	next, ok, err := fs.nextVDA(p.Label.NextRDA)
	if err != nil {
		return err
	}
	pb := pageBytes(p.Data)
	for i := of.Pos.Pos; i < bytesPerPage; i++ {
		pb[i] = 0
	}
	p.Data = bytesToPage(pb)
	if int(p.Label.NBytes) > of.Pos.Pos {
		p.Label.NBytes = uint16(of.Pos.Pos)
	}
	p.Label.NextRDA = 0
	if err := fs.writePage(p); err != nil {
		return err
	}
	if ok {
		if err := fs.freeChainFrom(next); err != nil {
			return err
		}
	}
	return nil
}

// Length returns a file's total content length in bytes by walking its
// entire chain and summing each page's used byte count.
func (fs *FS) Length(fe FileEntry) (int, error) {
	leader, err := fs.readPage(fe.LeaderVDA)
	if err != nil {
		return 0, err
	}
	total := 0
	vda, ok, err := fs.nextVDA(leader.Label.NextRDA)
	if err != nil {
		return 0, err
	}
	seen := map[int]bool{}
	for ok {
		if seen[vda] {
			return 0, palerr.NewAtVDA(palerr.Integrity, vda, "altofs: page chain cycle")
		}
		seen[vda] = true
		p, err := fs.readPage(vda)
		if err != nil {
			return 0, err
		}
		total += int(p.Label.NBytes)
		vda, ok, err = fs.nextVDA(p.Label.NextRDA)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
