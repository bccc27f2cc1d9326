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
	"io"
	"strings"

	"github.com/petersieg/palo/palerr"
)

// nextSN allocates a fresh serial number, seeded from the highest SN
// already on the volume so newly created files never collide with
// existing ones.
func (fs *FS) nextSN(directory bool) SN {
	if fs.snNext == 0 {
		fs.snNext = fs.scanHighestSN() + 1
	}
	eff := fs.snNext
	fs.snNext++
	sn := SN{Word1: uint16(eff >> 16), Word2: uint16(eff)}
	if directory {
		sn.Word1 |= snDirectory
	}
	return sn
}

func (fs *FS) scanHighestSN() uint32 {
	var max uint32
	for vda := 0; vda < fs.image.NumPages(); vda++ {
		p, err := fs.readPage(vda)
		if err != nil || p.Label.Free() || p.Label.Bad() {
			continue
		}
		eff := (SN{Word1: p.Label.SNWord1, Word2: p.Label.SNWord2}).Effective()
		if eff > max {
			max = eff
		}
	}
	return max
}

// Extract streams a file's content to w: only the bytes a regular Read
// would return. The leader page's metadata is never part of the stream
// (spec.md section 4.8).
func (fs *FS) Extract(fe FileEntry, w io.Writer) error {
	of, err := fs.Open(fe)
	if err != nil {
		return err
	}
	buf := make([]byte, bytesPerPage)
	for {
		n, err := fs.Read(of, buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return palerr.Newf(palerr.IO, "altofs: extract: %v", werr)
			}
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// Insert creates a new file named name in directory dirFE, writes r's
// full contents into it, and appends a directory entry. mtime is the
// host file's modification time.Time.Unix() value, used to stamp
// file_info.written (spec.md section 4.8).
func (fs *FS) Insert(dirFE FileEntry, name string, r io.Reader, mtime int32) (FileEntry, error) {
	if _, ok, err := fs.FindInDir(dirFE, name); err != nil {
		return FileEntry{}, err
	} else if ok {
		return FileEntry{}, palerr.Newf(palerr.User, "altofs: %q already exists", name)
	}

	leaderVDA, err := fs.allocPage()
	if err != nil {
		return FileEntry{}, err
	}
	sn := fs.nextSN(false)
	fi := FileInfo{Name: name, Consecutive: true, Created: mtime, Written: mtime}
	if err := fs.initLeader(leaderVDA, sn, fi); err != nil {
		return FileEntry{}, err
	}
	fe := FileEntry{SN: sn, Version: 1, LeaderVDA: leaderVDA}

	of, err := fs.Open(fe)
	if err != nil {
		return FileEntry{}, err
	}
	buf := make([]byte, bytesPerPage)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := fs.Write(of, buf[:n]); werr != nil {
				return FileEntry{}, werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return FileEntry{}, palerr.Newf(palerr.IO, "altofs: insert: %v", rerr)
		}
	}

	if err := fs.AppendEntry(dirFE, DirectoryEntry{
		Type:      DirEntryFile,
		FileEntry: fe,
		Name:      name,
	}); err != nil {
		return FileEntry{}, err
	}
	return fe, nil
}

// Replace truncates an existing file and rewrites its content from r,
// updating file_info.written (spec.md section 4.8).
func (fs *FS) Replace(fe FileEntry, r io.Reader, mtime int32) error {
	of, err := fs.Open(fe)
	if err != nil {
		return err
	}
	if err := fs.Trim(of); err != nil {
		return err
	}
	of, err = fs.Open(fe)
	if err != nil {
		return err
	}
	buf := make([]byte, bytesPerPage)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := fs.Write(of, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return palerr.Newf(palerr.IO, "altofs: replace: %v", rerr)
		}
	}
	fi, err := fs.ReadFileInfo(fe.LeaderVDA)
	if err != nil {
		return err
	}
	fi.Written = mtime
	return fs.WriteFileInfo(fe.LeaderVDA, fi)
}

// RemoveOptions controls Remove's behavior, mirroring the par CLI's
// -nru/-nud flags (spec.md section 6).
type RemoveOptions struct {
	// NoRemoveUnderlying (-nru) leaves the file's pages allocated
	// instead of returning them to the free list.
	NoRemoveUnderlying bool

	// NoUpdateDescriptor (-nud) suppresses rewriting the directory's own
	// leader page (a no-op in this implementation, since AppendEntry and
	// MarkRemoved never touch the directory's leader metadata; kept for
	// CLI-surface parity).
	NoUpdateDescriptor bool
}

// Remove unlinks a directory entry: its slot's type becomes MISSING (its
// Length retained) and, unless NoRemoveUnderlying, the file's pages are
// returned to the free list (spec.md section 4.8).
func (fs *FS) Remove(dirFE FileEntry, name string, opts RemoveOptions) error {
	removed, err := fs.MarkRemoved(dirFE, name)
	if err != nil {
		return err
	}
	if opts.NoRemoveUnderlying {
		return nil
	}
	return fs.freeChainFrom(removed.LeaderVDA)
}

// MkDir creates a new, empty subdirectory named name inside dirFE.
func (fs *FS) MkDir(dirFE FileEntry, name string) (FileEntry, error) {
	if _, ok, err := fs.FindInDir(dirFE, name); err != nil {
		return FileEntry{}, err
	} else if ok {
		return FileEntry{}, palerr.Newf(palerr.User, "altofs: %q already exists", name)
	}
	leaderVDA, err := fs.allocPage()
	if err != nil {
		return FileEntry{}, err
	}
	sn := fs.nextSN(true)
	if err := fs.initLeader(leaderVDA, sn, FileInfo{Name: name, Consecutive: true}); err != nil {
		return FileEntry{}, err
	}
	fe := FileEntry{SN: sn, Version: 1, LeaderVDA: leaderVDA}
	if err := fs.AppendEntry(dirFE, DirectoryEntry{Type: DirEntryFile, FileEntry: fe, Name: name}); err != nil {
		return FileEntry{}, err
	}
	return fe, nil
}

// Copy duplicates src's content into a new file named dstName inside
// dstDir, matching the par `-c src dst` surface.
func (fs *FS) Copy(src FileEntry, dstDir FileEntry, dstName string, mtime int32) (FileEntry, error) {
	of, err := fs.Open(src)
	if err != nil {
		return FileEntry{}, err
	}
	var buf strings.Builder
	chunk := make([]byte, bytesPerPage)
	for {
		n, rerr := fs.Read(of, chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if rerr != nil {
			return FileEntry{}, rerr
		}
		if n == 0 {
			break
		}
	}
	return fs.Insert(dstDir, dstName, strings.NewReader(buf.String()), mtime)
}
