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
	"strings"

	"github.com/petersieg/palo/palerr"
)

const dirEntryHeaderWords = 8

// encodeDirEntry renders e as the variable-length word record
// spec.md section 3 describes.
func encodeDirEntry(e DirectoryEntry) []uint16 {
	name := []byte(e.Name)
	nameWords := (len(name) + 1) / 2
	length := dirEntryHeaderWords + nameWords
	out := make([]uint16, length)
	out[0] = uint16(e.Type)
	out[1] = uint16(length)
	out[2] = e.FileEntry.SN.Word1
	out[3] = e.FileEntry.SN.Word2
	out[4] = e.FileEntry.Version
	if e.FileEntry.Blank {
		out[5] = 1
	}
	out[6] = uint16(e.FileEntry.LeaderVDA)
	out[7] = uint16(len(name))
	for i, ch := range name {
		w := dirEntryHeaderWords + i/2
		if i%2 == 0 {
			out[w] |= uint16(ch)
		} else {
			out[w] |= uint16(ch) << 8
		}
	}
	return out
}

// decodeDirEntry parses one record from words starting at offset 0 of
// the slice, returning the entry and the record's word length.
func decodeDirEntry(words []uint16) (DirectoryEntry, int, error) {
	if len(words) < dirEntryHeaderWords {
		return DirectoryEntry{}, 0, palerr.New(palerr.Integrity, "altofs: truncated directory entry")
	}
	length := int(words[1])
	if length < dirEntryHeaderWords || length > len(words) {
		return DirectoryEntry{}, 0, palerr.New(palerr.Integrity, "altofs: directory entry length out of range")
	}
	nameLen := int(words[7])
	nameWords := length - dirEntryHeaderWords
	if (nameLen+1)/2 > nameWords {
		nameLen = nameWords * 2
	}
	name := make([]byte, nameLen)
	for i := 0; i < nameLen; i++ {
		w := words[dirEntryHeaderWords+i/2]
		if i%2 == 0 {
			name[i] = byte(w)
		} else {
			name[i] = byte(w >> 8)
		}
	}
	e := DirectoryEntry{
		Type:   DirEntryType(words[0]),
		Length: length,
		FileEntry: FileEntry{
			SN:        SN{Word1: words[2], Word2: words[3]},
			Version:   words[4],
			Blank:     words[5] != 0,
			LeaderVDA: int(words[6]),
		},
		Name: string(name),
	}
	return e, length, nil
}

// ListDir reads and parses every record in the directory file fe,
// including MISSING slots.
func (fs *FS) ListDir(fe FileEntry) ([]DirectoryEntry, error) {
	n, err := fs.Length(fe)
	if err != nil {
		return nil, err
	}
	of, err := fs.Open(fe)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := fs.Read(of, buf); err != nil {
		return nil, err
	}
	words := bytesToWords(buf)

	var entries []DirectoryEntry
	for len(words) >= dirEntryHeaderWords {
		e, used, err := decodeDirEntry(words)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
		words = words[used:]
	}
	return entries, nil
}

func bytesToWords(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[i*2]) | uint16(b[i*2+1])<<8
	}
	return out
}

func wordsToBytes(w []uint16) []byte {
	out := make([]byte, len(w)*2)
	for i, v := range w {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// FindInDir scans a directory's live entries for name, matching
// case-insensitively per Alto convention (spec.md section 4.8).
func (fs *FS) FindInDir(dirFE FileEntry, name string) (DirectoryEntry, bool, error) {
	entries, err := fs.ListDir(dirFE)
	if err != nil {
		return DirectoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.Type == DirEntryFile && strings.EqualFold(e.Name, name) {
			return e, true, nil
		}
	}
	return DirectoryEntry{}, false, nil
}

// AppendEntry appends a new directory_entry record to the end of
// directory dirFE's content.
func (fs *FS) AppendEntry(dirFE FileEntry, e DirectoryEntry) error {
	n, err := fs.Length(dirFE)
	if err != nil {
		return err
	}
	of, err := fs.Open(dirFE)
	if err != nil {
		return err
	}
	// Advance to end of file.
	skip := make([]byte, n)
	if _, err := fs.Read(of, skip); err != nil {
		return err
	}
	rec := wordsToBytes(encodeDirEntry(e))
	_, err = fs.Write(of, rec)
	return err
}

// entryByteOffset locates the byte offset of the live entry named name
// within dirFE's content, or ok=false if not found.
func (fs *FS) entryByteOffset(dirFE FileEntry, name string) (offset, length int, ok bool, err error) {
	n, err := fs.Length(dirFE)
	if err != nil {
		return 0, 0, false, err
	}
	of, err := fs.Open(dirFE)
	if err != nil {
		return 0, 0, false, err
	}
	buf := make([]byte, n)
	if _, err := fs.Read(of, buf); err != nil {
		return 0, 0, false, err
	}
	words := bytesToWords(buf)
	pos := 0
	for len(words) >= dirEntryHeaderWords {
		e, used, err := decodeDirEntry(words)
		if err != nil {
			return 0, 0, false, err
		}
		if e.Type == DirEntryFile && strings.EqualFold(e.Name, name) {
			return pos * 2, used, true, nil
		}
		words = words[used:]
		pos += used
	}
	return 0, 0, false, nil
}

// MarkRemoved overwrites the live entry named name with a MISSING record
// of the same Length, so later entries keep their byte offset (spec.md
// section 4.8, remove).
func (fs *FS) MarkRemoved(dirFE FileEntry, name string) (FileEntry, error) {
	entries, err := fs.ListDir(dirFE)
	if err != nil {
		return FileEntry{}, err
	}
	var target DirectoryEntry
	var found bool
	for _, e := range entries {
		if e.Type == DirEntryFile && strings.EqualFold(e.Name, name) {
			target, found = e, true
			break
		}
	}
	if !found {
		return FileEntry{}, palerr.Newf(palerr.User, "altofs: %q not found", name)
	}

	offset, _, ok, err := fs.entryByteOffset(dirFE, name)
	if err != nil {
		return FileEntry{}, err
	}
	if !ok {
		return FileEntry{}, palerr.Newf(palerr.User, "altofs: %q not found", name)
	}
	missing := DirectoryEntry{Type: DirEntryMissing, Length: target.Length}
	rec := encodeDirEntry(missing)
	// Pad/truncate to exactly target.Length words so the slot's byte span
	// is unchanged.
	if len(rec) < target.Length {
		padded := make([]uint16, target.Length)
		copy(padded, rec)
		padded[1] = uint16(target.Length)
		rec = padded
	}
	rec = rec[:target.Length]
	rec[1] = uint16(target.Length)

	if err := fs.overwriteAt(dirFE, offset, wordsToBytes(rec)); err != nil {
		return FileEntry{}, err
	}
	return target.FileEntry, nil
}

// overwriteAt rewrites len(data) bytes of dirFE's content starting at
// byte offset, without changing the file's length.
func (fs *FS) overwriteAt(fe FileEntry, offset int, data []byte) error {
	of, err := fs.Open(fe)
	if err != nil {
		return err
	}
	skip := make([]byte, offset)
	if _, err := fs.Read(of, skip); err != nil {
		return err
	}
	return fs.overwriteFromCursor(of, data)
}

// overwriteFromCursor writes data starting at of's current position
// without extending the chain - it is an error to run past the file's
// existing content, since overwrites never change length.
func (fs *FS) overwriteFromCursor(of *OpenFile, data []byte) error {
	total := 0
	for total < len(data) {
		if of.Pos.PgNum == 0 {
			return palerr.New(palerr.Programmer, "altofs: overwrite past end of file")
		}
		p, err := fs.readPage(of.Pos.VDA)
		if err != nil {
			return err
		}
		used := int(p.Label.NBytes)
		if of.Pos.Pos >= used {
			next, ok, err := fs.nextVDA(p.Label.NextRDA)
			if err != nil {
				return err
			}
			if !ok {
				return palerr.New(palerr.Programmer, "altofs: overwrite past end of file")
			}
			of.Pos = FilePosition{VDA: next, PgNum: of.Pos.PgNum + 1, Pos: 0}
			continue
		}
		pb := pageBytes(p.Data)
		n := copy(pb[of.Pos.Pos:used], data[total:])
		p.Data = bytesToPage(pb)
		if err := fs.writePage(p); err != nil {
			return err
		}
		total += n
		of.Pos.Pos += n
	}
	return nil
}

// FindFile resolves a '/'-separated path by walking directories from
// SysDir (fixed leader VDA 1), matching each component case-insensitively
// (spec.md section 4.8).
func (fs *FS) FindFile(path string) (FileEntry, error) {
	path = strings.Trim(path, "/")
	rootFI, err := fs.ReadFileInfo(SysDirLeaderVDA)
	if err != nil {
		return FileEntry{}, err
	}
	current := rootFI.FileEntryHint
	if path == "" {
		return current, nil
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		entry, ok, err := fs.FindInDir(current, part)
		if err != nil {
			return FileEntry{}, err
		}
		if !ok {
			return FileEntry{}, palerr.Newf(palerr.User, "altofs: %q not found", path)
		}
		current = entry.FileEntry
	}
	return current, nil
}
