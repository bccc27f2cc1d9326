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

import "github.com/petersieg/palo/diskimage"

// The leader page's data area holds nothing but file_info (spec.md
// section 3); regular file content never uses page_num 0. This fixed
// word layout is this implementation's own choice (the exact real-Alto
// byte offsets are not part of the testable surface - see DESIGN.md) but
// it round-trips completely, which is what spec.md's "AltoFS round-trip"
// property requires.
const (
	leaderOffChangeSN1  = 0
	leaderOffChangeSN2  = 1
	leaderOffConsec     = 2
	leaderOffCreatedHi  = 3
	leaderOffCreatedLo  = 4
	leaderOffWrittenHi  = 5
	leaderOffWrittenLo  = 6
	leaderOffReadHi     = 7
	leaderOffReadLo     = 8
	leaderOffHintVDA    = 9
	leaderOffHintPgNum  = 10
	leaderOffHintPos    = 11
	leaderOffFESN1      = 12
	leaderOffFESN2      = 13
	leaderOffFEVersion  = 14
	leaderOffFEBlank    = 15
	leaderOffFELeaderV  = 16
	leaderOffNameLen    = 17
	leaderOffNameStart  = 18
	maxNameWords        = 20 // 40 bytes, plenty for Alto's 8.3-ish names
)

func putInt32(d *[256]uint16, hiOff, loOff int, v int32) {
	d[hiOff] = uint16(uint32(v) >> 16)
	d[loOff] = uint16(uint32(v))
}

func getInt32(d [256]uint16, hiOff, loOff int) int32 {
	return int32(uint32(d[hiOff])<<16 | uint32(d[loOff]))
}

func putBool(d *[256]uint16, off int, v bool) {
	if v {
		d[off] = 1
	} else {
		d[off] = 0
	}
}

func putName(d *[256]uint16, name string) {
	b := []byte(name)
	if len(b) > maxNameWords*2 {
		b = b[:maxNameWords*2]
	}
	d[leaderOffNameLen] = uint16(len(b))
	for i := 0; i < maxNameWords; i++ {
		var w uint16
		lo, hi := i*2, i*2+1
		if lo < len(b) {
			w = uint16(b[lo])
		}
		if hi < len(b) {
			w |= uint16(b[hi]) << 8
		}
		d[leaderOffNameStart+i] = w
	}
}

func getName(d [256]uint16) string {
	n := int(d[leaderOffNameLen])
	if n > maxNameWords*2 {
		n = maxNameWords * 2
	}
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		w := d[leaderOffNameStart+i/2]
		if i%2 == 0 {
			b[i] = byte(w)
		} else {
			b[i] = byte(w >> 8)
		}
	}
	return string(b)
}

// encodeFileInfo writes fi into a leader page's data area.
func encodeFileInfo(fi FileInfo) [256]uint16 {
	var d [256]uint16
	d[leaderOffChangeSN1] = fi.ChangeSN.Word1
	d[leaderOffChangeSN2] = fi.ChangeSN.Word2
	putBool(&d, leaderOffConsec, fi.Consecutive)
	putInt32(&d, leaderOffCreatedHi, leaderOffCreatedLo, fi.Created)
	putInt32(&d, leaderOffWrittenHi, leaderOffWrittenLo, fi.Written)
	putInt32(&d, leaderOffReadHi, leaderOffReadLo, fi.Read)
	d[leaderOffHintVDA] = uint16(fi.LastPageHint.VDA)
	d[leaderOffHintPgNum] = uint16(fi.LastPageHint.PgNum)
	d[leaderOffHintPos] = uint16(fi.LastPageHint.Pos)
	d[leaderOffFESN1] = fi.FileEntryHint.SN.Word1
	d[leaderOffFESN2] = fi.FileEntryHint.SN.Word2
	d[leaderOffFEVersion] = fi.FileEntryHint.Version
	putBool(&d, leaderOffFEBlank, fi.FileEntryHint.Blank)
	d[leaderOffFELeaderV] = uint16(fi.FileEntryHint.LeaderVDA)
	putName(&d, fi.Name)
	return d
}

// decodeFileInfo is the inverse of encodeFileInfo.
func decodeFileInfo(d [256]uint16) FileInfo {
	return FileInfo{
		Name:        getName(d),
		Consecutive: d[leaderOffConsec] != 0,
		ChangeSN:    SN{Word1: d[leaderOffChangeSN1], Word2: d[leaderOffChangeSN2]},
		Created:     getInt32(d, leaderOffCreatedHi, leaderOffCreatedLo),
		Written:     getInt32(d, leaderOffWrittenHi, leaderOffWrittenLo),
		Read:        getInt32(d, leaderOffReadHi, leaderOffReadLo),
		LastPageHint: FilePosition{
			VDA:   int(d[leaderOffHintVDA]),
			PgNum: int(d[leaderOffHintPgNum]),
			Pos:   int(d[leaderOffHintPos]),
		},
		FileEntryHint: FileEntry{
			SN:        SN{Word1: d[leaderOffFESN1], Word2: d[leaderOffFESN2]},
			Version:   d[leaderOffFEVersion],
			Blank:     d[leaderOffFEBlank] != 0,
			LeaderVDA: int(d[leaderOffFELeaderV]),
		},
	}
}

// initLeader allocates and writes a fresh leader page at vda, with no
// following pages yet linked.
func (fs *FS) initLeader(vda int, sn SN, fi FileInfo) error {
	fi.FileEntryHint = FileEntry{SN: sn, Version: 1, LeaderVDA: vda}
	p := diskimage.Page{
		VDA: vda,
		Label: diskimage.Label{
			NextRDA:   0,
			PrevRDA:   0,
			NBytes:    0,
			FilePgNum: 0,
			Version:   1,
			SNWord1:   sn.Word1,
			SNWord2:   sn.Word2,
		},
		Data: encodeFileInfo(fi),
	}
	return fs.writePage(p)
}

// ReadFileInfo reads and decodes the leader page's file_info at leaderVDA.
func (fs *FS) ReadFileInfo(leaderVDA int) (FileInfo, error) {
	p, err := fs.readPage(leaderVDA)
	if err != nil {
		return FileInfo{}, err
	}
	return decodeFileInfo(p.Data), nil
}

// WriteFileInfo rewrites the leader page's file_info in place, leaving
// the label untouched.
func (fs *FS) WriteFileInfo(leaderVDA int, fi FileInfo) error {
	p, err := fs.readPage(leaderVDA)
	if err != nil {
		return err
	}
	p.Data = encodeFileInfo(fi)
	return fs.writePage(p)
}
