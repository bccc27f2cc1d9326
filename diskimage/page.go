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

import "github.com/petersieg/palo/hardware/peripherals/disk"

// Label-free marker values for the Version field.
const (
	// VersionFree marks a page as unallocated.
	VersionFree = 0xFFFF

	// VersionBad marks a page the scavenger should never reuse.
	VersionBad = 0xFFFE
)

// Label is the decoded form of a page's 14-word label (spec.md section
// 3). NextRDA/PrevRDA here are the label's own copies of the chain
// pointers; the page's 2-word header carries a redundant copy of the
// same two words, matching the on-disk layout, but nothing in this
// tree reads it back.
type Label struct {
	NextRDA   uint16
	PrevRDA   uint16
	Unused    uint16
	NBytes    uint16
	FilePgNum uint16
	Version   uint16
	SNWord1   uint16
	SNWord2   uint16
}

// Free reports whether the label marks its page unallocated.
func (l Label) Free() bool { return l.Version == VersionFree }

// Bad reports whether the label marks its page as permanently unusable.
func (l Label) Bad() bool { return l.Version == VersionBad }

// encode packs a Label plus its header copy into the 16-word slice a
// disk.Page carries, matching the 2-word-header + 14-word-label layout
// of spec.md section 3.
func (l Label) encode() [16]uint16 {
	var w [16]uint16
	w[0] = l.NextRDA
	w[1] = l.PrevRDA
	w[2] = l.NextRDA
	w[3] = l.PrevRDA
	w[4] = l.Unused
	w[5] = l.NBytes
	w[6] = l.FilePgNum
	w[7] = l.Version
	w[8] = l.SNWord1
	w[9] = l.SNWord2
	return w
}

// decodeLabel is the inverse of encode, reading the 14-word label
// portion (words 2..9) back into a Label; the redundant header copy in
// words 0-1 is never read back.
func decodeLabel(w [16]uint16) Label {
	return Label{
		NextRDA:   w[2],
		PrevRDA:   w[3],
		Unused:    w[4],
		NBytes:    w[5],
		FilePgNum: w[6],
		Version:   w[7],
		SNWord1:   w[8],
		SNWord2:   w[9],
	}
}

// Page is one on-disk sector fully decoded: its VDA, label, and 512
// bytes (256 words) of data.
type Page struct {
	VDA   int
	Label Label
	Data  [256]uint16
}

// toDiskPage converts a decoded Page to the hardware/peripherals/disk
// wire format the controller reads and writes.
func (p Page) toDiskPage() disk.Page {
	return disk.Page{Label: p.Label.encode(), Data: p.Data}
}

// fromDiskPage decodes a disk.Page read from the controller/image back
// into a Page, attaching the VDA the caller already knows.
func fromDiskPage(vda int, dp disk.Page) Page {
	return Page{VDA: vda, Label: decodeLabel(dp.Label), Data: dp.Data}
}
