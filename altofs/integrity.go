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
	"github.com/petersieg/palo/notifications"
	"github.com/petersieg/palo/palerr"
)

// IntegrityLevel selects how thorough CheckIntegrity is, matching the
// four checks spec.md section 4.8 enumerates. Each level implies every
// level below it.
type IntegrityLevel int

const (
	// LevelLabelChain verifies every non-free page's label reaches a
	// leader page via its prev_rda chain.
	LevelLabelChain IntegrityLevel = iota + 1

	// LevelFileChains verifies next_rda chains from leader pages do not
	// cross files and terminate cleanly.
	LevelFileChains

	// LevelBitmap verifies the free-page bitmap agrees with
	// label.version==0xFFFF across every page.
	LevelBitmap

	// LevelDirectories verifies every directory entry resolves to a
	// leader page whose serial number matches.
	LevelDirectories
)

// CheckIntegrity runs every check up to and including level, returning
// one palerr.Error per fault found. Faults are never fatal - the image
// is left untouched and the caller decides whether to continue or
// scavenge (spec.md section 7).
func (fs *FS) CheckIntegrity(level IntegrityLevel) []*palerr.Error {
	var faults []*palerr.Error
	report := func(vda int, detail string) {
		faults = append(faults, palerr.NewAtVDA(palerr.Integrity, vda, detail))
		fs.env.NotifyEvent(notifications.NotifyIntegrityFault, vda, detail)
	}

	n := fs.image.NumPages()

	if level >= LevelLabelChain {
		for vda := 0; vda < n; vda++ {
			p, err := fs.readPage(vda)
			if err != nil {
				report(vda, "unreadable page")
				continue
			}
			if p.Label.Free() || p.Label.Bad() {
				continue
			}
			if p.Label.FilePgNum == 0 {
				continue
			}
			cur := p
			steps := 0
			for cur.Label.FilePgNum != 0 {
				prev, ok, err := fs.nextVDA(cur.Label.PrevRDA)
				if err != nil || !ok {
					report(vda, "prev_rda chain does not reach a leader")
					break
				}
				cur, err = fs.readPage(prev)
				if err != nil {
					report(vda, "prev_rda chain references unreadable page")
					break
				}
				steps++
				if steps > n {
					report(vda, "prev_rda chain cycle")
					break
				}
			}
		}
	}

	if level >= LevelFileChains {
		for vda := 0; vda < n; vda++ {
			p, err := fs.readPage(vda)
			if err != nil || p.Label.Free() || p.Label.Bad() || p.Label.FilePgNum != 0 {
				continue
			}
			expected := uint16(0)
			cur := p
			seen := map[int]bool{vda: true}
			for {
				if cur.Label.FilePgNum != expected {
					report(cur.VDA, "file_pgnum not monotonic in chain")
					break
				}
				expected++
				next, ok, err := fs.nextVDA(cur.Label.NextRDA)
				if err != nil {
					report(cur.VDA, "next_rda decode failure")
					break
				}
				if !ok {
					break
				}
				if seen[next] {
					report(next, "next_rda chain cycle")
					break
				}
				seen[next] = true
				np, err := fs.readPage(next)
				if err != nil {
					report(next, "next_rda chain references unreadable page")
					break
				}
				if np.Label.SNWord1 != cur.Label.SNWord1 || np.Label.SNWord2 != cur.Label.SNWord2 {
					report(next, "next_rda chain crosses into a different file")
					break
				}
				cur = np
			}
		}
	}

	if level >= LevelBitmap {
		for vda := 0; vda < n; vda++ {
			p, err := fs.readPage(vda)
			if err != nil {
				continue
			}
			want := !p.Label.Free()
			if fs.bitmap[vda] != want {
				report(vda, "bitmap disagrees with label.version")
			}
		}
	}

	if level >= LevelDirectories {
		fs.walkDirectoriesForIntegrity(SysDirLeaderVDA, report)
	}

	return faults
}

// walkDirectoriesForIntegrity recursively visits every directory
// reachable from leaderVDA, reporting entries whose leader page's
// serial number does not match the directory entry's.
func (fs *FS) walkDirectoriesForIntegrity(leaderVDA int, report func(vda int, detail string)) {
	fi, err := fs.ReadFileInfo(leaderVDA)
	if err != nil {
		report(leaderVDA, "unreadable directory leader")
		return
	}
	entries, err := fs.ListDir(fi.FileEntryHint)
	if err != nil {
		report(leaderVDA, "unreadable directory content")
		return
	}
	for _, e := range entries {
		if e.Type != DirEntryFile {
			continue
		}
		leader, err := fs.readPage(e.FileEntry.LeaderVDA)
		if err != nil {
			report(e.FileEntry.LeaderVDA, "directory entry leader page unreadable")
			continue
		}
		leaderSN := SN{Word1: leader.Label.SNWord1, Word2: leader.Label.SNWord2}
		if !leaderSN.Equal(e.FileEntry.SN) {
			report(e.FileEntry.LeaderVDA, "directory entry serial number mismatch")
			continue
		}
		if e.FileEntry.SN.IsDirectory() {
			fs.walkDirectoriesForIntegrity(e.FileEntry.LeaderVDA, report)
		}
	}
}
