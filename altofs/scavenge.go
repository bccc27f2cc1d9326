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
	"sort"

	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/notifications"
)

// Scavenge reconstructs the file system from label metadata alone,
// bypassing possibly-corrupt directories (spec.md section 4.8). It:
//  1. repairs the root directory's own leader metadata if damaged,
//  2. heals page chains by re-sorting each serial-number group on
//     file_pgnum and re-linking next_rda/prev_rda,
//  3. rebuilds the free-page bitmap from scratch, and
//  4. registers any leader page not reachable by walking the existing
//     directory tree as a recovered entry under SysDir.
//
// On an already-consistent image this is a no-op: every leader is
// already reachable, so step 4 finds no orphans and no directory is
// rewritten (spec.md section 8, "scavenge idempotence").
func (fs *FS) Scavenge() error {
	fs.env.NotifyEvent(notifications.NotifyScavengeStart)
	defer fs.env.NotifyEvent(notifications.NotifyScavengeEnd)

	if err := fs.repairSysDirLeader(); err != nil {
		return err
	}

	groups, err := fs.groupPagesBySerial()
	if err != nil {
		return err
	}
	leaders := fs.healChains(groups)

	fs.rebuildBitmap()

	sysDirFE, err := fs.rootEntry()
	if err != nil {
		return err
	}
	reachable := map[uint32]bool{}
	fs.collectReachable(sysDirFE, reachable)
	reachable[sysDirFE.SN.Effective()] = true

	sort.Slice(leaders, func(i, j int) bool { return leaders[i].VDA < leaders[j].VDA })
	for _, ld := range leaders {
		if reachable[ld.SN.Effective()] {
			continue
		}
		fi, err := fs.ReadFileInfo(ld.VDA)
		if err != nil {
			continue
		}
		name := fi.Name
		if name == "" {
			name = recoveredName(ld.VDA)
		}
		entry := DirectoryEntry{
			Type: DirEntryFile,
			FileEntry: FileEntry{
				SN:        ld.SN,
				Version:   1,
				LeaderVDA: ld.VDA,
			},
			Name: name,
		}
		if err := fs.AppendEntry(sysDirFE, entry); err != nil {
			return err
		}
		reachable[ld.SN.Effective()] = true
	}
	return nil
}

func recoveredName(vda int) string {
	const digits = "0123456789"
	if vda == 0 {
		return "recovered.0"
	}
	b := []byte("recovered.")
	var digs []byte
	for vda > 0 {
		digs = append(digs, digits[vda%10])
		vda /= 10
	}
	for i := len(digs) - 1; i >= 0; i-- {
		b = append(b, digs[i])
	}
	return string(b)
}

// rootEntry returns SysDir's own FileEntry, reading it directly from the
// (possibly just-repaired) leader page's label and file_info.
func (fs *FS) rootEntry() (FileEntry, error) {
	p, err := fs.readPage(SysDirLeaderVDA)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{
		SN:        SN{Word1: p.Label.SNWord1, Word2: p.Label.SNWord2},
		Version:   1,
		LeaderVDA: SysDirLeaderVDA,
	}, nil
}

// repairSysDirLeader restores SysDir's leader file_info when its Name or
// self-referential FileEntryHint has been zeroed, leaving its content
// chain (the actual directory listing) untouched.
func (fs *FS) repairSysDirLeader() error {
	p, err := fs.readPage(SysDirLeaderVDA)
	if err != nil {
		return err
	}
	fi := decodeFileInfo(p.Data)
	if fi.Name != "" && fi.FileEntryHint.LeaderVDA == SysDirLeaderVDA {
		return nil
	}
	fi.Name = "SysDir"
	fi.Consecutive = true
	fi.FileEntryHint = FileEntry{
		SN:        SN{Word1: p.Label.SNWord1, Word2: p.Label.SNWord2},
		Version:   1,
		LeaderVDA: SysDirLeaderVDA,
	}
	return fs.WriteFileInfo(SysDirLeaderVDA, fi)
}

// collectReachable recursively walks directory content starting from
// dirFE, recording every entry's effective serial number it finds. Read
// failures are skipped rather than propagated - a damaged subtree simply
// yields fewer reachable entries, and its members surface as orphans.
func (fs *FS) collectReachable(dirFE FileEntry, out map[uint32]bool) {
	entries, err := fs.ListDir(dirFE)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.Type != DirEntryFile {
			continue
		}
		out[e.FileEntry.SN.Effective()] = true
		if e.FileEntry.SN.IsDirectory() {
			fs.collectReachable(e.FileEntry, out)
		}
	}
}

type serialGroup struct {
	SN    SN
	Pages []diskimage.Page
}

// groupPagesBySerial scans every allocated page and buckets it by its
// label's effective serial number.
func (fs *FS) groupPagesBySerial() (map[uint32]*serialGroup, error) {
	groups := map[uint32]*serialGroup{}
	for vda := 0; vda < fs.image.NumPages(); vda++ {
		p, err := fs.readPage(vda)
		if err != nil {
			continue
		}
		if p.Label.Free() || p.Label.Bad() {
			continue
		}
		sn := SN{Word1: p.Label.SNWord1, Word2: p.Label.SNWord2}
		g, ok := groups[sn.Effective()]
		if !ok {
			g = &serialGroup{SN: sn}
			groups[sn.Effective()] = g
		}
		g.Pages = append(g.Pages, p)
	}
	return groups, nil
}

type discoveredLeader struct {
	VDA int
	SN  SN
}

// healChains sorts each group by file_pgnum, picks the lowest-VDA
// file_pgnum==0 page as leader, and re-links next_rda/prev_rda to match
// the sorted order, repairing any chain damage within the group.
func (fs *FS) healChains(groups map[uint32]*serialGroup) []discoveredLeader {
	var leaders []discoveredLeader
	for _, g := range groups {
		sort.Slice(g.Pages, func(i, j int) bool {
			if g.Pages[i].Label.FilePgNum != g.Pages[j].Label.FilePgNum {
				return g.Pages[i].Label.FilePgNum < g.Pages[j].Label.FilePgNum
			}
			return g.Pages[i].VDA < g.Pages[j].VDA
		})

		leaderIdx := -1
		for i, p := range g.Pages {
			if p.Label.FilePgNum == 0 {
				leaderIdx = i
				break
			}
		}
		if leaderIdx < 0 {
			continue // no page_num 0: orphaned fragment, not a file
		}
		leaders = append(leaders, discoveredLeader{VDA: g.Pages[leaderIdx].VDA, SN: g.SN})

		for i := leaderIdx; i < len(g.Pages); i++ {
			p := &g.Pages[i]
			p.Label.FilePgNum = uint16(i - leaderIdx)
			if i+1 < len(g.Pages) {
				rda, err := fs.vdaRDA(g.Pages[i+1].VDA)
				if err == nil {
					p.Label.NextRDA = rda
				}
			} else {
				p.Label.NextRDA = 0
			}
			if i > leaderIdx {
				rda, err := fs.vdaRDA(g.Pages[i-1].VDA)
				if err == nil {
					p.Label.PrevRDA = rda
				}
			}
			_ = fs.writePage(*p)
		}
	}
	return leaders
}
