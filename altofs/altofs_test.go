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

package altofs_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/petersieg/palo/altofs"
	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/internal/palotest"
)

func freshFS(t *testing.T) *altofs.FS {
	t.Helper()
	env := environment.New(environment.AltoII3K, nil)
	g := diskimage.Geometry{NumDisks: 1, NumCylinders: 4, NumHeads: 2, NumSectors: 12}
	fs, err := altofs.Format(env, g)
	palotest.ExpectSuccess(t, err)
	return fs
}

func sysDir(t *testing.T, fs *altofs.FS) altofs.FileEntry {
	t.Helper()
	fe, err := fs.FindFile("")
	palotest.ExpectSuccess(t, err)
	return fe
}

func TestInsertExtractRoundTrip(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)

	content := strings.Repeat("hello, alto! ", 100)
	fe, err := fs.Insert(root, "hello.bcpl", strings.NewReader(content), 12345)
	palotest.ExpectSuccess(t, err)

	var out bytes.Buffer
	palotest.ExpectSuccess(t, fs.Extract(fe, &out))
	palotest.ExpectEquality(t, out.String(), content)

	fi, err := fs.ReadFileInfo(fe.LeaderVDA)
	palotest.ExpectSuccess(t, err)
	palotest.ExpectEquality(t, fi.Name, "hello.bcpl")
}

func TestFindFileAfterInsert(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)
	_, err := fs.Insert(root, "doc.txt", strings.NewReader("small"), 1)
	palotest.ExpectSuccess(t, err)

	fe, err := fs.FindFile("doc.txt")
	palotest.ExpectSuccess(t, err)

	var out bytes.Buffer
	palotest.ExpectSuccess(t, fs.Extract(fe, &out))
	palotest.ExpectEquality(t, out.String(), "small")

	// Alto directory lookups are case-insensitive.
	_, err = fs.FindFile("DOC.TXT")
	palotest.ExpectSuccess(t, err)
}

func TestBitmapInvariantAfterMutation(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)
	_, err := fs.Insert(root, "a.txt", strings.NewReader(strings.Repeat("x", 2000)), 1)
	palotest.ExpectSuccess(t, err)
	fe2, err := fs.Insert(root, "b.txt", strings.NewReader("y"), 1)
	palotest.ExpectSuccess(t, err)
	palotest.ExpectSuccess(t, fs.Remove(root, "b.txt", altofs.RemoveOptions{}))

	checkBitmapInvariant(t, fs)
	_ = fe2
}

func checkBitmapInvariant(t *testing.T, fs *altofs.FS) {
	t.Helper()
	bitmap := fs.Bitmap()
	img := fs.Image()
	for vda := 0; vda < img.NumPages(); vda++ {
		p, err := img.ReadPageAt(vda)
		palotest.ExpectSuccess(t, err)
		want := p.Label.Version != diskimage.VersionFree
		palotest.ExpectEquality(t, bitmap[vda], want)
	}
}

func TestChainClosure(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)
	fe, err := fs.Insert(root, "big.txt", strings.NewReader(strings.Repeat("z", 3000)), 1)
	palotest.ExpectSuccess(t, err)

	img := fs.Image()
	leader, err := img.ReadPageAt(fe.LeaderVDA)
	palotest.ExpectSuccess(t, err)

	expectedPgNum := uint16(0)
	rda := leader.Label.NextRDA
	seen := 0
	for rda != 0 {
		vda, err := img.Geom().RDAToVDA(rda)
		palotest.ExpectSuccess(t, err)
		p, err := img.ReadPageAt(vda)
		palotest.ExpectSuccess(t, err)
		expectedPgNum++
		palotest.ExpectEquality(t, p.Label.FilePgNum, expectedPgNum)
		rda = p.Label.NextRDA
		seen++
		if seen > img.NumPages() {
			t.Fatalf("chain did not terminate")
		}
	}
}

func TestScavengeIdempotentOnCleanImage(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)
	_, err := fs.Insert(root, "hello.bcpl", strings.NewReader("payload"), 1)
	palotest.ExpectSuccess(t, err)

	before := snapshotPages(t, fs)
	palotest.ExpectSuccess(t, fs.Scavenge())
	after := snapshotPages(t, fs)
	if before != after {
		t.Fatalf("scavenge on a clean image changed page state")
	}

	faults := fs.CheckIntegrity(altofs.LevelDirectories)
	palotest.ExpectEquality(t, len(faults), 0)
}

func TestScavengeRecoversFromDirectoryCorruption(t *testing.T) {
	fs := freshFS(t)
	root := sysDir(t, fs)
	_, err := fs.Insert(root, "hello.bcpl", strings.NewReader("payload"), 1)
	palotest.ExpectSuccess(t, err)

	// Zero the SysDir leader page's own content (file_info), simulating
	// the directory-corruption scenario in spec.md section 8.
	img := fs.Image()
	leaderVDA := root.LeaderVDA
	p, err := img.ReadPageAt(leaderVDA)
	palotest.ExpectSuccess(t, err)
	p.Data = [256]uint16{}
	palotest.ExpectSuccess(t, img.WritePageAt(p))

	palotest.ExpectSuccess(t, fs.Scavenge())

	fe, err := fs.FindFile("hello.bcpl")
	palotest.ExpectSuccess(t, err)

	var out bytes.Buffer
	palotest.ExpectSuccess(t, fs.Extract(fe, &out))
	palotest.ExpectEquality(t, out.String(), "payload")
}

func snapshotPages(t *testing.T, fs *altofs.FS) string {
	t.Helper()
	img := fs.Image()
	var b strings.Builder
	for vda := 0; vda < img.NumPages(); vda++ {
		p, err := img.ReadPageAt(vda)
		palotest.ExpectSuccess(t, err)
		b.WriteString(pageSignature(p))
	}
	return b.String()
}

func pageSignature(p diskimage.Page) string {
	var b strings.Builder
	b.WriteByte('[')
	writeHex(&b, p.Label.NextRDA)
	writeHex(&b, p.Label.PrevRDA)
	writeHex(&b, p.Label.NBytes)
	writeHex(&b, p.Label.FilePgNum)
	writeHex(&b, p.Label.Version)
	writeHex(&b, p.Label.SNWord1)
	writeHex(&b, p.Label.SNWord2)
	for _, w := range p.Data {
		writeHex(&b, w)
	}
	b.WriteByte(']')
	return b.String()
}

func writeHex(b *strings.Builder, w uint16) {
	const hex = "0123456789abcdef"
	b.WriteByte(hex[(w>>12)&0xF])
	b.WriteByte(hex[(w>>8)&0xF])
	b.WriteByte(hex[(w>>4)&0xF])
	b.WriteByte(hex[w&0xF])
}
