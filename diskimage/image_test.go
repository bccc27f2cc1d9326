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

package diskimage_test

import (
	"bytes"
	"testing"

	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/internal/palotest"
)

func TestGeometryVDARoundTrip(t *testing.T) {
	g := diskimage.StandardGeometry
	for cyl := 0; cyl < g.NumCylinders; cyl += 37 {
		for head := 0; head < g.NumHeads; head++ {
			for sector := 0; sector < g.NumSectors; sector += 5 {
				vda, err := g.VDA(0, cyl, head, sector)
				palotest.ExpectSuccess(t, err)
				gotDisk, gotCyl, gotHead, gotSector, err := g.Decode(vda)
				palotest.ExpectSuccess(t, err)
				palotest.ExpectEquality(t, gotDisk, 0)
				palotest.ExpectEquality(t, gotCyl, cyl)
				palotest.ExpectEquality(t, gotHead, head)
				palotest.ExpectEquality(t, gotSector, sector)
			}
		}
	}
}

func TestRDARoundTrip(t *testing.T) {
	for cyl := 0; cyl < 203; cyl += 11 {
		for head := 0; head < 2; head++ {
			for sector := 0; sector < 12; sector++ {
				rda := diskimage.RDA(cyl, head, sector)
				gotCyl, gotHead, gotSector := diskimage.DecodeRDA(rda)
				palotest.ExpectEquality(t, gotCyl, cyl)
				palotest.ExpectEquality(t, gotHead, head)
				palotest.ExpectEquality(t, gotSector, sector)
			}
		}
	}
}

func TestRawSaveLoadRoundTrip(t *testing.T) {
	g := diskimage.Geometry{NumDisks: 1, NumCylinders: 2, NumHeads: 2, NumSectors: 3}
	im := diskimage.NewBlank(g)
	p, err := im.ReadPageAt(4)
	palotest.ExpectSuccess(t, err)
	p.Label.NBytes = 42
	p.Data[0] = 0xAAAA
	palotest.ExpectSuccess(t, im.WritePageAt(p))

	var buf bytes.Buffer
	palotest.ExpectSuccess(t, im.Save(&buf, diskimage.Raw))

	loaded, err := diskimage.Load(&buf, diskimage.Raw, g)
	palotest.ExpectSuccess(t, err)
	got, err := loaded.ReadPageAt(4)
	palotest.ExpectSuccess(t, err)
	palotest.ExpectEquality(t, got.Label.NBytes, uint16(42))
	palotest.ExpectEquality(t, got.Data[0], uint16(0xAAAA))
}

func TestBFSSaveLoadRoundTrip(t *testing.T) {
	g := diskimage.Geometry{NumDisks: 1, NumCylinders: 2, NumHeads: 2, NumSectors: 3}
	im := diskimage.NewBlank(g)

	var buf bytes.Buffer
	palotest.ExpectSuccess(t, im.Save(&buf, diskimage.BFS))

	loaded, err := diskimage.Load(&buf, diskimage.BFS, diskimage.Geometry{})
	palotest.ExpectSuccess(t, err)
	palotest.ExpectEquality(t, loaded.Geom().NumCylinders, g.NumCylinders)
	palotest.ExpectEquality(t, loaded.NumPages(), im.NumPages())
}
