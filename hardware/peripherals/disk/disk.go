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

// Package disk implements the Diablo disk controller seen by the
// DISK_SECTOR and DISK_WORD tasks: the KSTAT/KDATA/KCOM/KADR register set,
// seek/read/write sequencing, and the per-word and per-sector wake
// signals that drive task scheduling.
package disk

import "github.com/petersieg/palo/logger"

const (
	// Register selectors for Write, keyed by RSEL.
	RegKStat = 0
	RegKData = 1
	RegKCom  = 2
	RegKAdr  = 3
)

// KSTAT bits. Real hardware packs several more status bits in; these are
// the ones this controller actually sets.
const (
	kstatSeclate  = 1 << 0
	kstatSeekFail = 1 << 1
	kstatNotReady = 1 << 2
	kstatDone     = 1 << 15
)

// KCOM bits: the command register latched by the last write to RegKCom.
const (
	kcomXferOff = 1 << 0 // 0 = transfer disabled
	kcomWrite   = 1 << 1 // 1 = write, 0 = read
	kcomGo      = 1 << 2 // strobes the seek/transfer
	kcomRecal   = 1 << 3
)

// Page is one disk sector's worth of addressable storage: a 16-word
// label and 256 words of data, matching the on-disk page layout.
type Page struct {
	Label [16]uint16
	Data  [256]uint16
}

// Drive is the minimal geometry and page-access surface a disk image must
// provide. Satisfied by diskimage.Image.
type Drive interface {
	Geometry() (cylinders, heads, sectors int)
	ReadPage(cylinder, head, sector int) (Page, error)
	WritePage(cylinder, head, sector int, p Page) error
}

// Controller models one Diablo-31 drive attached to the DISK_SECTOR/
// DISK_WORD tasks.
type Controller struct {
	drive Drive

	kstat uint16
	kdata uint16
	kcom  uint16
	kadr  uint16

	cylinder, head, sector int

	// current holds the page latched by the last seek, and wordIdx is
	// the controller's position within it: 0..15 across the label,
	// 16..271 across the data, 272 once the sector is exhausted.
	current Page
	wordIdx int
	active  bool

	// sectorCountdown is how many CPU cycles remain until the next
	// sector boundary; wordCountdown until the next word is ready.
	// These are simplified, fixed-period stand-ins for the drive's
	// real rotational timing.
	sectorCountdown int
	wordCountdown   int
}

const (
	cyclesPerWord   = 34
	wordsPerSector  = 272 // 16 label words + 256 data words
	cyclesPerSector = cyclesPerWord * wordsPerSector
)

// New creates a disk controller with no drive attached; reads return
// kstatNotReady until Attach is called.
func New() *Controller {
	c := &Controller{}
	c.Reset()
	return c
}

// Reset restores the controller to its post-power-up state without
// detaching the drive.
func (c *Controller) Reset() {
	c.kstat = kstatNotReady
	c.kdata = 0
	c.kcom = 0
	c.kadr = 0
	c.cylinder, c.head, c.sector = 0, 0, 0
	c.current = Page{}
	c.wordIdx = 0
	c.active = false
	c.sectorCountdown = cyclesPerSector
	c.wordCountdown = cyclesPerWord
	if c.drive != nil {
		c.kstat &^= kstatNotReady
	}
}

// Attach mounts a drive. Detach by passing nil.
func (c *Controller) Attach(d Drive) {
	c.drive = d
	if d != nil {
		c.kstat &^= kstatNotReady
	} else {
		c.kstat |= kstatNotReady
	}
}

// ReadKStat satisfies alu.Peripherals.
func (c *Controller) ReadKStat() uint16 { return c.kstat }

// ReadKData satisfies alu.Peripherals. Reading KDATA advances the word
// pointer, matching the real controller's auto-increment on read.
func (c *Controller) ReadKData() uint16 {
	v := c.kdata
	c.advanceWord()
	return v
}

// Write satisfies the RSEL-keyed dispatch of alu.Peripherals.TaskSpecialWrite
// for disk tasks.
func (c *Controller) Write(rsel int, value uint16) {
	switch rsel & 0x3 {
	case RegKStat:
		c.kstat = value
	case RegKData:
		c.kdata = value
		if c.active && c.kcom&kcomWrite != 0 {
			c.commitWord(value)
		}
	case RegKCom:
		c.kcom = value
		if value&kcomGo != 0 {
			c.strobe()
		}
	case RegKAdr:
		c.kadr = value
		c.cylinder = int(value>>3) & 0x1FF
		c.head = int(value>>2) & 0x1
		c.sector = int(value) & 0x3
	}
}

// StartF interprets an emulator STARTF command issued by a disk task.
// Value 0 is a no-op; any other value clears a pending done/error state,
// matching the real controller's "acknowledge" convention.
func (c *Controller) StartF(value uint16) {
	if value != 0 {
		c.kstat &^= kstatDone | kstatSeekFail | kstatSeclate
	}
}

// strobe commits the latched KADR/KCOM and begins a seek/transfer.
func (c *Controller) strobe() {
	if c.drive == nil {
		c.kstat |= kstatSeekFail
		return
	}
	cyls, heads, secs := c.drive.Geometry()
	if c.cylinder >= cyls || c.head >= heads || c.sector >= secs {
		c.kstat |= kstatSeekFail
		return
	}
	if c.kcom&kcomRecal != 0 {
		c.cylinder = 0
	}
	if c.kcom&kcomXferOff != 0 {
		c.active = false
		return
	}
	if c.kcom&kcomWrite == 0 {
		p, err := c.drive.ReadPage(c.cylinder, c.head, c.sector)
		if err != nil {
			logger.Logf("disk", "read %d/%d/%d: %v", c.cylinder, c.head, c.sector, err)
			c.kstat |= kstatSeekFail
			return
		}
		c.current = p
	} else {
		c.current = Page{}
	}
	c.wordIdx = 0
	c.active = true
}

func (c *Controller) commitWord(value uint16) {
	if c.wordIdx < 16 {
		c.current.Label[c.wordIdx] = value
	} else if c.wordIdx < wordsPerSector {
		c.current.Data[c.wordIdx-16] = value
	}
	c.advanceWord()
}

func (c *Controller) advanceWord() {
	if !c.active {
		return
	}
	c.wordIdx++
	if c.wordIdx >= wordsPerSector {
		if c.kcom&kcomWrite != 0 && c.drive != nil {
			if err := c.drive.WritePage(c.cylinder, c.head, c.sector, c.current); err != nil {
				logger.Logf("disk", "write %d/%d/%d: %v", c.cylinder, c.head, c.sector, err)
				c.kstat |= kstatSeekFail
			}
		}
		c.kstat |= kstatDone
		c.active = false
	}
}

// Wake reports this cycle's edge-triggered request for the DISK_WORD and
// DISK_SECTOR tasks.
type Wake struct {
	Word, Sector bool
}

// Tick advances the controller's simplified rotational timing by one CPU
// cycle and reports any task wake edges.
func (c *Controller) Tick() Wake {
	var w Wake

	c.wordCountdown--
	if c.wordCountdown <= 0 {
		c.wordCountdown = cyclesPerWord
		if c.active {
			w.Word = true
			if c.wordIdx < 16 {
				c.kdata = c.current.Label[c.wordIdx]
			} else if c.wordIdx < wordsPerSector {
				c.kdata = c.current.Data[c.wordIdx-16]
			}
		}
	}

	c.sectorCountdown--
	if c.sectorCountdown <= 0 {
		c.sectorCountdown = cyclesPerSector
		w.Sector = true
	}

	return w
}
