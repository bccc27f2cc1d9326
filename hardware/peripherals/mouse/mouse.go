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

// Package mouse implements the Alto's quadrature mouse: two bits per axis
// that advance through a Gray-code sequence as the mouse moves, plus the
// three button states, packed into the word BS_READ_MOUSE returns.
package mouse

// Controller tracks accumulated quadrature state and button presses.
type Controller struct {
	xPhase, yPhase int

	left, middle, right bool
}

// New creates a controller at the origin with no buttons pressed.
func New() *Controller {
	return &Controller{}
}

// Reset restores the controller to its power-up state: quadrature phase
// at the origin, every button released.
func (c *Controller) Reset() {
	c.xPhase, c.yPhase = 0, 0
	c.left, c.middle, c.right = false, false, false
}

// gray is the 2-bit Gray-code sequence the real quadrature encoder
// produces as the mouse moves along either axis.
var gray = [4]uint16{0, 1, 3, 2}

// Move advances the quadrature phase by dx, dy steps (positive or
// negative); each step is one detent of mouse travel.
func (c *Controller) Move(dx, dy int) {
	c.xPhase = ((c.xPhase + dx) % 4 + 4) % 4
	c.yPhase = ((c.yPhase + dy) % 4 + 4) % 4
}

// SetButtons sets the live state of the three mouse buttons.
func (c *Controller) SetButtons(left, middle, right bool) {
	c.left, c.middle, c.right = left, middle, right
}

// Bits packs the quadrature and button state into the word layout
// BS_READ_MOUSE exposes: bits 15-12 are the two axes' Gray-code pairs,
// bits 2-0 are the button states (active low).
func (c *Controller) Bits() uint16 {
	var w uint16
	w |= gray[c.xPhase] << 14
	w |= gray[c.yPhase] << 12
	if !c.left {
		w |= 1 << 2
	}
	if !c.middle {
		w |= 1 << 1
	}
	if !c.right {
		w |= 1 << 0
	}
	return w
}
