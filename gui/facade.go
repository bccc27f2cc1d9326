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

// Package gui implements the minimal window-system façade the simulator
// optionally drives: an SDL2 window presenting the display controller's
// frame buffer, feeding keyboard and mouse events back into the
// simulator, and rendering an imgui debugger overlay. It is the one
// component of this repository that depends on system graphics
// libraries; the core emulator (hardware/sim) never imports this
// package.
package gui

import (
	"strconv"

	"github.com/go-gl/gl/v3.2-core/gl"
	imgui "github.com/inkyblackness/imgui-go/v4"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/petersieg/palo/debugger"
	"github.com/petersieg/palo/hardware/peripherals/display"
	"github.com/petersieg/palo/hardware/sim"
)

// KeyEvent, MouseMoveEvent and MouseButtonEvent describe keyboard and
// mouse input. PollEvents does not use them: it passes SDL events to the
// simulator's keyboard/mouse controllers directly.
type KeyEvent struct {
	Code int
	Down bool
}

type MouseMoveEvent struct{ DX, DY int }
type MouseButtonEvent struct{ Left, Middle, Right bool }

// Facade owns the SDL window, the GL context, and the imgui overlay
// state. Construct with New, call Start once, then Update once per
// frame from the host's event loop; Stop tears everything down.
type Facade struct {
	Sim *sim.Simulator
	Dbg *debugger.Engine

	window  *sdl.Window
	glCtx   sdl.GLContext
	imguiIO imgui.IO
	context *imgui.Context

	running       bool
	debugOverlay  bool
	texture       uint32
}

// New creates a façade bound to s and, optionally, a debugger engine
// whose breakpoint/task state the overlay window can display. dbg may be
// nil, disabling the overlay.
func New(s *sim.Simulator, dbg *debugger.Engine) *Facade {
	return &Facade{Sim: s, Dbg: dbg}
}

// Start opens the SDL window sized to the Alto's fixed display geometry
// and initializes the GL context and imgui backend.
func (f *Facade) Start(title string) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 2)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		display.Width, display.Height, sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN)
	if err != nil {
		return err
	}
	f.window = win

	ctx, err := win.GLCreateContext()
	if err != nil {
		return err
	}
	f.glCtx = ctx

	if err := gl.Init(); err != nil {
		return err
	}
	gl.GenTextures(1, &f.texture)

	f.context = imgui.CreateContext(nil)
	f.imguiIO = imgui.CurrentIO()

	f.running = true
	return nil
}

// Stop tears down imgui, the GL context, and the SDL window.
func (f *Facade) Stop() {
	f.running = false
	if f.context != nil {
		f.context.Destroy()
	}
	if f.glCtx != nil {
		sdl.GLDeleteContext(f.glCtx)
	}
	if f.window != nil {
		f.window.Destroy()
	}
	sdl.Quit()
}

// Running reports whether the façade is still running: it turns false
// once Stop (or a user-initiated quit event) has fired. The step loop checks this at each step boundary (spec.md
// section 5's cancellation model).
func (f *Facade) Running() bool { return f.running }

// PollEvents drains the SDL event queue, translating keyboard and mouse
// events into the simulator's peripheral controllers and watching for a
// window-close request.
func (f *Facade) PollEvents() {
	for {
		ev := sdl.PollEvent()
		if ev == nil {
			return
		}
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			f.running = false
		case *sdl.KeyboardEvent:
			f.Sim.Keyboard.SetKey(int(e.Keysym.Scancode), e.State == sdl.PRESSED)
		case *sdl.MouseMotionEvent:
			f.Sim.Mouse.Move(int(e.XRel), int(e.YRel))
		case *sdl.MouseButtonEvent:
			down := e.State == sdl.PRESSED
			f.Sim.Mouse.SetButtons(down && e.Button == sdl.BUTTON_LEFT,
				down && e.Button == sdl.BUTTON_MIDDLE,
				down && e.Button == sdl.BUTTON_RIGHT)
		}
	}
}

// ToggleDebugOverlay shows or hides the imgui breakpoint/task panel.
func (f *Facade) ToggleDebugOverlay() { f.debugOverlay = !f.debugOverlay }

// Update uploads the current frame buffer to the bound texture, draws the
// debug overlay if enabled, and swaps the window. Called once per
// rendered frame from the host loop; never from the core step loop.
func (f *Facade) Update() {
	frame := f.Sim.Display.Snapshot()
	f.uploadFrame(&frame)

	if f.debugOverlay && f.Dbg != nil {
		f.drawDebugOverlay()
	}

	f.window.GLSwap()
}

func (f *Facade) uploadFrame(frame *[display.Height][display.Width]bool) {
	pixels := make([]byte, display.Width*display.Height)
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			if frame[y][x] {
				pixels[y*display.Width+x] = 0xFF
			}
		}
	}
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(display.Width), int32(display.Height), 0,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

// drawDebugOverlay renders the current task, MPC, and breakpoint table
// through imgui, the window the debugger package never depends on
// directly (it exposes plain data; this façade does the rendering).
func (f *Facade) drawDebugOverlay() {
	imgui.NewFrame()
	imgui.Begin("palo debugger")
	imgui.Text(f.Sim.DumpRegisters())
	for _, slot := range f.Dbg.Table.List() {
		bp, _ := f.Dbg.Table.Get(slot)
		imgui.Text(breakpointLine(slot, bp))
	}
	imgui.End()
	imgui.Render()
}

func breakpointLine(slot int, bp debugger.Breakpoint) string {
	state := "disabled"
	if bp.Enable {
		state = "enabled"
	}
	return strconv.Itoa(slot) + ": " + state
}
