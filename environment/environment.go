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

// Package environment carries the handful of cross-cutting collaborators
// that every operation in the emulator and the archiver needs: somewhere
// to send notifications, and (for the emulator) the system type that
// governs task/RAM-bank legality. A single record threaded into every
// hardware sub-system's constructor rather than held as package-level
// global state.
package environment

import "github.com/petersieg/palo/notifications"

// SystemType selects the hardware configuration being emulated, which
// changes a handful of predecode and memory-pipeline details.
type SystemType int

const (
	// AltoI is the original Alto, 1K RAM, no extended memory.
	AltoI SystemType = iota

	// AltoII1K is an Alto II with 1K of RAM microcode.
	AltoII1K

	// AltoII3K is an Alto II with 3K of RAM microcode and S-register
	// banking. This is the primary target configuration; earlier system
	// types are supported but optional.
	AltoII3K
)

// Environment is passed into every constructor across hardware/, debugger/
// and altofs/ so that notifications and system configuration are never
// reached via a package-level global.
type Environment struct {
	System SystemType

	// Notify is called for every event in the notifications.Notify set.
	// It may be nil, in which case notifications are silently dropped.
	Notify notifications.NotificationHook
}

// New creates an Environment. hook may be nil.
func New(sys SystemType, hook notifications.NotificationHook) *Environment {
	return &Environment{System: sys, Notify: hook}
}

// notify is a convenience wrapper that tolerates a nil hook.
func (e *Environment) notify(n notifications.Notify, args ...interface{}) {
	if e == nil || e.Notify == nil {
		return
	}
	e.Notify(n, args...)
}

// NotifyEvent forwards to the environment's hook, tolerating a nil Environment
// or a nil hook.
func (e *Environment) NotifyEvent(n notifications.Notify, args ...interface{}) {
	e.notify(n, args...)
}

// Is3K reports whether the environment is configured for 3K RAM microcode,
// the configuration in which F1=RAM_LOAD_SRB is meaningful.
func (e *Environment) Is3K() bool {
	return e != nil && e.System == AltoII3K
}
