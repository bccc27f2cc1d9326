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

// Package notifications defines the events the core emulator and archiver
// raise for an attached GUI or debugger to react to without polling: a
// Notify string enum plus a NotificationHook callback type.
package notifications

// Notify identifies an event raised by the emulator or the filesystem
// layer.
type Notify string

const (
	// NotifyReset is raised when the simulator completes a reset.
	NotifyReset Notify = "NotifyReset"

	// NotifyHalt is raised when the CPU enters its sticky error state.
	NotifyHalt Notify = "NotifyHalt"

	// NotifyBreakpoint is raised when the debugger halts execution on a
	// matching breakpoint.
	NotifyBreakpoint Notify = "NotifyBreakpoint"

	// NotifyTaskSwitch is raised whenever ctask changes at the end of a
	// cycle.
	NotifyTaskSwitch Notify = "NotifyTaskSwitch"

	// NotifyScavengeStart/End bracket an AltoFS scavenge pass.
	NotifyScavengeStart Notify = "NotifyScavengeStart"
	NotifyScavengeEnd   Notify = "NotifyScavengeEnd"

	// NotifyIntegrityFault is raised once per failing check during
	// CheckIntegrity, carrying the offending VDA as the first arg.
	NotifyIntegrityFault Notify = "NotifyIntegrityFault"

	// NotifyPacketDropped is raised when the UDP transport drops a frame
	// because of a size mismatch, and on each 1ms wait while a full ring
	// holds back a received frame.
	NotifyPacketDropped Notify = "NotifyPacketDropped"
)

// NotificationHook receives an event tag plus event-specific arguments. It
// is the only channel through which the core packages talk to an attached
// GUI; the GUI facade is the expected subscriber, but tests commonly
// subscribe too.
type NotificationHook func(n Notify, args ...interface{}) error
