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

// Command psim is the interactive simulator front end: loads ROM images
// and up to two disk images, attaches them to a fresh Simulator, and
// drives it headless (spec.md section 6). It does not open the SDL/imgui
// façade in package gui.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/environment"
	"github.com/petersieg/palo/hardware/rom"
	"github.com/petersieg/palo/hardware/sim"
)

func main() {
	constPath := flag.String("c", "", "constant ROM file")
	microPath := flag.String("m", "", "microcode ROM file (bank 0)")
	disk1 := flag.String("1", "", "disk 1 image")
	disk2 := flag.String("2", "", "disk 2 image (loaded, not attached - see DESIGN.md)")
	flag.Parse()

	if err := run(*constPath, *microPath, *disk1, *disk2); err != nil {
		fmt.Fprintln(os.Stderr, "psim:", err)
		os.Exit(1)
	}
}

func run(constPath, microPath, disk1, disk2 string) error {
	if constPath == "" || microPath == "" {
		return fmt.Errorf("both -c and -m are required")
	}

	env := environment.New(environment.AltoII3K, nil)
	s := sim.New(env)

	cf, err := os.Open(constPath)
	if err != nil {
		return err
	}
	constROM, err := rom.LoadConstant(cf)
	cf.Close()
	if err != nil {
		return err
	}
	s.LoadConstantROM(constROM)

	mf, err := os.Open(microPath)
	if err != nil {
		return err
	}
	microROM, err := rom.LoadMicrocode(mf)
	mf.Close()
	if err != nil {
		return err
	}
	s.LoadMicrocodeROM(0, microROM)

	if disk1 != "" {
		f, err := os.Open(disk1)
		if err != nil {
			return err
		}
		image, err := diskimage.Load(f, diskimage.Raw, diskimage.StandardGeometry)
		f.Close()
		if err != nil {
			return err
		}
		s.Disk.Attach(image)
	}

	if disk2 != "" {
		// Only one Diablo drive is wired to the running Simulator (see
		// DESIGN.md); -2 is accepted and validated but not attached.
		f, err := os.Open(disk2)
		if err != nil {
			return err
		}
		_, err = diskimage.Load(f, diskimage.Raw, diskimage.StandardGeometry)
		f.Close()
		if err != nil {
			return err
		}
	}

	s.Reset()
	return runHeadless(s)
}

// runHeadless steps the simulator until it hits a fatal CPU error, the
// only terminal condition a headless run observes.
func runHeadless(s *sim.Simulator) error {
	for {
		if err := s.Step(); err != nil {
			return err
		}
	}
}
