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

// Command adar is the read-mostly AltoFS archive dump tool: list,
// extract, and remove files from a disk image, or scavenge it, without
// par's full insert/copy/mkdir mutation surface (spec.md section 6).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/petersieg/palo/altofs"
	"github.com/petersieg/palo/diskimage"
	"github.com/petersieg/palo/environment"
)

func main() {
	list := flag.Bool("l", false, "list the root directory")
	dumpDir := flag.String("d", "", "dump every file in the image into dir")
	extract := flag.String("e", "", "extract one file, written to stdout")
	remove := flag.String("r", "", "remove one file and rewrite the image")
	scavenge := flag.Bool("s", false, "scavenge before any other operation")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: adar [flags] disk-image")
		os.Exit(1)
	}

	if err := run(args[0], *list, *dumpDir, *extract, *remove, *scavenge, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "adar:", err)
		os.Exit(1)
	}
}

func run(imagePath string, list bool, dumpDir, extract, remove string, scavenge, verbose bool) error {
	f, err := os.Open(imagePath)
	if err != nil {
		return err
	}
	image, err := diskimage.Load(f, diskimage.Raw, diskimage.StandardGeometry)
	f.Close()
	if err != nil {
		return err
	}

	env := environment.New(environment.AltoII3K, nil)
	fs, err := altofs.Open(env, image)
	if err != nil {
		return err
	}

	if scavenge {
		if verbose {
			fmt.Fprintln(os.Stderr, "adar: scavenging", imagePath)
		}
		if err := fs.Scavenge(); err != nil {
			return err
		}
	}

	root, err := fs.FindFile("")
	if err != nil {
		return err
	}

	entries, err := fs.ListDir(root)
	if err != nil {
		return err
	}

	if list {
		for _, e := range entries {
			if e.Type == altofs.DirEntryFile {
				fmt.Println(e.Name)
			}
		}
	}

	if dumpDir != "" {
		if err := os.MkdirAll(dumpDir, 0o755); err != nil {
			return err
		}
		for _, e := range entries {
			if e.Type != altofs.DirEntryFile {
				continue
			}
			if err := extractTo(fs, e.FileEntry, dumpDir+string(os.PathSeparator)+e.Name); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintln(os.Stderr, "adar: dumped", e.Name)
			}
		}
	}

	if extract != "" {
		fe, ok := findEntry(entries, extract)
		if !ok {
			return fmt.Errorf("file not found: %s", extract)
		}
		return fs.Extract(fe, os.Stdout)
	}

	if remove != "" {
		if err := fs.Remove(root, remove, altofs.RemoveOptions{}); err != nil {
			return err
		}
		out, err := os.Create(imagePath)
		if err != nil {
			return err
		}
		defer out.Close()
		return fs.Image().Save(out, diskimage.Raw)
	}

	return nil
}

func findEntry(entries []altofs.DirectoryEntry, name string) (altofs.FileEntry, bool) {
	for _, e := range entries {
		if e.Type == altofs.DirEntryFile && strings.EqualFold(e.Name, name) {
			return e.FileEntry, true
		}
	}
	return altofs.FileEntry{}, false
}

func extractTo(fs *altofs.FS, fe altofs.FileEntry, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return fs.Extract(fe, out)
}
