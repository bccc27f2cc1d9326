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

// Command par is the AltoFS archiver CLI: mount one or two disk images
// and format, scavenge, or move files in and out of the file system they
// hold (spec.md section 6).
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
	disk1 := flag.String("1", "", "primary disk image")
	disk2 := flag.String("2", "", "secondary disk image (mounted, not yet dual-drive addressable)")
	format := flag.Bool("f", false, "format the mounted image")
	bootName := flag.String("b", "", "boot file name (recorded only; boot installation is not modeled)")
	scavenge := flag.Bool("s", false, "scavenge the mounted image")
	wipeFreePages := flag.Bool("wfp", false, "wipe free pages after mutation")
	listDir := flag.String("d", "", "list the named directory")
	extract := flag.String("e", "", "extract: -e name file")
	insert := flag.String("i", "", "insert: -i file name")
	cp := flag.String("c", "", "copy: -c src dst")
	remove := flag.String("r", "", "remove name")
	mkdir := flag.String("m", "", "create directory")
	noRemoveUnderlying := flag.Bool("nru", false, "remove: keep underlying page chain")
	noUpdateDescriptor := flag.Bool("nud", false, "remove: leave directory descriptor untouched")
	readWrite := flag.Bool("rw", false, "open the image read-write (default read-only)")
	inBFS := flag.Bool("ibfs", false, "input image is in BFS format")
	outBFS := flag.Bool("obfs", false, "write the image back in BFS format")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if err := run(runArgs{
		disk1, disk2, *format, *bootName, *scavenge, *wipeFreePages,
		*listDir, *extract, *insert, *cp, *remove, *mkdir,
		*noRemoveUnderlying, *noUpdateDescriptor, *readWrite, *inBFS, *outBFS, *verbose,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "par:", err)
		os.Exit(1)
	}
}

type runArgs struct {
	disk1, disk2                             *string
	format                                    bool
	bootName                                  string
	scavenge                                  bool
	wipeFreePages                             bool
	listDir, extract, insert, cp, remove, mkdir string
	noRemoveUnderlying, noUpdateDescriptor    bool
	readWrite, inBFS, outBFS, verbose         bool
}

func run(a runArgs) error {
	if a.disk1 == nil || *a.disk1 == "" {
		return fmt.Errorf("missing -1 disk image")
	}

	geom := diskimage.StandardGeometry
	inFormat := diskimage.Raw
	if a.inBFS {
		inFormat = diskimage.BFS
	}

	f, err := os.Open(*a.disk1)
	if err != nil {
		return err
	}
	image, err := diskimage.Load(f, inFormat, geom)
	f.Close()
	if err != nil {
		return err
	}

	if a.disk2 != nil && *a.disk2 != "" {
		if a.verbose {
			fmt.Fprintln(os.Stderr, "par: note: -2 image mounted for reference only; only one drive is wired to a running simulator")
		}
		f2, err := os.Open(*a.disk2)
		if err != nil {
			return err
		}
		if _, err := diskimage.Load(f2, inFormat, geom); err != nil {
			f2.Close()
			return err
		}
		f2.Close()
	}

	env := environment.New(environment.AltoII3K, nil)

	var fs *altofs.FS
	if a.format {
		fs, err = altofs.Format(env, geom)
	} else {
		fs, err = altofs.Open(env, image)
	}
	if err != nil {
		return err
	}

	if a.scavenge {
		if err := fs.Scavenge(); err != nil {
			return err
		}
	}

	if a.bootName != "" {
		if a.verbose {
			fmt.Fprintln(os.Stderr, "par: boot-file installation is not modeled; recorded name:", a.bootName)
		}
	}

	root, err := fs.FindFile("")
	if err != nil {
		return err
	}

	if a.listDir != "" {
		if err := doList(fs, root, a.listDir); err != nil {
			return err
		}
	}

	if a.extract != "" {
		args := flag.Args()
		if len(args) < 1 {
			return fmt.Errorf("-e requires a destination file argument")
		}
		if err := doExtract(fs, root, a.extract, args[0]); err != nil {
			return err
		}
	}

	if a.insert != "" {
		args := flag.Args()
		if len(args) < 1 {
			return fmt.Errorf("-i requires a destination name argument")
		}
		if err := doInsert(fs, root, a.insert, args[0]); err != nil {
			return err
		}
	}

	if a.cp != "" {
		args := flag.Args()
		if len(args) < 1 {
			return fmt.Errorf("-c requires a destination name argument")
		}
		if err := doCopy(fs, root, a.cp, args[0]); err != nil {
			return err
		}
	}

	if a.remove != "" {
		opts := altofs.RemoveOptions{NoRemoveUnderlying: a.noRemoveUnderlying, NoUpdateDescriptor: a.noUpdateDescriptor}
		if err := fs.Remove(root, a.remove, opts); err != nil {
			return err
		}
	}

	if a.mkdir != "" {
		if _, err := fs.MkDir(root, a.mkdir); err != nil {
			return err
		}
	}

	if a.wipeFreePages {
		if err := fs.WipeFreePages(); err != nil {
			return err
		}
	}

	if !a.readWrite {
		return nil
	}

	outFormat := diskimage.Raw
	if a.outBFS {
		outFormat = diskimage.BFS
	}
	out, err := os.Create(*a.disk1)
	if err != nil {
		return err
	}
	defer out.Close()
	return fs.Image().Save(out, outFormat)
}

func doList(fs *altofs.FS, root altofs.FileEntry, dir string) error {
	target, err := resolveDir(fs, root, dir)
	if err != nil {
		return err
	}
	entries, err := fs.ListDir(target)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type != altofs.DirEntryFile {
			continue
		}
		fmt.Println(e.Name)
	}
	return nil
}

func doExtract(fs *altofs.FS, root altofs.FileEntry, name, destPath string) error {
	fe, err := findFile(fs, root, name)
	if err != nil {
		return err
	}
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return fs.Extract(fe, out)
}

func doInsert(fs *altofs.FS, root altofs.FileEntry, srcPath, name string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = fs.Insert(root, name, in, 0)
	return err
}

func doCopy(fs *altofs.FS, root altofs.FileEntry, srcName, dstName string) error {
	src, err := findFile(fs, root, srcName)
	if err != nil {
		return err
	}
	_, err = fs.Copy(src, root, dstName, 0)
	return err
}

func findFile(fs *altofs.FS, root altofs.FileEntry, name string) (altofs.FileEntry, error) {
	entries, err := fs.ListDir(root)
	if err != nil {
		return altofs.FileEntry{}, err
	}
	for _, e := range entries {
		if e.Type == altofs.DirEntryFile && strings.EqualFold(e.Name, name) {
			return e.FileEntry, nil
		}
	}
	return altofs.FileEntry{}, fmt.Errorf("file not found: %s", name)
}

func resolveDir(fs *altofs.FS, root altofs.FileEntry, path string) (altofs.FileEntry, error) {
	if path == "" || path == "/" {
		return root, nil
	}
	return findFile(fs, root, path)
}

