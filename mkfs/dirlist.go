package mkfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// DirList is the list of directory entries in Dir that pass Filter. DirList
// does not descend into sub-directories.
type DirList struct {
	Dir    string
	Filter Filter
}

var _ Directory = DirList{}

func (d DirList) Path() string { return d.Dir }

// Entries returns the directory entries of d.
func (d DirList) Entries(in *mkore.Project) (es []fs.DirEntry, err error) {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return nil, err
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
		es = append(es, e)
		return nil
	})
	return
}

func (d DirList) Name(prj *mkore.Project) string {
	n, _ := prj.RelPath(d.Dir)
	return filepath.ToSlash(n)
}

// StateAt returns the latest modification time of the entries of d.
func (d DirList) StateAt(in *mkore.Project) (t time.Time) {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return time.Time{}
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
		if info, err := e.Info(); err != nil {
			return err
		} else if mt := info.ModTime(); mt.After(t) {
			t = mt
		}
		return nil
	})
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d DirList) ls(prjDir string, do func(p string, e fs.DirEntry) error) error {
	rdir, err := os.ReadDir(prjDir)
	if err != nil {
		return err
	}
	for _, entry := range rdir {
		if d.Filter != nil {
			if ok, err := d.Filter.Ok(entry.Name(), entry); err != nil {
				return err
			} else if !ok {
				continue
			}
		}
		if err := do(entry.Name(), entry); err != nil {
			return err
		}
	}
	return nil
}
