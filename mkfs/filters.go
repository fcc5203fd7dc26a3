package mkfs

import (
	"io/fs"
	"path/filepath"
	"slices"
)

type Filter interface {
	Ok(path string, entry fs.DirEntry) (bool, error)
}

type IsDir bool

func (d IsDir) Ok(_ string, e fs.DirEntry) (bool, error) {
	return e.IsDir() == bool(d), nil
}

// Ext accepts entries whose name has one of the listed extensions, each
// including the leading dot.
type Ext []string

func (x Ext) Ok(_ string, e fs.DirEntry) (bool, error) {
	return slices.Contains(x, filepath.Ext(e.Name())), nil
}

type All []Filter

func (fs All) Ok(p string, e fs.DirEntry) (bool, error) {
	for _, f := range fs {
		if ok, err := f.Ok(p, e); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}
