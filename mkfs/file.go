package mkfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

type File string

var _ Artefact = File("")

func (f File) Path() string { return string(f) }

func (f File) Name(in *mkore.Project) string {
	n, _ := in.RelPath(f.Path())
	return filepath.ToSlash(n)
}

func (f File) StateAt(in *mkore.Project) time.Time {
	st, err := Stat(f, in)
	if err != nil || st.IsDir() {
		return time.Time{}
	}
	return st.ModTime()
}

// Remove deletes f from the filesystem. A missing file is not an error.
func (f File) Remove(in *mkore.Project) error {
	p, err := in.AbsPath(f.Path())
	if err != nil {
		return err
	}
	if err = os.Remove(p); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
