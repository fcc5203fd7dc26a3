// Package mkfs provides filesystem artefacts and operations for mkore
// projects.
package mkfs

import (
	"io/fs"
	"os"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

type Artefact interface {
	mkore.Artefact
	Path() string
}

type Directory interface {
	Artefact
	ls(string, func(string, fs.DirEntry) error) error
}

func Stat(a Artefact, in *mkore.Project) (fs.FileInfo, error) {
	p, err := in.AbsPath(a.Path())
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}
