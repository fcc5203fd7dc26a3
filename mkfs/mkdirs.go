package mkfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// MkDirs [mkore.Operation] creates the directories of its results. For [File]
// results that is the directory containing the file.
type MkDirs struct {
	MkDirMode fs.FileMode
}

var _ mkore.Operation = MkDirs{}

func (md MkDirs) Describe(*mkore.Action, *mkore.Env) string {
	return fmt.Sprintf("MkDirs %s", md.MkDirMode)
}

func (md MkDirs) Do(tr *mkore.Trace, a *mkore.Action, _ *mkore.Env) error {
	prj := a.Project()
	for _, res := range a.Results() {
		switch res := res.Artefact.(type) {
		case mkore.Abstract:
			// ignore
		case File:
			if err := md.Ensure(tr, prj, filepath.Dir(res.Path())); err != nil {
				return err
			}
		case Directory:
			if err := md.Ensure(tr, prj, res.Path()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("illegal MkDirs result: %T", res)
		}
	}
	return nil
}

// Ensure creates the directories dirs including missing parents. Existing
// directories are left untouched.
func (md MkDirs) Ensure(tr *mkore.Trace, prj *mkore.Project, dirs ...string) error {
	if md.MkDirMode == 0 {
		tr.Info("MkDirs disabled")
		return nil
	}
	for _, dir := range dirs {
		path, err := prj.AbsPath(dir)
		if err != nil {
			return err
		}
		tr.Debug("create `directory`", `directory`, path)
		if err := os.MkdirAll(path, md.MkDirMode); err != nil {
			return err
		}
	}
	return nil
}
