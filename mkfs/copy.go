package mkfs

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// Copy [mkore.Operation] copies [Artefact] premises within the OS's filesystem
// into each of its [DirList] results. A result directory receives copies of
// premise files and of the entries of premise directories.
type Copy struct {
	MkDirMode fs.FileMode
}

var _ mkore.Operation = Copy{}

func (Copy) Describe(*mkore.Action, *mkore.Env) string { return "FS copy" }

func (cp Copy) Do(tr *mkore.Trace, a *mkore.Action, _ *mkore.Env) error {
	var prems []Artefact
	for _, pre := range a.Premises() {
		switch fsa := pre.Artefact.(type) {
		case mkore.Abstract:
			// do nothing
		case Artefact:
			prems = append(prems, fsa)
		default:
			return fmt.Errorf("FS copy: illegal premise artefact type %T", pre.Artefact)
		}
	}
	for _, res := range a.Results() {
		var err error
		switch res := res.Artefact.(type) {
		case DirList:
			err = cp.toList(tr, a.Project(), res, prems)
		case mkore.Abstract:
			// do nothing
		default:
			err = fmt.Errorf("FS copy: illegal result artefact type %T", res)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp Copy) toList(tr *mkore.Trace, prj *mkore.Project, dst DirList, srcs []Artefact) error {
	dstPath, err := prj.AbsPath(dst.Path())
	if err != nil {
		return err
	}
	if err := cp.provideDir(dstPath); err != nil {
		return err
	}
	for _, src := range srcs {
		srcPath, err := prj.AbsPath(src.Path())
		if err != nil {
			return err
		}
		if srcPath == dstPath {
			tr.Warn("FS copy: skipping `source`, it is the `target` directory",
				`source`, src.Path(),
				`target`, dst.Path(),
			)
			continue
		}
		switch src := src.(type) {
		case File:
			st, err := os.Stat(srcPath)
			if err != nil {
				return err
			}
			bnm := filepath.Base(src.Path())
			err = cp.copyFile(tr, filepath.Join(dstPath, bnm), srcPath, st)
			if err != nil {
				return err
			}
		case Directory:
			err = src.ls(srcPath, func(_ string, e fs.DirEntry) error {
				return cp.copyEntry(tr,
					filepath.Join(dstPath, e.Name()),
					filepath.Join(srcPath, e.Name()),
				)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (cp Copy) copyEntry(tr *mkore.Trace, dst, src string) error {
	sstat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sstat.IsDir() {
		return cp.copyFile(tr, dst, src, sstat)
	}
	tr.Debug("FS copy: mkdir `src` -> `dst`",
		slog.String(`src`, src),
		slog.String(`dst`, dst),
	)
	return os.MkdirAll(dst, sstat.Mode().Perm())
}

func (cp Copy) copyFile(tr *mkore.Trace, dst, src string, sstat fs.FileInfo) error {
	if src == dst {
		return nil
	}
	tr.Debug("FS copy: `src` -> `dst`",
		slog.String(`src`, src),
		slog.String(`dst`, dst),
	)
	if err := cp.provideDir(filepath.Dir(dst)); err != nil {
		return err
	}
	w, err := os.OpenFile(dst,
		os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
		sstat.Mode().Perm(),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	if _, err = io.Copy(w, r); err != nil {
		return err
	}
	return w.Close()
}

func (cp Copy) provideDir(path string) error {
	if cp.MkDirMode == 0 {
		return nil
	}
	return os.MkdirAll(path, cp.MkDirMode)
}
