package mkfs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
	"git.fractalqb.de/fractalqb/testerr"
)

func testProject(t *testing.T, files ...string) *mkore.Project {
	dir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(dir, f)
		testerr.Shall(os.MkdirAll(filepath.Dir(p), 0777)).BeNil(t)
		testerr.Shall(os.WriteFile(p, []byte(f), 0666)).BeNil(t)
	}
	return mkore.NewProject(dir)
}

func testTrace(t *testing.T) *mkore.Trace {
	return mkore.NewTrace(context.Background(), mkore.TestTracer{T: t})
}

func TestFile_Remove(t *testing.T) {
	prj := testProject(t, "out/a.spv")
	f := File("out/a.spv")
	testerr.Shall(f.Remove(prj)).BeNil(t)
	if _, err := Stat(f, prj); !os.IsNotExist(err) {
		t.Errorf("still there: %v", err)
	}
	testerr.Shall(f.Remove(prj)).BeNil(t)
	if at := f.StateAt(prj); !at.IsZero() {
		t.Errorf("state of removed file: %s", at)
	}
}

func TestDirList_Entries(t *testing.T) {
	prj := testProject(t, "ls/b.comp", "ls/a.cl", "ls/readme.txt", "ls/sub/c.comp")
	d := DirList{Dir: "ls", Filter: All{IsDir(false), Ext{".cl", ".comp"}}}
	var ls []string
	for _, e := range testerr.Shall1(d.Entries(prj)).BeNil(t) {
		ls = append(ls, e.Name())
	}
	if want := []string{"a.cl", "b.comp"}; !slices.Equal(ls, want) {
		t.Errorf("entries: %v, want %v", ls, want)
	}
}

func TestDirList_StateAt(t *testing.T) {
	prj := testProject(t, "ls/empty.txt")
	d := DirList{Dir: "ls", Filter: IsDir(false)}
	stat := testerr.Shall1(os.Stat(filepath.Join(prj.Dir, "ls/empty.txt"))).BeNil(t)
	if at := d.StateAt(prj); !at.Equal(stat.ModTime()) {
		t.Errorf("unexpected mod time %s, want %s", at, stat.ModTime())
	}
	if at := (DirList{Dir: "nope"}).StateAt(prj); !at.IsZero() {
		t.Errorf("state of missing dir: %s", at)
	}
}

func TestMkDirs_Ensure(t *testing.T) {
	prj := testProject(t, "out/keep.spv")
	md := MkDirs{MkDirMode: 0777}
	tr := testTrace(t)
	testerr.Shall(md.Ensure(tr, prj, "out", "new/sub")).BeNil(t)
	testerr.Shall(md.Ensure(tr, prj, "out", "new/sub")).BeNil(t)
	data := testerr.Shall1(os.ReadFile(filepath.Join(prj.Dir, "out/keep.spv"))).BeNil(t)
	if string(data) != "out/keep.spv" {
		t.Errorf("existing content changed: '%s'", data)
	}
	st := testerr.Shall1(os.Stat(filepath.Join(prj.Dir, "new/sub"))).BeNil(t)
	if !st.IsDir() {
		t.Error("new/sub is no directory")
	}
}

func TestMkDirs_Do(t *testing.T) {
	prj := testProject(t)
	dir := testerr.Shall1(prj.Goal(DirList{Dir: "gen/out"})).BeNil(t)
	spv := testerr.Shall1(prj.Goal(File("lib/k.spv"))).BeNil(t)
	act := testerr.Shall1(prj.NewAction(nil, []*mkore.Goal{dir, spv}, MkDirs{MkDirMode: 0777})).BeNil(t)
	testerr.Shall(act.Run(testTrace(t), &mkore.Env{})).BeNil(t)
	for _, d := range []string{"gen/out", "lib"} {
		st := testerr.Shall1(os.Stat(filepath.Join(prj.Dir, d))).BeNil(t)
		if !st.IsDir() {
			t.Errorf("%s is no directory", d)
		}
	}
	if _, err := os.Stat(filepath.Join(prj.Dir, "lib/k.spv")); !os.IsNotExist(err) {
		t.Errorf("file result created: %v", err)
	}
}

func TestCopy_toList(t *testing.T) {
	prj := testProject(t, "out/a.spv", "out/b.spv", "extra.spv")
	src := testerr.Shall1(prj.Goal(DirList{Dir: "out", Filter: IsDir(false)})).BeNil(t)
	xtr := testerr.Shall1(prj.Goal(File("extra.spv"))).BeNil(t)
	dst := testerr.Shall1(prj.Goal(DirList{Dir: "build/linux"})).BeNil(t)
	act := testerr.Shall1(dst.By(Copy{MkDirMode: 0777}, src, xtr)).BeNil(t)
	testerr.Shall(act.Run(testTrace(t), &mkore.Env{})).BeNil(t)
	for _, f := range []string{"a.spv", "b.spv", "extra.spv"} {
		data := testerr.Shall1(os.ReadFile(filepath.Join(prj.Dir, "build/linux", f))).BeNil(t)
		if len(data) == 0 {
			t.Errorf("empty copy of %s", f)
		}
	}
}

func TestCopy_fileResult(t *testing.T) {
	prj := testProject(t, "a")
	ga := testerr.Shall1(prj.Goal(File("a"))).BeNil(t)
	dst := testerr.Shall1(prj.Goal(File("b"))).BeNil(t)
	act := testerr.Shall1(dst.By(Copy{}, ga)).BeNil(t)
	if err := act.Run(testTrace(t), &mkore.Env{}); err == nil {
		t.Error("copied to file result")
	}
}
