package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/testerr"
	_ "modernc.org/sqlite"
)

func memJournal(t *testing.T) *Journal {
	t.Helper()
	db := testerr.Shall1(sql.Open("sqlite", ":memory:")).BeNil(t)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return testerr.Shall1(New(db)).BeNil(t)
}

func TestJournal_Recent(t *testing.T) {
	j := memJournal(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, sh := range []string{"a.comp", "b.cl", "c.comp"} {
		testerr.Shall(j.Record(ctx, Entry{
			Run:      1,
			Shader:   sh,
			Compiler: "glsl",
			Command:  "glslangValidator " + sh,
			Status:   "ok",
			Started:  t0.Add(time.Duration(i) * 100 * time.Millisecond),
			Duration: 1500 * time.Millisecond,
		})).BeNil(t)
	}
	es := testerr.Shall1(j.Recent(ctx, 2)).BeNil(t)
	if l := len(es); l != 2 {
		t.Fatalf("got %d entries", l)
	}
	if es[0].Shader != "c.comp" || es[1].Shader != "b.cl" {
		t.Errorf("unexpected order: %s, %s", es[0].Shader, es[1].Shader)
	}
	if d := es[0].Duration; d != 1500*time.Millisecond {
		t.Errorf("duration %s", d)
	}
	if !es[0].Started.Equal(t0.Add(200 * time.Millisecond)) {
		t.Errorf("started %s", es[0].Started)
	}
}

func TestJournal_error(t *testing.T) {
	j := memJournal(t)
	ctx := context.Background()
	testerr.Shall(j.Record(ctx, Entry{
		Run:     7,
		Shader:  "bad.cl",
		Status:  "failed",
		Error:   "exit status 1",
		Started: time.Now(),
	})).BeNil(t)
	es := testerr.Shall1(j.Recent(ctx, 10)).BeNil(t)
	if len(es) != 1 || es[0].Error != "exit status 1" || es[0].Run != 7 {
		t.Errorf("unexpected entries %+v", es)
	}
}

func TestOpen_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j := testerr.Shall1(Open(path)).BeNil(t)
	testerr.Shall(j.Record(context.Background(), Entry{
		Run: 1, Shader: "x.comp", Started: time.Now(),
	})).BeNil(t)
	testerr.Shall(j.Close()).BeNil(t)

	j = testerr.Shall1(Open(path)).BeNil(t)
	defer j.Close()
	es := testerr.Shall1(j.Recent(context.Background(), 5)).BeNil(t)
	if len(es) != 1 {
		t.Errorf("reopened journal has %d entries", len(es))
	}
}
