package spvmk

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

func TestLogTracer_levels(t *testing.T) {
	var buf bytes.Buffer
	lt := testerr.Shall1(NewLogTracer(&buf, "info")).BeNil(t)
	tr := mkore.NewTrace(context.Background(), lt)
	tr.Debug("debug `n`", `n`, 1)
	tr.Info("compiling `shader`", `shader`, "a.cl")
	tr.Warn("failed `shader`: `error`", `shader`, "b.comp", `error`, errors.New("boom"))
	out := buf.String()
	if strings.Contains(out, "debug") {
		t.Errorf("debug written:\n%s", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "a.cl") {
		t.Errorf("info missing:\n%s", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "b.comp") || !strings.Contains(out, "boom") {
		t.Errorf("warning missing:\n%s", out)
	}
	if _, err := NewLogTracer(&buf, "loud"); err == nil {
		t.Error("accepted illegal flag")
	}
}

func TestLogTracer_Run(t *testing.T) {
	rig := newRig(t, "a.comp", "bad.cl")
	rig.failing(t, "clspv")
	var buf bytes.Buffer
	lt := testerr.Shall1(NewLogTracer(&buf, "warn")).BeNil(t)
	if _, err := rig.driver(t, WithTracer(lt)).Run(context.Background()); err == nil {
		t.Fatal("broken shader compiled")
	}
	out := buf.String()
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "bad.cl") {
		t.Errorf("no failed action:\n%s", out)
	}
	if strings.Contains(out, "INFO") {
		t.Errorf("info written at warn level:\n%s", out)
	}
}
