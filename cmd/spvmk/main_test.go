package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/testerr"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	testerr.Shall(os.MkdirAll(filepath.Dir(path), 0777)).BeNil(t)
	testerr.Shall(os.WriteFile(path, []byte(content), mode)).BeNil(t)
}

func TestCLI_config(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, defaultConfig), `
input_dir: src
keep_going: false
timeout: 5s
glsl:
  spirv: "1.3"
`, 0666)

	c := newCLI("spvmk", io.Discard)
	testerr.Shall(c.flags.Parse([]string{"-C", dir, "-in", "kernels", "-legacy"})).BeNil(t)
	cfg := testerr.Shall1(c.config()).BeNil(t)
	if cfg.InputDir != "kernels" || !cfg.IgnoreFailures {
		t.Errorf("flags not applied: in=%s legacy=%t", cfg.InputDir, cfg.IgnoreFailures)
	}
	if cfg.KeepGoing || cfg.Timeout != 5*time.Second || cfg.GLSL.SPIRV != "1.3" {
		t.Errorf("config file overridden by unset flags: %+v", cfg)
	}
	if cfg.OutputDir != "shaders/compiled_shaders" {
		t.Errorf("default output dir: %s", cfg.OutputDir)
	}

	c = newCLI("spvmk", io.Discard)
	testerr.Shall(c.flags.Parse([]string{"-C", dir, "-k", "-glsl-spv", "1.5"})).BeNil(t)
	cfg = testerr.Shall1(c.config()).BeNil(t)
	if !cfg.KeepGoing || cfg.GLSL.SPIRV != "1.5" || cfg.InputDir != "src" {
		t.Errorf("explicit flags: %+v", cfg)
	}

	c = newCLI("spvmk", io.Discard)
	testerr.Shall(c.flags.Parse([]string{"-C", t.TempDir()})).BeNil(t)
	cfg = testerr.Shall1(c.config()).BeNil(t)
	if cfg.InputDir != "shaders" || !cfg.KeepGoing {
		t.Errorf("defaults without config file: %+v", cfg)
	}

	c = newCLI("spvmk", io.Discard)
	testerr.Shall(c.flags.Parse([]string{"-config", filepath.Join(dir, "missing.yaml")})).BeNil(t)
	if _, err := c.config(); err == nil {
		t.Error("missing explicit config file accepted")
	}
}

// failingProject creates a project with one GLSL shader and a config that
// compiles it with a tool that always fails.
func failingProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}
	dir := t.TempDir()
	tool := filepath.Join(t.TempDir(), "glslangValidator")
	writeFile(t, tool, "#!/bin/sh\necho \"error: broken shader\" >&2\nexit 1\n", 0755)
	writeFile(t, filepath.Join(dir, "shaders", "bad.comp"), "void main() {\n", 0666)
	writeFile(t, filepath.Join(dir, defaultConfig),
		"glsl:\n  exe: "+tool+"\ndeploy:\n  os: none\n",
		0666,
	)
	return dir
}

func TestRun_exitCodes(t *testing.T) {
	dir := failingProject(t)
	ctx := context.Background()

	var out, errs bytes.Buffer
	if code := run(ctx, []string{"-C", dir}, &out, &errs); code != exitFailed {
		t.Errorf("failed compile: exit %d", code)
	}
	if e := errs.String(); !strings.Contains(e, "failed     bad.comp") {
		t.Errorf("no summary:\n%s", e)
	}

	out.Reset()
	errs.Reset()
	if code := run(ctx, []string{"-C", dir, "-legacy"}, &out, &errs); code != exitOK {
		t.Errorf("legacy: exit %d\n%s", code, errs.String())
	}
	if !strings.Contains(out.String(), "Shaders compiled successfully.") {
		t.Errorf("legacy output:\n%s", out.String())
	}

	for _, args := range [][]string{
		{"-C", dir, "-no-such-flag"},
		{"-C", dir, "-trace", "loud"},
		{"-C", dir, "-log", "loud"},
		{"-C", dir, "-glsl-spv", "2.1"},
		{"-C", dir, "-os", ""},
	} {
		if code := run(ctx, args, io.Discard, io.Discard); code != exitUsage {
			t.Errorf("%v: exit %d", args, code)
		}
	}

	writeFile(t, filepath.Join(dir, defaultConfig), "opencl: {spirv: \"1.9\"}\n", 0666)
	if code := run(ctx, []string{"-C", dir}, io.Discard, io.Discard); code != exitUsage {
		t.Errorf("config error: exit %d", code)
	}
}

func TestRun_journal(t *testing.T) {
	dir := failingProject(t)
	ctx := context.Background()
	if code := run(ctx, []string{"-C", dir, "-journal", "spvmk.db"}, io.Discard, io.Discard); code != exitFailed {
		t.Fatalf("exit %d", code)
	}
	var out bytes.Buffer
	code := run(ctx, []string{"-C", dir, "-journal", "spvmk.db", "-history", "5"}, &out, io.Discard)
	if code != exitOK {
		t.Fatalf("history: exit %d", code)
	}
	if h := out.String(); !strings.Contains(h, "failed") || !strings.Contains(h, "bad.comp") {
		t.Errorf("history:\n%s", h)
	}
	if code := run(ctx, []string{"-C", dir, "-history", "5"}, io.Discard, io.Discard); code != exitFailed {
		t.Errorf("history without journal: exit %d", code)
	}
}
