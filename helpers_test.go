package spvmk

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// spvHeader is a SPIR-V 1.0 header in printf(1) octal escapes.
const spvHeader = `\003\002\043\007\000\000\001\000` +
	`\000\000\000\000\000\000\000\000\000\000\000\000`

// fakeTool writes a shell script to dir that logs each invocation as a line
// "<name> <args>" to the file log. Unless fail is set it writes a SPIR-V
// header to the file after -o.
func fakeTool(t *testing.T, dir, name, log string, fail bool) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&sb, "echo \"%s $*\" >> '%s'\n", name, log)
	if fail {
		sb.WriteString("echo \"error: broken shader\" >&2\nexit 1\n")
	} else {
		sb.WriteString(`out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-o" ]; then out="$2"; fi
	shift
done
`)
		fmt.Fprintf(&sb, "printf '%s' > \"$out\"\n", spvHeader)
	}
	exe := filepath.Join(dir, name)
	testerr.Shall(os.WriteFile(exe, []byte(sb.String()), 0755)).BeNil(t)
	return exe
}

type testRig struct {
	dir      string
	log      string
	cfg      *Config
	out, err bytes.Buffer
}

// newRig creates a project directory with the given files in the shaders
// directory and fake compilers that succeed.
func newRig(t *testing.T, shaders ...string) *testRig {
	t.Helper()
	rig := &testRig{dir: t.TempDir()}
	tools := t.TempDir()
	rig.log = filepath.Join(tools, "calls.log")
	testerr.Shall(os.MkdirAll(filepath.Join(rig.dir, "shaders"), 0777)).BeNil(t)
	for _, sh := range shaders {
		testerr.Shall(os.WriteFile(
			filepath.Join(rig.dir, "shaders", sh),
			[]byte("// "+sh+"\n"),
			0666,
		)).BeNil(t)
	}
	rig.cfg = DefaultConfig()
	rig.cfg.OpenCL.Exe = fakeTool(t, tools, "clspv", rig.log, false)
	rig.cfg.GLSL.Exe = fakeTool(t, tools, "glslangValidator", rig.log, false)
	rig.cfg.Deploy.OS = DeployNone
	return rig
}

func (rig *testRig) failing(t *testing.T, tool string) {
	exe := fakeTool(t, filepath.Dir(rig.log), tool+"-broken", rig.log, true)
	switch tool {
	case "clspv":
		rig.cfg.OpenCL.Exe = exe
	case "glslangValidator":
		rig.cfg.GLSL.Exe = exe
	default:
		t.Fatalf("unknown tool '%s'", tool)
	}
}

func (rig *testRig) driver(t *testing.T, opts ...Option) *Driver {
	t.Helper()
	env := mkore.DefaultEnv(nil)
	env.Out, env.Err = &rig.out, &rig.err
	opts = append([]Option{
		WithDir(rig.dir),
		WithTracer(mkore.TestTracer{T: t}),
		WithEnv(env),
	}, opts...)
	return testerr.Shall1(New(*rig.cfg, opts...)).BeNil(t)
}

// calls returns the logged compiler invocations.
func (rig *testRig) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(rig.log)
	if os.IsNotExist(err) {
		return nil
	}
	testerr.Shall(err).BeNil(t)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func (rig *testRig) path(elems ...string) string {
	return filepath.Join(append([]string{rig.dir}, elems...)...)
}

func (rig *testRig) ls(t *testing.T, dir string) (names []string) {
	t.Helper()
	es := testerr.Shall1(os.ReadDir(rig.path(dir))).BeNil(t)
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}
