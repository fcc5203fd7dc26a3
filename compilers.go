package spvmk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"

	"git.fractalqb.de/fractalqb/spvmk/mkfs"
	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// Compiler is an [mkore.Operation] that compiles the single premise file of
// its action into the single SPIR-V result file.
type Compiler interface {
	mkore.Operation
	Kind() Kind
	// Command returns the command line that compiles in to out.
	Command(in, out mkfs.File) []string
	// Target is the SPIR-V version the compiler generates.
	Target() spirv.Version
}

// Clspv compiles OpenCL C kernels with the clspv compiler.
type Clspv struct {
	Exe   string
	SPIRV spirv.Version
	CLStd string
}

var _ Compiler = Clspv{}

func (Clspv) Kind() Kind { return OpenCL }

func (c Clspv) Target() spirv.Version { return c.SPIRV }

func (c Clspv) Describe(a *mkore.Action, env *mkore.Env) string {
	return c.convert("").Describe(a, env)
}

func (c Clspv) Command(in, out mkfs.File) []string {
	return c.convert("").CmdOp(nil, in, out).argv()
}

func (c Clspv) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	return c.convert(errPrefix(a)).Do(tr, a, env)
}

func (c Clspv) convert(errPrefix string) *ConvertCmd {
	return &ConvertCmd{
		Exe:    c.Exe,
		Output: "-o",
		Args: []string{
			"-w",
			"-O0",
			"--spv-version=" + fmtVersion(c.SPIRV),
			"--cl-std=" + c.CLStd,
			"-inline-entry-points",
		},
		Echo:      true,
		ErrPrefix: errPrefix,
	}
}

// GLSLang compiles GLSL compute shaders with glslangValidator.
type GLSLang struct {
	Exe   string
	SPIRV spirv.Version
}

var _ Compiler = GLSLang{}

func (GLSLang) Kind() Kind { return GLSL }

func (c GLSLang) Target() spirv.Version { return c.SPIRV }

func (c GLSLang) Describe(a *mkore.Action, env *mkore.Env) string {
	return c.convert("").Describe(a, env)
}

func (c GLSLang) Command(in, out mkfs.File) []string {
	return c.convert("").CmdOp(nil, in, out).argv()
}

func (c GLSLang) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	return c.convert(errPrefix(a)).Do(tr, a, env)
}

func (c GLSLang) convert(errPrefix string) *ConvertCmd {
	return &ConvertCmd{
		Exe:    c.Exe,
		Output: "-o",
		Args: []string{
			"-V",
			"--target-env", "spirv" + fmtVersion(c.SPIRV),
		},
		Echo:      true,
		ErrPrefix: errPrefix,
	}
}

// Naga compiles WGSL shaders in-process.
type Naga struct {
	SPIRV    spirv.Version
	Validate bool
	Debug    bool
}

var _ Compiler = Naga{}

func (Naga) Kind() Kind { return WGSL }

func (c Naga) Target() spirv.Version { return c.SPIRV }

func (Naga) Describe(*mkore.Action, *mkore.Env) string { return "naga-Compile" }

func (Naga) Command(in, out mkfs.File) []string {
	return []string{"naga", in.Path(), "-o", out.Path()}
}

func (c Naga) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	in, out, err := convertFiles(a)
	if err != nil {
		return fmt.Errorf("naga: %w", err)
	}
	prj := a.Project()
	echo(env.Out, c.Command(in, out)...)
	inPath, err := prj.AbsPath(in.Path())
	if err != nil {
		return err
	}
	src, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	spv, err := naga.CompileWithOptions(string(src), naga.CompileOptions{
		SPIRVVersion: c.SPIRV,
		Debug:        c.Debug,
		Validate:     c.Validate,
	})
	if err != nil {
		return fmt.Errorf("naga %s: %w", in.Path(), err)
	}
	outPath, err := prj.AbsPath(out.Path())
	if err != nil {
		return err
	}
	tr.Debug("naga: write `bytes` to `file`", `bytes`, len(spv), `file`, outPath)
	return os.WriteFile(outPath, spv, 0666)
}

func (op *CmdOp) argv() []string {
	return append([]string{op.Exe}, op.Args...)
}

func errPrefix(a *mkore.Action) string {
	if in, _, err := convertFiles(a); err == nil {
		return "[" + filepath.Base(in.Path()) + "] "
	}
	return ""
}
