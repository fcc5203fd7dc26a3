package spvmk

import (
	"path/filepath"
	"strings"

	"git.fractalqb.de/fractalqb/spvmk/mkfs"
)

// Kind is the shader language of a source file. It determines the compiler
// that is run for the file.
type Kind int

const (
	NoShader Kind = iota
	OpenCL
	GLSL
	WGSL
)

func (k Kind) String() string {
	switch k {
	case OpenCL:
		return "opencl"
	case GLSL:
		return "glsl"
	case WGSL:
		return "wgsl"
	}
	return "none"
}

// Ext returns the file extension of shaders of kind k.
func (k Kind) Ext() string {
	switch k {
	case OpenCL:
		return ".cl"
	case GLSL:
		return ".comp"
	case WGSL:
		return ".wgsl"
	}
	return ""
}

// KindOf returns the kind of shader for a file with extension ext. WGSL
// shaders are only recognized if wgsl is set.
func KindOf(ext string, wgsl bool) Kind {
	switch ext {
	case ".cl":
		return OpenCL
	case ".comp":
		return GLSL
	case ".wgsl":
		if wgsl {
			return WGSL
		}
	}
	return NoShader
}

// ShaderFile is the name of a file in the input directory.
type ShaderFile string

func (s ShaderFile) Ext() string { return filepath.Ext(string(s)) }

// Base returns the file name without extension. Leading dots do not start an
// extension, so the base of ".comp" is ".comp".
func (s ShaderFile) Base() string {
	name := string(s)
	if !strings.Contains(strings.TrimLeft(name, "."), ".") {
		return name
	}
	return strings.TrimSuffix(name, s.Ext())
}

// SPV returns the name of the compiled SPIR-V module for s.
func (s ShaderFile) SPV() string { return s.Base() + ".spv" }

// CompileJob compiles one shader file into the output directory.
type CompileJob struct {
	Shader   ShaderFile
	Kind     Kind
	In, Out  mkfs.File
	Compiler Compiler
}

// NewJob creates the compile job for shader with compiler c. Paths are
// relative to the project directory.
func NewJob(shader ShaderFile, c Compiler, inDir, outDir string) *CompileJob {
	return &CompileJob{
		Shader:   shader,
		Kind:     c.Kind(),
		In:       mkfs.File(filepath.Join(inDir, string(shader))),
		Out:      mkfs.File(filepath.Join(outDir, shader.SPV())),
		Compiler: c,
	}
}

// Command returns the command line that compiles the job's shader.
func (j *CompileJob) Command() []string {
	return j.Compiler.Command(j.In, j.Out)
}

func (j *CompileJob) CommandLine() string {
	return strings.Join(j.Command(), " ")
}
