package spvmk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full spvmk configuration. Relative paths are relative to
// the project directory.
type Config struct {
	InputDir  string       `yaml:"input_dir"`
	OutputDir string       `yaml:"output_dir"`
	OpenCL    OpenCLConfig `yaml:"opencl"`
	GLSL      GLSLConfig   `yaml:"glsl"`
	WGSL      WGSLConfig   `yaml:"wgsl"`
	Deploy    DeployConfig `yaml:"deploy"`
	// KeepGoing continues with the remaining shaders after a failed compile.
	KeepGoing bool `yaml:"keep_going"`
	// IgnoreFailures only warns about failing compilers and deploys anyway.
	IgnoreFailures bool `yaml:"ignore_failures"`
	// Incremental compiles only shaders that are newer than their output.
	Incremental bool          `yaml:"incremental"`
	Verify      bool          `yaml:"verify"`
	Timeout     time.Duration `yaml:"timeout"`
	// Journal is the path of the SQLite compile journal, empty to disable.
	Journal string `yaml:"journal"`
	// Env is the extra environment for compiler subprocesses.
	Env map[string]string `yaml:"env"`
}

type OpenCLConfig struct {
	Exe   string `yaml:"exe"`
	SPIRV string `yaml:"spirv"`
	CLStd string `yaml:"cl_std"`
}

type GLSLConfig struct {
	Exe   string `yaml:"exe"`
	SPIRV string `yaml:"spirv"`
}

type WGSLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SPIRV    string `yaml:"spirv"`
	Validate bool   `yaml:"validate"`
}

type DeployConfig struct {
	// OS selects the deployer: auto, linux, windows or none. Any other
	// value gets the no-op deployer.
	OS         string `yaml:"os"`
	LinuxDir   string `yaml:"linux_dir"`
	WindowsDir string `yaml:"windows_dir"`
	// Windows enables copying on Windows.
	Windows bool `yaml:"windows"`
}

const (
	DeployAuto = "auto"
	DeployNone = "none"
)

// DefaultConfig returns the default configuration: clspv and
// glslangValidator from PATH, shaders/ compiled into shaders/compiled_shaders/.
func DefaultConfig() *Config {
	return &Config{
		InputDir:  "shaders",
		OutputDir: "shaders/compiled_shaders",
		OpenCL: OpenCLConfig{
			Exe:   "clspv",
			SPIRV: "1.3",
			CLStd: "CL2.0",
		},
		GLSL: GLSLConfig{
			Exe:   "glslangValidator",
			SPIRV: "1.5",
		},
		WGSL: WGSLConfig{
			SPIRV:    "1.3",
			Validate: true,
		},
		Deploy: DeployConfig{
			OS:         DeployAuto,
			LinuxDir:   "build/linux/x86_64/debug",
			WindowsDir: "build/windows/x86_64/debug",
		},
		KeepGoing: true,
		Verify:    true,
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged
// with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("%w: input_dir is required", ErrConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrConfig)
	}
	if c.OpenCL.Exe == "" {
		return fmt.Errorf("%w: opencl.exe is required", ErrConfig)
	}
	if c.OpenCL.CLStd == "" {
		return fmt.Errorf("%w: opencl.cl_std is required", ErrConfig)
	}
	if c.GLSL.Exe == "" {
		return fmt.Errorf("%w: glsl.exe is required", ErrConfig)
	}
	for _, v := range []struct{ key, val string }{
		{"opencl.spirv", c.OpenCL.SPIRV},
		{"glsl.spirv", c.GLSL.SPIRV},
		{"wgsl.spirv", c.WGSL.SPIRV},
	} {
		if _, err := ParseSPIRVVersion(v.val); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfig, v.key, err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0", ErrConfig)
	}
	if c.Deploy.OS == "" {
		return fmt.Errorf("%w: deploy.os is required (use %s or %s)",
			ErrConfig,
			DeployAuto,
			DeployNone,
		)
	}
	return nil
}

// Compilers returns the compilers for the enabled shader kinds.
func (c *Config) Compilers() (map[Kind]Compiler, error) {
	clv, err := ParseSPIRVVersion(c.OpenCL.SPIRV)
	if err != nil {
		return nil, err
	}
	glv, err := ParseSPIRVVersion(c.GLSL.SPIRV)
	if err != nil {
		return nil, err
	}
	res := map[Kind]Compiler{
		OpenCL: Clspv{Exe: c.OpenCL.Exe, SPIRV: clv, CLStd: c.OpenCL.CLStd},
		GLSL:   GLSLang{Exe: c.GLSL.Exe, SPIRV: glv},
	}
	if c.WGSL.Enabled {
		wgv, err := ParseSPIRVVersion(c.WGSL.SPIRV)
		if err != nil {
			return nil, err
		}
		res[WGSL] = Naga{SPIRV: wgv, Validate: c.WGSL.Validate}
	}
	return res, nil
}
