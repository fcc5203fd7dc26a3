package spvmk

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga/spirv"
)

var (
	// ErrNoShaders is returned by [Driver.Jobs] for an input directory without
	// shaders. Run treats it as success.
	ErrNoShaders     = errors.New("no shaders found")
	ErrNotSPIRV      = errors.New("not a SPIR-V module")
	ErrStaleArtifact = errors.New("artifact not written by compiler")
	ErrConfig        = errors.New("config")
)

// ToolMissingError is returned when an external compiler cannot be found.
type ToolMissingError struct {
	Tool string
	Err  error
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("shader compiler '%s' not found, install it or set its path in the config: %s",
		e.Tool,
		e.Err,
	)
}

func (e *ToolMissingError) Unwrap() error { return e.Err }

// ExitError is returned when an external compiler terminates with a nonzero
// exit status.
type ExitError struct {
	Cmd  string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("'%s' failed with exit status %d", e.Cmd, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// SPIRVVersionError is returned when a compiled module declares a newer SPIR-V
// version than the compile job targets.
type SPIRVVersionError struct {
	Path      string
	Have, Max spirv.Version
}

func (e *SPIRVVersionError) Error() string {
	return fmt.Sprintf("%s: SPIR-V version %s exceeds target %s",
		e.Path,
		fmtVersion(e.Have),
		fmtVersion(e.Max),
	)
}
