package spvmk

import (
	"fmt"
	"io/fs"
	"runtime"

	"git.fractalqb.de/fractalqb/spvmk/mkfs"
	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// Deployer is the [mkore.Operation] that copies the compiled shaders from the
// directories given as premises of its action into a build tree. The result of
// the action is the [mkfs.DirList] of Target.
type Deployer interface {
	mkore.Operation
	// Target returns the destination directory, empty if the deployer
	// copies nothing.
	Target() string
}

// SelectDeployer returns the deployer for platform goos. The configured OS
// overrides goos unless it is [DeployAuto]. With [DeployNone] SelectDeployer
// returns nil.
func SelectDeployer(goos string, cfg DeployConfig) Deployer {
	if goos == "" {
		goos = runtime.GOOS
	}
	if cfg.OS != "" && cfg.OS != DeployAuto {
		goos = cfg.OS
	}
	switch goos {
	case DeployNone:
		return nil
	case "linux":
		return LinuxDeployer{Dir: cfg.LinuxDir, MkDirMode: 0777}
	case "windows":
		return WindowsDeployer{
			Dir:       cfg.WindowsDir,
			Enabled:   cfg.Windows,
			MkDirMode: 0777,
		}
	}
	return NoOpDeployer{GOOS: goos}
}

// LinuxDeployer copies the compiled shaders into Dir, which is created if
// missing.
type LinuxDeployer struct {
	Dir       string
	MkDirMode fs.FileMode
}

var _ Deployer = LinuxDeployer{}

func (d LinuxDeployer) Target() string { return d.Dir }

func (d LinuxDeployer) Describe(*mkore.Action, *mkore.Env) string {
	return "deploy to " + d.Dir
}

func (d LinuxDeployer) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	return deployCopy(tr, a, env, d.Dir, d.MkDirMode)
}

// WindowsDeployer copies the compiled shaders into Dir if it is Enabled.
type WindowsDeployer struct {
	Dir       string
	Enabled   bool
	MkDirMode fs.FileMode
}

var _ Deployer = WindowsDeployer{}

func (d WindowsDeployer) Target() string {
	if !d.Enabled {
		return ""
	}
	return d.Dir
}

func (d WindowsDeployer) Describe(*mkore.Action, *mkore.Env) string {
	if !d.Enabled {
		return "deploy to " + d.Dir + " (disabled)"
	}
	return "deploy to " + d.Dir
}

func (d WindowsDeployer) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	if !d.Enabled {
		tr.Info("deployment to `dir` is disabled", `dir`, d.Dir)
		return nil
	}
	return deployCopy(tr, a, env, d.Dir, d.MkDirMode)
}

// NoOpDeployer is used on platforms without a build tree. It only tells that
// the platform is not supported.
type NoOpDeployer struct{ GOOS string }

var _ Deployer = NoOpDeployer{}

func (NoOpDeployer) Target() string { return "" }

func (d NoOpDeployer) Describe(*mkore.Action, *mkore.Env) string {
	return "no deployment on " + d.GOOS
}

func (d NoOpDeployer) Do(_ *mkore.Trace, _ *mkore.Action, env *mkore.Env) error {
	if env.Out != nil {
		fmt.Fprintf(env.Out, "OS not supported: %s\n", d.GOOS)
	}
	return nil
}

func deployCopy(tr *mkore.Trace, a *mkore.Action, env *mkore.Env, dir string, mode fs.FileMode) error {
	if mode == 0 {
		mode = 0777
	}
	if err := (mkfs.Copy{MkDirMode: mode}).Do(tr, a, env); err != nil {
		return fmt.Errorf("deploy to %s: %w", dir, err)
	}
	return nil
}
