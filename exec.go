package spvmk

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"git.fractalqb.de/fractalqb/spvmk/mkfs"
	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// CmdOp runs an external program. It blocks until the program exits.
type CmdOp struct {
	CWD     string
	Exe     string
	Args    []string
	Desc    string
	// Echo writes the command line to the Env's Out before running.
	Echo bool
	// Each line the program writes to stderr gets this prefix.
	ErrPrefix string
}

var _ mkore.Operation = (*CmdOp)(nil)

func (op *CmdOp) CommandLine() string {
	var sb strings.Builder
	sb.WriteString(op.Exe)
	for _, arg := range op.Args {
		sb.WriteByte(' ')
		sb.WriteString(arg)
	}
	return sb.String()
}

func (op *CmdOp) Describe(*mkore.Action, *mkore.Env) string {
	if op.Desc == "" {
		return fmt.Sprintf("%s$%s%v", filepath.Base(op.Exe), op.Exe, op.Args)
	}
	return op.Desc
}

func (op *CmdOp) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	xenv, err := env.ExecEnv()
	if err != nil {
		tr.Warn(err.Error(), slog.String("action", a.String()))
	}
	cmd := exec.CommandContext(tr.Ctx(), op.Exe, op.Args...)
	cmd.Dir = op.CWD
	cmd.Env = xenv
	cmd.Stdin = env.In
	cmd.Stdout = env.Out
	if env.Err != nil && op.ErrPrefix != "" {
		pw := mkore.NewPrefixWriter(env.Err, op.ErrPrefix)
		defer pw.Close()
		cmd.Stderr = pw
	} else {
		cmd.Stderr = env.Err
	}
	if op.Echo && env.Out != nil {
		fmt.Fprintln(env.Out, op.CommandLine())
	}
	tr.Debug("exec `cmd` in `dir`",
		slog.String("cmd", cmd.String()),
		slog.String("dir", cmd.Dir),
	)
	if err = cmd.Run(); err == nil {
		return nil
	}
	tr.Debug("failed `cmd` in `dir` with `error`",
		slog.String("cmd", cmd.String()),
		slog.String("dir", cmd.Dir),
		slog.String("error", err.Error()),
	)
	return op.mapErr(tr, err)
}

func (op *CmdOp) mapErr(tr *mkore.Trace, err error) error {
	if cerr := tr.Ctx().Err(); cerr != nil {
		return fmt.Errorf("'%s': %w", op.CommandLine(), cerr)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &ToolMissingError{Tool: op.Exe, Err: err}
	}
	var xerr *exec.ExitError
	if errors.As(err, &xerr) {
		return &ExitError{Cmd: op.CommandLine(), Code: xerr.ExitCode(), Err: err}
	}
	return err
}

// ConvertCmd runs an external program that converts the single premise file
// of its action into the single result file. The program runs in the
// project directory and gets project relative paths.
type ConvertCmd struct {
	Exe string
	// Output controls how the result file is passed to the convert command.
	// ""      : The output file name is put after the input file name, i.e. as the last argument.
	// "-"<opt>: Flag to set output file name after the input, e.g. "-o".
	Output string
	Args   []string
	Echo   bool
	// ErrPrefix is passed to CmdOp.
	ErrPrefix string
}

var _ mkore.Operation = (*ConvertCmd)(nil)

func (cc *ConvertCmd) Describe(*mkore.Action, *mkore.Env) string {
	return fmt.Sprintf("%s-Convert", filepath.Base(cc.Exe))
}

func (cc *ConvertCmd) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	inFile, outFile, err := convertFiles(a)
	if err != nil {
		return fmt.Errorf("%s: %w", cc.Describe(a, env), err)
	}
	return cc.CmdOp(a.Project(), inFile, outFile).Do(tr, a, env)
}

// CmdOp returns the command that converts inFile to outFile in prj. With nil
// prj the command runs in the current working directory.
func (cc *ConvertCmd) CmdOp(prj *mkore.Project, inFile, outFile mkfs.File) *CmdOp {
	op := &CmdOp{
		Exe:  cc.Exe,
		Args: append([]string{}, cc.Args...),
		Desc: fmt.Sprintf("%s: %s -> %s",
			filepath.Base(cc.Exe),
			filepath.Base(inFile.Path()),
			filepath.Base(outFile.Path()),
		),
		Echo:      cc.Echo,
		ErrPrefix: cc.ErrPrefix,
	}
	if prj != nil {
		op.CWD = prj.Dir
	}
	op.Args = append(op.Args, inFile.Path())
	if cc.Output != "" && cc.Output[0] == '-' {
		op.Args = append(op.Args, cc.Output, outFile.Path())
	} else {
		op.Args = append(op.Args, outFile.Path())
	}
	return op
}

func convertFiles(a *mkore.Action) (in, out mkfs.File, err error) {
	if len(a.Premises()) != 1 || len(a.Results()) != 1 {
		return "", "", errors.New("requires one premise and one result file goal")
	}
	pre, res := a.Premises()[0], a.Results()[0]
	in, ok := pre.Artefact.(mkfs.File)
	if !ok {
		return "", "", fmt.Errorf("expect one premise file, have one %T", pre.Artefact)
	}
	out, ok = res.Artefact.(mkfs.File)
	if !ok {
		return "", "", fmt.Errorf("expect one result file, have one %T", res.Artefact)
	}
	return in, out, nil
}

// echo writes a command line to w, if w is not nil.
func echo(w io.Writer, args ...string) {
	if w != nil {
		fmt.Fprintln(w, strings.Join(args, " "))
	}
}
