// Command spvmk compiles the compute shaders of a project to SPIR-V and
// deploys them into the project's build tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"git.fractalqb.de/fractalqb/spvmk"
	"git.fractalqb.de/fractalqb/spvmk/journal"
	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

const defaultConfig = "spvmk.yaml"

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type cli struct {
	flags *flag.FlagSet

	prjDir    string
	cfgFile   string
	history   int
	traceFlag string
	logFlag   string
	inDir     string
	outDir    string
	glslSPIRV string
	keepGoing bool
	legacy    bool
	increment bool
	wgsl      bool
	verify    bool
	deployOS  string
	timeout   time.Duration
	journalDB string
}

func newCLI(name string, errOut io.Writer) *cli {
	c := &cli{flags: flag.NewFlagSet(name, flag.ContinueOnError)}
	set := c.flags
	set.SetOutput(errOut)
	set.StringVar(&c.prjDir, "C", ".", "Project directory")
	set.StringVar(&c.cfgFile, "config", "", "Config file (default "+defaultConfig+" in project, if present)")
	set.StringVar(&c.inDir, "in", "", "Shader source directory")
	set.StringVar(&c.outDir, "out", "", "SPIR-V output directory")
	set.StringVar(&c.glslSPIRV, "glsl-spv", "", "SPIR-V version for GLSL shaders, e.g. 1.3 or 1.5")
	set.BoolVar(&c.keepGoing, "k", true, "Keep going after failed compiles")
	set.BoolVar(&c.keepGoing, "keep-going", true, "Same as -k")
	set.BoolVar(&c.legacy, "legacy", false, "Only warn about failed compiles and deploy anyway")
	set.BoolVar(&c.increment, "incremental", false, "Compile only shaders newer than their output")
	set.BoolVar(&c.wgsl, "wgsl", false, "Compile *.wgsl shaders with naga")
	set.BoolVar(&c.verify, "verify", true, "Check compiled SPIR-V headers")
	set.StringVar(&c.deployOS, "os", "", "Deploy for OS: auto, linux, windows, none")
	set.DurationVar(&c.timeout, "timeout", 0, "Timeout for each compiler run, 0 for none")
	set.StringVar(&c.journalDB, "journal", "", "SQLite journal of compile jobs")
	set.IntVar(&c.history, "history", 0, "Print the last `N` journal entries and exit")
	set.StringVar(&c.traceFlag, "trace", "", "Set trace level: off, warn, info, debug")
	set.StringVar(&c.logFlag, "log", "", "Log through qblog instead of the trace, e.g. info or debug+f")
	return c
}

// config loads the config file and applies the flags that were set.
func (c *cli) config() (*spvmk.Config, error) {
	cfg := spvmk.DefaultConfig()
	file := c.cfgFile
	if file == "" {
		file = filepath.Join(c.prjDir, defaultConfig)
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			file = ""
		}
	}
	if file != "" {
		var err error
		if cfg, err = spvmk.LoadConfig(file); err != nil {
			return nil, err
		}
	}
	c.flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.InputDir = c.inDir
		case "out":
			cfg.OutputDir = c.outDir
		case "glsl-spv":
			cfg.GLSL.SPIRV = c.glslSPIRV
		case "k", "keep-going":
			cfg.KeepGoing = c.keepGoing
		case "legacy":
			cfg.IgnoreFailures = c.legacy
		case "incremental":
			cfg.Incremental = c.increment
		case "wgsl":
			cfg.WGSL.Enabled = c.wgsl
		case "verify":
			cfg.Verify = c.verify
		case "os":
			cfg.Deploy.OS = c.deployOS
		case "timeout":
			cfg.Timeout = c.timeout
		case "journal":
			cfg.Journal = c.journalDB
		}
	})
	return cfg, cfg.Validate()
}

func (c *cli) tracer(w io.Writer) (mkore.Tracer, error) {
	if c.logFlag != "" {
		lt, err := spvmk.NewLogTracer(w, c.logFlag)
		return lt, err
	}
	wt := &spvmk.WriteTracer{W: w, Log: mkore.DefaultTraceLog}
	return wt, wt.ParseLogFlag(c.traceFlag)
}

func (c *cli) openJournal(path string) (*journal.Journal, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.prjDir, path)
	}
	return journal.Open(path)
}

func (c *cli) printHistory(ctx context.Context, w io.Writer, path string) error {
	if path == "" {
		return errors.New("no journal configured")
	}
	j, err := c.openJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()
	es, err := j.Recent(ctx, c.history)
	if err != nil {
		return err
	}
	for _, e := range es {
		fmt.Fprintf(w, "%s %-10s %-8s %-20s %8s %s\n",
			e.Started.Local().Format(time.DateTime),
			e.Status,
			e.Compiler,
			e.Shader,
			e.Duration,
			e.Error,
		)
	}
	return nil
}

// run runs spvmk with the command line arguments args and returns the exit
// code: exitFailed if compiling or deploying failed, exitUsage for bad flags
// or config.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	c := newCLI("spvmk", stderr)
	if err := c.flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	fail := func(code int, err error) int {
		fmt.Fprintln(stderr, "spvmk:", err)
		return code
	}
	tracer, err := c.tracer(stderr)
	if err != nil {
		return fail(exitUsage, err)
	}
	cfg, err := c.config()
	if err != nil {
		return fail(exitUsage, err)
	}

	if c.history > 0 {
		if err := c.printHistory(ctx, stdout, cfg.Journal); err != nil {
			return fail(exitFailed, err)
		}
		return exitOK
	}

	env := mkore.DefaultEnv(nil)
	env.Out, env.Err = stdout, stderr
	opts := []spvmk.Option{
		spvmk.WithDir(c.prjDir),
		spvmk.WithTracer(tracer),
		spvmk.WithEnv(env),
	}
	if cfg.Journal != "" {
		j, err := c.openJournal(cfg.Journal)
		if err != nil {
			return fail(exitUsage, err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				code = fail(exitFailed, fmt.Errorf("journal: %w", err))
			}
		}()
		opts = append(opts, spvmk.WithJournal(j))
	}
	drv, err := spvmk.New(*cfg, opts...)
	if err != nil {
		return fail(exitUsage, err)
	}
	report, err := drv.Run(ctx)
	if err != nil {
		if serr := report.WriteSummary(stderr); serr != nil {
			fmt.Fprintln(stderr, "spvmk: summary:", serr)
		}
		return fail(exitFailed, err)
	}
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
