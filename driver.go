package spvmk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.fractalqb.de/fractalqb/spvmk/journal"
	"git.fractalqb.de/fractalqb/spvmk/mkfs"
	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// Recorder receives one entry for each compile job that ran.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Driver compiles the shaders of one project. Use [New] to create a Driver.
type Driver struct {
	cfg       Config
	dir       string
	tracer    mkore.Tracer
	env       *mkore.Env
	goos      string
	deployer  Deployer
	deploySet bool
	journal   Recorder
	compilers map[Kind]Compiler
	mkdirs    mkfs.MkDirs
}

type Option func(*Driver)

// WithDir sets the project directory. Default is the current working
// directory.
func WithDir(dir string) Option { return func(d *Driver) { d.dir = dir } }

func WithTracer(t mkore.Tracer) Option { return func(d *Driver) { d.tracer = t } }

// WithEnv sets the environment for compilers. The Env's Out receives the
// command lines and the success message.
func WithEnv(env *mkore.Env) Option { return func(d *Driver) { d.env = env } }

// WithGOOS overrides the detected platform for deployer selection.
func WithGOOS(goos string) Option { return func(d *Driver) { d.goos = goos } }

// WithDeployer replaces the deployer selected from the config. A nil
// deployer disables deployment.
func WithDeployer(dpl Deployer) Option {
	return func(d *Driver) { d.deployer, d.deploySet = dpl, true }
}

func WithJournal(r Recorder) Option { return func(d *Driver) { d.journal = r } }

// New creates a driver for cfg. It returns an error if cfg is not valid.
func New(cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cs, err := cfg.Compilers()
	if err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:       cfg,
		compilers: cs,
		mkdirs:    mkfs.MkDirs{MkDirMode: 0777},
	}
	for _, o := range opts {
		o(d)
	}
	if d.tracer == nil {
		d.tracer = DefaultTracer()
	}
	if d.env == nil {
		d.env = mkore.DefaultEnv(mkore.NewTrace(context.Background(), d.tracer))
	}
	if len(cfg.Env) > 0 {
		d.env = d.env.Sub()
		d.env.SetTagsMap(cfg.Env)
	}
	if !d.deploySet {
		d.deployer = SelectDeployer(d.goos, cfg.Deploy)
	}
	return d, nil
}

func (d *Driver) Config() Config { return d.cfg }

// Deployer returns the selected deployer, nil if deployment is disabled.
func (d *Driver) Deployer() Deployer { return d.deployer }

func (d *Driver) trace(ctx context.Context) *mkore.Trace {
	return mkore.NewTrace(ctx, d.tracer)
}

// EnsureOutputDir creates the output directory including its parents. Existing
// content is left untouched.
func (d *Driver) EnsureOutputDir(ctx context.Context) error {
	r, err := d.newRun(ctx, nil)
	if err != nil {
		return err
	}
	return r.build(r.dirGoal)
}

// Jobs returns the compile jobs for the shaders in the input directory in
// the order of their names. Files with other extensions and directories are
// ignored. Without shaders Jobs returns [ErrNoShaders].
func (d *Driver) Jobs() (jobs []*CompileJob, err error) {
	var exts mkfs.Ext
	for k := range d.compilers {
		exts = append(exts, k.Ext())
	}
	ls := mkfs.DirList{
		Dir:    d.cfg.InputDir,
		Filter: mkfs.All{mkfs.IsDir(false), exts},
	}
	es, err := ls.Entries(mkore.NewProject(d.dir))
	if err != nil {
		return nil, fmt.Errorf("list shaders: %w", err)
	}
	for _, e := range es {
		shader := ShaderFile(e.Name())
		c := d.compilers[KindOf(shader.Ext(), d.cfg.WGSL.Enabled)]
		if c == nil {
			continue
		}
		jobs = append(jobs, NewJob(shader, c, d.cfg.InputDir, d.cfg.OutputDir))
	}
	if len(jobs) == 0 {
		return nil, ErrNoShaders
	}
	return jobs, nil
}

// CompileOpenCL compiles the OpenCL kernel name from the input directory
// with clspv.
func (d *Driver) CompileOpenCL(ctx context.Context, name string) error {
	return d.compile(ctx, OpenCL, name)
}

// CompileGLSL compiles the GLSL compute shader name from the input directory
// with glslangValidator.
func (d *Driver) CompileGLSL(ctx context.Context, name string) error {
	return d.compile(ctx, GLSL, name)
}

// CompileWGSL compiles the WGSL shader name from the input directory with
// naga. WGSL must be enabled in the config.
func (d *Driver) CompileWGSL(ctx context.Context, name string) error {
	return d.compile(ctx, WGSL, name)
}

func (d *Driver) compile(ctx context.Context, k Kind, name string) error {
	c := d.compilers[k]
	if c == nil {
		return fmt.Errorf("compile %s: %s shaders are not enabled", name, k)
	}
	r, err := d.newRun(ctx, []*CompileJob{
		NewJob(ShaderFile(name), c, d.cfg.InputDir, d.cfg.OutputDir),
	})
	if err != nil {
		return err
	}
	return r.build(r.dirGoal, r.compiled)
}

// Run compiles all shaders in the input directory into the output directory
// and deploys the results. The returned report is never nil.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	fail := func(err error) (*Report, error) {
		return &Report{Started: start, Err: err}, err
	}
	jobs, err := d.Jobs()
	switch {
	case errors.Is(err, ErrNoShaders):
		d.trace(ctx).Info("`warning` in `dir`", `warning`, err, `dir`, d.cfg.InputDir)
	case err != nil:
		return fail(err)
	}
	r, err := d.newRun(ctx, jobs)
	if err != nil {
		return fail(err)
	}
	r.report.Started = start
	top := r.compiled
	if r.deployGoal != nil {
		top = r.deployGoal
	}
	err = r.build(r.dirGoal, top)
	r.report.Err = err
	if err == nil && d.env.Out != nil {
		fmt.Fprintln(d.env.Out, "Shaders compiled successfully.")
	}
	return r.report, err
}

// run is the build graph of one compile run. dirGoal is the output directory,
// reached by MkDirs before anything else is built.
type run struct {
	d          *Driver
	ctx        context.Context
	prj        *mkore.Project
	bd         *mkore.Builder
	report     *Report
	jobs       map[*mkore.Goal][]*CompileJob
	dirGoal    *mkore.Goal
	compiled   *mkore.Goal
	deployGoal *mkore.Goal
}

func (d *Driver) newRun(ctx context.Context, jobs []*CompileJob) (*run, error) {
	r := &run{
		d:      d,
		ctx:    ctx,
		prj:    mkore.NewProject(d.dir),
		report: &Report{Started: time.Now()},
		jobs:   make(map[*mkore.Goal][]*CompileJob),
	}
	var (
		spvs []*mkore.Goal
		err  error
	)
	r.dirGoal, err = r.prj.Goal(mkfs.DirList{
		Dir:    d.cfg.OutputDir,
		Filter: mkfs.IsDir(false),
	})
	if err != nil {
		return nil, err
	}
	if _, err = r.dirGoal.By(d.mkdirs); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		src, err := r.prj.Goal(job.In)
		if err != nil {
			return nil, err
		}
		spv, err := r.prj.Goal(job.Out)
		if err != nil {
			return nil, err
		}
		if prev := r.jobs[spv]; len(prev) > 0 {
			d.trace(ctx).Warn("`shader` overwrites output `spv` of `other`",
				`shader`, job.Shader,
				`spv`, job.Out.Path(),
				`other`, prev[len(prev)-1].Shader,
			)
		} else {
			spvs = append(spvs, spv)
		}
		if _, err = spv.By(&jobOp{run: r, job: job}, src); err != nil {
			return nil, err
		}
		r.jobs[spv] = append(r.jobs[spv], job)
		r.report.Results = append(r.report.Results, JobResult{
			Job:    job,
			Status: StatusSkipped,
		})
	}
	if r.compiled, err = r.prj.Goal(mkore.Abstract("compile")); err != nil {
		return nil, err
	}
	if _, err = r.compiled.ImpliedBy(spvs...); err != nil {
		return nil, err
	}
	if d.deployer != nil {
		r.report.Deployer = d.deployer.Describe(nil, nil)
		var target mkore.Artefact = mkore.Abstract("deploy")
		if dir := d.deployer.Target(); dir != "" {
			target = mkfs.DirList{Dir: dir}
		}
		if r.deployGoal, err = r.prj.Goal(target); err != nil {
			return nil, err
		}
		if _, err = r.deployGoal.By(deployOp{r}, r.compiled, r.dirGoal); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *run) build(gs ...*mkore.Goal) error {
	tr := mkore.NewTrace(r.ctx, runTracer{Tracer: r.d.tracer, run: r})
	bd, err := mkore.NewBuilder(tr, r.d.env)
	if err != nil {
		return err
	}
	bd.Force = !r.d.cfg.Incremental
	bd.KeepGoing = r.d.cfg.KeepGoing || r.d.cfg.IgnoreFailures
	r.bd = bd
	return bd.Goals(gs...)
}

// failed reports whether a compile job of the current build failed. Ignored
// failures do not count.
func (r *run) failed() bool {
	if r.bd == nil {
		return false
	}
	for _, a := range r.bd.Failed() {
		if _, ok := a.Op.(*jobOp); ok {
			return true
		}
	}
	return false
}

func (r *run) record(res *JobResult) {
	if r.d.journal == nil {
		return
	}
	e := journal.Entry{
		Run:      r.report.Started.UnixMilli(),
		Shader:   string(res.Job.Shader),
		Compiler: res.Job.Kind.String(),
		Command:  res.Job.CommandLine(),
		Status:   res.Status.String(),
		Started:  res.Start,
		Duration: res.Duration,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	if err := r.d.journal.Record(context.WithoutCancel(r.ctx), e); err != nil {
		r.d.trace(r.ctx).Warn("journal: `error`", `error`, err)
	}
}

// jobOp runs the compiler of a job and checks its output.
type jobOp struct {
	run *run
	job *CompileJob
}

func (op *jobOp) Describe(a *mkore.Action, env *mkore.Env) string {
	return op.job.Compiler.Describe(a, env)
}

func (op *jobOp) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	cfg := &op.run.d.cfg
	res := op.run.report.result(op.job)
	res.Start = time.Now()
	if cfg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(tr.Ctx(), cfg.Timeout)
		defer cancel()
		tr = tr.WithCtx(ctx)
	}
	outPath, err := a.Project().AbsPath(op.job.Out.Path())
	if err != nil {
		return err
	}
	if cfg.Verify {
		// the checked output must come from this compile
		err = op.job.Out.Remove(a.Project())
	}
	if err == nil {
		err = op.job.Compiler.Do(tr, a, env)
	}
	if err == nil && cfg.Verify {
		err = CheckArtifact(outPath, op.job.Compiler.Target())
	}
	res.Duration = time.Since(res.Start)

	var missing *ToolMissingError
	switch {
	case err == nil:
		res.Status = StatusOK
	case cfg.IgnoreFailures && !errors.As(err, &missing) && tr.Ctx().Err() == nil:
		res.Status, res.Err = StatusIgnored, err
		tr.Warn("ignoring failed `shader`: `error`", `shader`, op.job.Shader, `error`, err)
		err = nil
	default:
		res.Status, res.Err = StatusFailed, err
		err = fmt.Errorf("compile %s: %w", op.job.Shader, err)
	}
	op.run.record(res)
	return err
}

type deployOp struct{ run *run }

func (op deployOp) Describe(a *mkore.Action, env *mkore.Env) string {
	return op.run.d.deployer.Describe(a, env)
}

func (op deployOp) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	if op.run.failed() {
		tr.Warn("skip deployment after failed compile jobs")
		return nil
	}
	dpl := op.run.d.deployer
	if err := dpl.Do(tr, a, env); err != nil {
		return err
	}
	op.run.report.Deployed = dpl.Target() != ""
	return nil
}

// runTracer marks the jobs of up-to-date goals in the run's report.
type runTracer struct {
	mkore.Tracer
	run *run
}

func (rt runTracer) GoalUpToDate(t *mkore.Trace, g *mkore.Goal) {
	for _, job := range rt.run.jobs[g] {
		if res := rt.run.report.result(job); res != nil {
			res.Status = StatusUpToDate
		}
	}
	rt.Tracer.GoalUpToDate(t, g)
}
