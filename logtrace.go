package spvmk

import (
	"io"
	"log/slog"
	"time"

	"git.fractalqb.de/fractalqb/qblog"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// LogTracer logs build events through a [qblog.Logger]. Its sllm handler
// renders the message templates of the trace.
type LogTracer struct {
	Log *qblog.Logger
}

var _ mkore.Tracer = LogTracer{}

// NewLogTracer returns a LogTracer that writes to w. The level is set from a
// qblog flag like "info", "debug" or "debug+f".
func NewLogTracer(w io.Writer, flag string) (LogTracer, error) {
	cfg := qblog.DefaultConfig.Clone().SetWriter(w)
	if err := cfg.ParseFlag(flag); err != nil {
		return LogTracer{}, err
	}
	return LogTracer{Log: qblog.New(cfg)}, nil
}

func (lt LogTracer) log(t *mkore.Trace, l qblog.Level, msg string, args ...any) {
	if !lt.Log.Enabled(t.Ctx(), l) {
		return
	}
	args = append(args,
		slog.Uint64(`build`, t.Build()),
		slog.String(`at`, t.TopTag()),
	)
	lt.Log.Log(t.Ctx(), l, msg, args...)
}

func (lt LogTracer) Debug(t *mkore.Trace, msg string, args ...any) {
	lt.log(t, qblog.LevelDebug, msg, args...)
}

func (lt LogTracer) Info(t *mkore.Trace, msg string, args ...any) {
	lt.log(t, qblog.LevelInfo, msg, args...)
}

func (lt LogTracer) Warn(t *mkore.Trace, msg string, args ...any) {
	lt.log(t, qblog.LevelWarn, msg, args...)
}

func (lt LogTracer) StartProject(t *mkore.Trace, p *mkore.Project, activity string) {
	lt.log(t, qblog.LevelInfo, "start `activity` project `project` in `dir`",
		`activity`, activity,
		`project`, p.String(),
		`dir`, p.Dir,
	)
}

func (lt LogTracer) DoneProject(t *mkore.Trace, p *mkore.Project, activity string, dt time.Duration) {
	lt.log(t, qblog.LevelInfo, "done `activity` project `project` after `took`",
		`activity`, activity,
		`project`, p.String(),
		`took`, dt,
	)
}

func (lt LogTracer) CheckGoal(t *mkore.Trace, g *mkore.Goal) {
	lt.log(t, qblog.LevelTrace, "check `goal` `path`", `goal`, g.String(), `path`, t.Path())
}

func (lt LogTracer) GoalUpToDate(t *mkore.Trace, g *mkore.Goal) {
	lt.log(t, qblog.LevelInfo, "`goal` is up-to-date", `goal`, g.String())
}

func (lt LogTracer) RunAction(t *mkore.Trace, a *mkore.Action) {
	lt.log(t, qblog.LevelInfo, "run `action`", `action`, a.String())
}

func (lt LogTracer) RunImplicitAction(t *mkore.Trace, a *mkore.Action) {
	lt.log(t, qblog.LevelTrace, "implicit `action`", `action`, a.String())
}

func (lt LogTracer) ActionFailed(t *mkore.Trace, a *mkore.Action, err error) {
	lt.log(t, qblog.LevelError, "`action` failed: `error`", `action`, a.String(), `error`, err)
}

func (lt LogTracer) SkipAction(t *mkore.Trace, a *mkore.Action, failed *mkore.Goal) {
	lt.log(t, qblog.LevelWarn, "skip `action`, premise `goal` failed",
		`action`, a.String(),
		`goal`, failed.String(),
	)
}
