package spvmk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.fractalqb.de/fractalqb/sllm/v3"

	"git.fractalqb.de/fractalqb/spvmk/mkore"
)

// WriteTracer writes build events as text lines to W. Messages are sllm
// templates.
type WriteTracer struct {
	W   io.Writer
	Log mkore.TraceLog
}

var _ mkore.Tracer = (*WriteTracer)(nil)

func DefaultTracer() mkore.Tracer {
	return &WriteTracer{W: os.Stderr, Log: mkore.DefaultTraceLog}
}

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = mkore.TraceWarn
	case "info", "i":
		tr.Log = mkore.TraceWarn | mkore.TraceInfo
	case "debug", "d":
		tr.Log = mkore.TraceWarn | mkore.TraceInfo | mkore.TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

func (tr WriteTracer) Debug(t *mkore.Trace, msg string, args ...any) {
	if tr.Log&mkore.TraceDebug == 0 {
		return
	}
	tr.msg(t, "DEBUG", msg, args)
}

func (tr WriteTracer) Info(t *mkore.Trace, msg string, args ...any) {
	if tr.Log&(mkore.TraceInfo|mkore.TraceDebug) == 0 {
		return
	}
	tr.msg(t, "INFO ", msg, args)
}

func (tr WriteTracer) Warn(t *mkore.Trace, msg string, args ...any) {
	if !tr.logGoals() {
		return
	}
	tr.msg(t, "WARN ", msg, args)
}

func (tr WriteTracer) msg(t *mkore.Trace, level, msg string, args []any) {
	fmt.Fprintf(tr.W, "%d@%s\t  %s ", t.Build(), t.TopTag(), level)
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr WriteTracer) StartProject(t *mkore.Trace, p *mkore.Project, activity string) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t{ %s project '%s' in %s\n",
		t.Build(),
		t.TopTag(),
		activity,
		p,
		p.Dir,
	)
}

func (tr WriteTracer) DoneProject(t *mkore.Trace, p *mkore.Project, activity string, dt time.Duration) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t} %s project '%s' took %s\n",
		t.Build(),
		t.TopTag(),
		activity,
		p,
		dt,
	)
}

func (tr WriteTracer) logGoals() bool {
	return tr.Log&(mkore.TraceWarn|mkore.TraceInfo|mkore.TraceDebug) != 0
}

func (tr WriteTracer) logActions() bool {
	return tr.Log&(mkore.TraceInfo|mkore.TraceDebug) != 0
}

func (tr WriteTracer) CheckGoal(t *mkore.Trace, g *mkore.Goal) {
	if tr.Log&mkore.TraceDebug == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t? %s %s\n",
		t.Build(),
		t.TopTag(),
		g,
		t.Path(),
	)
}

func (tr WriteTracer) GoalUpToDate(t *mkore.Trace, g *mkore.Goal) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t. %s is up-to-date\n",
		t.Build(),
		t.TopTag(),
		g,
	)
}

func (tr WriteTracer) RunAction(t *mkore.Trace, a *mkore.Action) {
	if tr.logActions() {
		fmt.Fprintf(tr.W, "%d@%s\t  run action (%s)\n", t.Build(), t.TopTag(), a)
	}
}

func (tr WriteTracer) RunImplicitAction(t *mkore.Trace, _ *mkore.Action) {
	if tr.Log&mkore.TraceDebug != 0 {
		fmt.Fprintf(tr.W, "%d@%s\t  implicit action\n", t.Build(), t.TopTag())
	}
}

func (tr WriteTracer) ActionFailed(t *mkore.Trace, a *mkore.Action, err error) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t! (%s) failed: %s\n",
		t.Build(),
		t.TopTag(),
		a,
		err,
	)
}

func (tr WriteTracer) SkipAction(t *mkore.Trace, a *mkore.Action, failed *mkore.Goal) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t! skip (%s), premise %s failed\n",
		t.Build(),
		t.TopTag(),
		a,
		failed,
	)
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 0 {
		switch k := as[0].(type) {
		case string:
			if len(as) == 1 {
				return buf, fmt.Errorf("no value for key '%s'", n)
			}
			if k == n {
				return sllm.AppendArg(buf, as[1]), nil
			}
			as = as[2:]
		case slog.Attr:
			if k.Key == n {
				return sllm.AppendArg(buf, k.Value), nil
			}
			as = as[1:]
		default:
			return buf, fmt.Errorf("illegal key type %T", k)
		}
	}
	return buf, fmt.Errorf("no key '%s'", n)
}
