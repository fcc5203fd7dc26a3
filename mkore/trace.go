package mkore

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Tracer receives the events of builds. Debug, Info and Warn messages use
// templates where `name` refers to the argument with the key name. Arguments
// are key/value pairs or [log/slog.Attr] values.
type Tracer interface {
	Debug(t *Trace, msg string, args ...any)
	Info(t *Trace, msg string, args ...any)
	Warn(t *Trace, msg string, args ...any)

	StartProject(t *Trace, p *Project, activity string)
	DoneProject(t *Trace, p *Project, activity string, dt time.Duration)

	CheckGoal(t *Trace, g *Goal)
	GoalUpToDate(t *Trace, g *Goal)

	RunAction(t *Trace, a *Action)
	RunImplicitAction(t *Trace, a *Action)
	ActionFailed(t *Trace, a *Action, err error)
	SkipAction(t *Trace, a *Action, failed *Goal)
}

type TraceLog int

var DefaultTraceLog TraceLog = TraceWarn

const (
	TraceWarn TraceLog = (1 << iota)
	TraceInfo
	TraceDebug
)

// Trace is the position of a build within its project and goals. It also
// carries the context of the build.
type Trace struct {
	root *traceRoot
	up   *Trace
	obj  any
	id   uint64
}

func NewTrace(ctx context.Context, t Tracer) *Trace {
	if ctx == nil {
		ctx = context.Background()
	}
	root := &traceRoot{ctx: ctx, tr: t}
	return &Trace{root: root}
}

func (t *Trace) Ctx() context.Context { return t.root.ctx }

// WithCtx returns a trace at the same position that uses ctx.
func (t *Trace) WithCtx(ctx context.Context) *Trace {
	root := &traceRoot{ctx: ctx, tr: t.root.tr, prj: t.root.prj}
	root.idSeq.Store(t.root.idSeq.Load())
	return &Trace{root: root, up: t.up, obj: t.obj, id: t.id}
}

func (t *Trace) Tracer() Tracer { return t.root.tr }

func (t *Trace) Debug(msg string, args ...any) { t.root.tr.Debug(t, msg, args...) }
func (t *Trace) Info(msg string, args ...any)  { t.root.tr.Info(t, msg, args...) }
func (t *Trace) Warn(msg string, args ...any)  { t.root.tr.Warn(t, msg, args...) }

func (t *Trace) startProject(p *Project, activity string) {
	t.root.prj = p
	t.root.tr.StartProject(t, p, activity)
}

func (t *Trace) doneProject(p *Project, activity string, dt time.Duration) {
	t.root.tr.DoneProject(t, p, activity, dt)
	t.root.prj = nil
}

func (t *Trace) checkGoal(g *Goal)    { t.root.tr.CheckGoal(t, g) }
func (t *Trace) goalUpToDate(g *Goal) { t.root.tr.GoalUpToDate(t, g) }

func (t *Trace) runAction(a *Action) {
	if a.Op == nil {
		t.root.tr.RunImplicitAction(t, a)
	} else {
		t.root.tr.RunAction(t, a)
	}
}

func (t *Trace) actionFailed(a *Action, err error) { t.root.tr.ActionFailed(t, a, err) }

func (t *Trace) skipAction(a *Action, failed *Goal) { t.root.tr.SkipAction(t, a, failed) }

func (t *Trace) Build() BuildID {
	if t.root == nil || t.root.prj == nil {
		return 0
	}
	return t.root.prj.Build()
}

func (t *Trace) TopTag() string {
	switch t.obj.(type) {
	case *Goal:
		return fmt.Sprintf("[%d]", t.id)
	case *Action:
		return fmt.Sprintf("(%d)", t.id)
	case *Project:
		return fmt.Sprintf("{%d}", t.id)
	case nil:
		return ""
	}
	return fmt.Sprintf("!%T!", t.obj)
}

func (t *Trace) Path() string {
	var sb strings.Builder
	sb.WriteByte('<')
	for ; t != nil; t = t.up {
		sb.WriteString(t.TopTag())
	}
	sb.WriteByte('>')
	return sb.String()
}

func (t *Trace) String() string {
	if t.root.prj == nil {
		return t.Path()
	}
	return fmt.Sprintf("%d@%s", t.root.prj.Build(), t.Path())
}

func (t *Trace) push(obj any) *Trace {
	return &Trace{
		root: t.root,
		up:   t,
		obj:  obj,
		id:   t.root.idSeq.Add(1),
	}
}

type traceRoot struct {
	ctx   context.Context
	tr    Tracer
	prj   *Project
	idSeq atomic.Uint64
}
