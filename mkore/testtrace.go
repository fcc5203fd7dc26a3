package mkore

import (
	"testing"
	"time"
)

// TestTracer logs all trace events to a test's log.
type TestTracer struct{ T testing.TB }

var _ Tracer = TestTracer{}

func (tr TestTracer) Debug(t *Trace, msg string, args ...any) {
	tr.T.Logf("mk-DEBUG: %s %v", msg, args)
}

func (tr TestTracer) Info(t *Trace, msg string, args ...any) {
	tr.T.Logf("mk-INFO: %s %v", msg, args)
}

func (tr TestTracer) Warn(t *Trace, msg string, args ...any) {
	tr.T.Logf("mk-WARN: %s %v", msg, args)
}

func (tr TestTracer) StartProject(t *Trace, p *Project, activity string) {
	tr.T.Logf("mk-StartProject: %s %s", p, activity)
}

func (tr TestTracer) DoneProject(t *Trace, p *Project, activity string, dt time.Duration) {
	tr.T.Logf("mk-DoneProject: %s %s %s", p, activity, dt)
}

func (tr TestTracer) CheckGoal(t *Trace, g *Goal) {
	tr.T.Logf("mk-CheckGoal: %s", g)
}

func (tr TestTracer) GoalUpToDate(t *Trace, g *Goal) {
	tr.T.Logf("mk-GoalUpToDate: %s", g)
}

func (tr TestTracer) RunAction(_ *Trace, a *Action) {
	tr.T.Logf("mk-RunAction: %s", a)
}

func (tr TestTracer) RunImplicitAction(_ *Trace, a *Action) {
	tr.T.Logf("mk-RunImplicitAction: %s", a)
}

func (tr TestTracer) ActionFailed(_ *Trace, a *Action, err error) {
	tr.T.Logf("mk-ActionFailed: %s: %s", a, err)
}

func (tr TestTracer) SkipAction(_ *Trace, a *Action, failed *Goal) {
	tr.T.Logf("mk-SkipAction: %s after %s", a, failed)
}
