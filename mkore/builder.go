package mkore

import (
	"errors"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Builder reaches goals by running the actions they result from, premises
// first. A Builder must not be used concurrently.
type Builder struct {
	// Force runs every action, even if its results are up-to-date.
	Force bool

	// KeepGoing continues with the remaining goals when an action fails.
	// Actions that depend on a failed goal are skipped.
	KeepGoing bool

	trace  *Trace
	env    *Env
	prj    *Project
	bid    BuildID
	failed *bitset.BitSet
}

func NewBuilder(tr *Trace, env *Env) (*Builder, error) {
	if tr == nil {
		return nil, errors.New("no trace for new builder")
	}
	return &Builder{trace: tr, env: env}, nil
}

func (bd *Builder) Env() *Env { return bd.env }

// Goals builds the goals gs, which must all belong to the same project.
func (bd *Builder) Goals(gs ...*Goal) error {
	if len(gs) == 0 {
		return nil
	}
	prj := gs[0].Project()
	for _, g := range gs[1:] {
		if g.Project() != prj {
			return fmt.Errorf("goal %s not in project '%s'", g, prj)
		}
	}
	return bd.build(prj, func() []*Goal { return gs })
}

// Failed returns the actions that failed or were skipped in the last build.
func (bd *Builder) Failed() (as []*Action) {
	if bd.failed == nil {
		return nil
	}
	for i, ok := bd.failed.NextSet(0); ok; i, ok = bd.failed.NextSet(i + 1) {
		as = append(as, bd.prj.actions[i])
	}
	return as
}

// GoalFailed reports whether one of the actions that result in g failed or
// was skipped in the last build.
func (bd *Builder) GoalFailed(g *Goal) bool {
	if bd.failed == nil {
		return false
	}
	for _, a := range g.resultOf {
		if bd.failed.Test(a.idx) {
			return true
		}
	}
	return false
}

func (bd *Builder) build(prj *Project, goals func() []*Goal) error {
	bd.bid = prj.LockBuild()
	defer prj.Unlock()
	if bd.env == nil {
		bd.env = DefaultEnv(bd.trace)
	}
	bd.prj = prj
	bd.failed = bitset.New(uint(len(prj.actions)))

	start := time.Now()
	tr := bd.trace.push(prj)
	tr.startProject(prj, "building")
	defer func() { tr.doneProject(prj, "building", time.Since(start)) }()

	var errs []error
	for _, g := range goals() {
		if err := bd.buildGoal(tr, g); err != nil {
			if !bd.KeepGoing {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (bd *Builder) buildGoal(tr *Trace, g *Goal) error {
	if g.lastBID >= bd.bid {
		return nil
	}
	g.lastBID = bd.bid

	tr = tr.push(g)
	tr.checkGoal(g)
	if len(g.resultOf) == 0 {
		return nil
	}
	var errs []error
	for _, act := range g.resultOf {
		for _, pre := range act.premises {
			if err := bd.buildGoal(tr, pre); err != nil {
				if !bd.KeepGoing {
					return err
				}
				errs = append(errs, err)
			}
		}
	}

	var chgs []int
	if bd.Force {
		chgs = make([]int, len(g.resultOf))
		for i := range chgs {
			chgs[i] = i
		}
	} else if chgs = g.CheckPreTimes(); len(chgs) == 0 {
		tr.goalUpToDate(g)
		return errors.Join(errs...)
	}
	for _, ai := range chgs {
		act := g.resultOf[ai]
		if pre := bd.failedPremise(act); pre != nil {
			tr.skipAction(act, pre)
			bd.failed.Set(act.idx)
			continue
		}
		if err := act.Run(tr, bd.env); err != nil {
			bd.failed.Set(act.idx)
			tr.actionFailed(act, err)
			if !bd.KeepGoing {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (bd *Builder) failedPremise(a *Action) *Goal {
	for _, pre := range a.premises {
		if bd.GoalFailed(pre) {
			return pre
		}
	}
	return nil
}
