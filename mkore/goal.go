package mkore

import (
	"fmt"
	"reflect"
	"time"
)

// Artefact represents the tangible outcome of a [Goal] being reached. A special
// case is the [Abstract] artefact.
type Artefact interface {
	// Name returns the name of the artefact that must be unique in the Project.
	Name(in *Project) string

	// StateAt returns the time at which the artefact reached its current state.
	// If this cannot be provided, the zero Time is returned.
	StateAt(in *Project) time.Time
}

type Abstract string

var _ Artefact = Abstract("")

func (a Abstract) Name(*Project) string { return string(a) }

func (a Abstract) StateAt(*Project) time.Time { return time.Time{} }

// A Goal is something you want to achieve in your [Project]. Each goal is
// associated with an [Artefact] – generally something tangible that is
// considered available and up-to-date when the goal is achieved.
//
// Goals are reached through actions ([Action]). All actions that result in a
// goal are run in the order they were added. A goal can also be the premise
// for actions. Such dependent actions are not run before the goal is reached.
type Goal struct {
	Artefact Artefact

	prj       *Project
	resultOf  []*Action
	premiseOf []*Action
	lastBID   BuildID
}

func (g *Goal) Project() *Project { return g.prj }

func (g *Goal) Name() string { return g.Artefact.Name(g.Project()) }

// ResultOf returns the actions that result in this goal.
func (g *Goal) ResultOf() []*Action { return g.resultOf }

// PremiseOf returns the actions that depend on g.
func (g *Goal) PremiseOf() []*Action { return g.premiseOf }

// By adds an action with operation op that reaches g from premises.
func (g *Goal) By(op Operation, premises ...*Goal) (*Action, error) {
	return g.prj.NewAction(premises, []*Goal{g}, op)
}

// ImpliedBy adds an implicit action, i.e. g is reached when all premises are.
func (g *Goal) ImpliedBy(premises ...*Goal) (*Action, error) {
	return g.prj.NewAction(premises, []*Goal{g}, nil)
}

func (g *Goal) String() string {
	tn := reflect.Indirect(reflect.ValueOf(g.Artefact)).Type().Name()
	return fmt.Sprintf("[%s]%s", g.Name(), tn)
}

// CheckPreTimes returns the indices of the actions in [Goal.ResultOf] that
// must run because g's artefact is missing or older than one of the action's
// premises.
func (g *Goal) CheckPreTimes() (chgs []int) {
	gaTS := g.Artefact.StateAt(g.Project())
	for actIdx, act := range g.ResultOf() {
		if gaTS.IsZero() || len(act.Premises()) == 0 {
			chgs = append(chgs, actIdx)
			continue
		}
	PREMISE_LOOP:
		for _, pre := range act.Premises() {
			preTS := pre.Artefact.StateAt(g.Project())
			switch {
			case preTS.IsZero():
				chgs = append(chgs, actIdx)
				break PREMISE_LOOP
			case gaTS.Before(preTS):
				chgs = append(chgs, actIdx)
				break PREMISE_LOOP
			}
		}
	}
	return chgs
}
