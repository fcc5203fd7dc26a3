package mkore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type BuildID = uint64

// Project is the set of goals and actions of a build rooted in directory Dir.
// Relative artefact paths are relative to Dir.
type Project struct {
	Dir string

	sync.Mutex

	goals     map[string]*Goal
	goalSeq   []*Goal
	actions   []*Action
	lastBuild BuildID
}

func NewProject(dir string) *Project {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	prj := &Project{
		Dir:   dir,
		goals: make(map[string]*Goal),
	}
	return prj
}

// Goal returns the goal for artefact atf. Artefacts with the same name share
// one goal. A nil atf creates a new abstract goal.
func (prj *Project) Goal(atf Artefact) (*Goal, error) {
	if atf == nil {
		n := fmt.Sprintf("artefact-%d", len(prj.goals))
		atf = Abstract(n)
	}
	name := atf.Name(prj)
	if name == "" {
		return nil, fmt.Errorf("artefact %T without name in project %s", atf, prj)
	}
	if g := prj.goals[name]; g != nil {
		return g, nil
	}
	g := &Goal{
		Artefact: atf,
		prj:      prj,
	}
	prj.goals[name] = g
	prj.goalSeq = append(prj.goalSeq, g)
	return g, nil
}

// Goals returns all goals of prj in the order they were added.
func (prj *Project) Goals() []*Goal { return prj.goalSeq }

func (prj *Project) Actions() []*Action { return prj.actions }

func (prj *Project) String() string {
	tmp := prj.Dir
	if tmp == "" || tmp == "." {
		if abs, err := filepath.Abs(tmp); err == nil {
			tmp = abs
		}
	}
	return filepath.Base(tmp)
}

// AbsPath returns p as absolute path. Relative paths are taken relative to
// prj.Dir.
func (prj *Project) AbsPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Abs(filepath.Join(prj.Dir, p))
}

// RelPath returns p relative to prj.Dir. Relative paths are considered to be
// relative to prj.Dir already.
func (prj *Project) RelPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	dir, err := filepath.Abs(prj.Dir)
	if err != nil {
		return "", err
	}
	return filepath.Rel(dir, p)
}

// NewAction creates a new [Action] in project prj. There must be at least one
// result. All premises and results must belong to the same project prj.
func (prj *Project) NewAction(premises, results []*Goal, op Operation) (*Action, error) {
	if len(results) == 0 {
		desc := "implicit"
		if op != nil {
			desc = op.Describe(nil, nil)
		}
		return nil, fmt.Errorf("creating action %s without result", desc)
	}
	if err := prj.consistentPrj(premises, results); err != nil {
		return nil, err
	}
	a := &Action{
		Op:       op,
		prj:      prj,
		idx:      uint(len(prj.actions)),
		premises: premises,
		results:  results,
	}
	for _, p := range premises {
		p.premiseOf = append(p.premiseOf, a)
	}
	for _, r := range results {
		r.resultOf = append(r.resultOf, a)
	}
	prj.actions = append(prj.actions, a)
	return a, nil
}

func (prj *Project) LockBuild() BuildID {
	prj.Lock()
	prj.lastBuild++
	return prj.lastBuild
}

func (prj *Project) Build() BuildID { return prj.lastBuild }

func (prj *Project) consistentPrj(premises, results []*Goal) error {
	for _, g := range premises {
		if p := g.Project(); p != prj {
			return fmt.Errorf("premise '%s' not in project '%s'",
				g.String(),
				prj.String(),
			)
		}
	}
	for _, g := range results {
		if p := g.Project(); p != prj {
			return fmt.Errorf("result '%s' not in project '%s'",
				g.String(),
				prj.String(),
			)
		}
	}
	return nil
}
