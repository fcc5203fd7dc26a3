package mkore

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
)

// Env is the environment operations run in: the standard streams and the
// variables passed to subprocesses. An Env created with [Env.Sub] inherits
// the variables of its parent unless they are overridden.
type Env struct {
	In       io.Reader
	Out, Err io.Writer

	tags    map[string]string
	xenv    []string
	xenvErr error
	parent  *Env
}

func DefaultEnv(tr *Trace) *Env {
	env := &Env{
		In:   os.Stdin,
		Out:  os.Stdout,
		Err:  os.Stderr,
		tags: make(map[string]string),
	}
	for _, evar := range os.Environ() {
		kv := strings.SplitN(evar, "=", 2)
		if len(kv) == 0 || kv[0] == "" {
			if tr != nil {
				tr.Warn("ignoring default `env`", `env`, evar)
			}
			continue
		}
		switch len(kv) {
		case 1:
			env.tags[kv[0]] = ""
		default:
			env.tags[kv[0]] = kv[1]
		}
	}
	return env
}

func (e *Env) Sub() *Env {
	return &Env{
		In: e.In, Out: e.Out, Err: e.Err,
		parent: e,
	}
}

func (e *Env) SetTagsMap(tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	if e.tags == nil {
		e.tags = make(map[string]string)
	}
	maps.Copy(e.tags, tags)
	e.clearXEnv()
}

type NonXEnvKeys []string

func (e NonXEnvKeys) Error() string {
	return fmt.Sprintf("illegal exec env keys: %s", strings.Join(e, ", "))
}

func (NonXEnvKeys) Is(target error) bool {
	_, ok := target.(NonXEnvKeys)
	return ok
}

// ExecEnv returns the merged tags in the "key=value" form of [os/exec.Cmd].Env.
// Keys that cannot be passed to a subprocess are skipped and reported with a
// [NonXEnvKeys] error.
func (e *Env) ExecEnv() ([]string, error) {
	if e.xenv == nil {
		var errKeys []string
		for k, v := range e.mergedTags() {
			switch {
			case k == "":
				errKeys = append(errKeys, `""`)
			case strings.ContainsRune(k, '='):
				errKeys = append(errKeys, k)
			default:
				tmp := fmt.Sprintf("%s=%s", k, v)
				e.xenv = append(e.xenv, tmp)
			}
		}
		if len(errKeys) > 0 {
			e.xenvErr = NonXEnvKeys(errKeys)
		}
	}
	return e.xenv, e.xenvErr
}

func (e *Env) clearXEnv() {
	e.xenv = nil
	e.xenvErr = nil
}

func (e *Env) mergedTags() map[string]string {
	if e.parent == nil {
		return maps.Clone(e.tags)
	}
	mts := e.parent.mergedTags()
	if mts == nil {
		mts = make(map[string]string)
	}
	maps.Copy(mts, e.tags)
	return mts
}
