package mkore

import (
	"errors"
	"slices"
	"testing"
)

func TestEnv_Sub(t *testing.T) {
	var root Env
	root.SetTagsMap(map[string]string{"A": "1", "B": "2"})
	sub := root.Sub()
	sub.SetTagsMap(map[string]string{"A": "0", "C": "3"})
	xenv, err := sub.ExecEnv()
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(xenv)
	if !slices.Equal(xenv, []string{"A=0", "B=2", "C=3"}) {
		t.Errorf("exec env: %v", xenv)
	}
	xenv, _ = root.ExecEnv()
	slices.Sort(xenv)
	if !slices.Equal(xenv, []string{"A=1", "B=2"}) {
		t.Errorf("sub tags leaked into parent: %v", xenv)
	}
}

func TestEnv_ExecEnv_cache(t *testing.T) {
	var e Env
	e.SetTagsMap(map[string]string{"A": "1"})
	if xenv, _ := e.ExecEnv(); !slices.Equal(xenv, []string{"A=1"}) {
		t.Fatalf("exec env: %v", xenv)
	}
	e.SetTagsMap(map[string]string{"A": "2"})
	if xenv, _ := e.ExecEnv(); !slices.Equal(xenv, []string{"A=2"}) {
		t.Errorf("stale exec env: %v", xenv)
	}
}

func TestEnv_ExecEnv_illegal(t *testing.T) {
	var e Env
	e.SetTagsMap(map[string]string{"": "x", "OK": "y"})
	xenv, err := e.ExecEnv()
	if !errors.Is(err, NonXEnvKeys(nil)) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(xenv, []string{"OK=y"}) {
		t.Errorf("exec env: %v", xenv)
	}
}
