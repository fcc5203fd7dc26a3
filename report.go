package spvmk

import (
	"errors"
	"fmt"
	"io"
	"time"
)

type Status int

const (
	StatusOK Status = iota
	StatusFailed
	// StatusIgnored is a failure that did not fail the run, in legacy mode.
	StatusIgnored
	StatusSkipped
	StatusUpToDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusIgnored:
		return "ignored"
	case StatusSkipped:
		return "skipped"
	case StatusUpToDate:
		return "up-to-date"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// JobResult is the outcome of one [CompileJob] in a run.
type JobResult struct {
	Job      *CompileJob
	Status   Status
	Err      error
	Start    time.Time
	Duration time.Duration
}

// Report collects the results of a [Driver.Run]. Results are in the order of
// the shader files' names.
type Report struct {
	Started  time.Time
	Results  []JobResult
	Deployer string
	Deployed bool
	// Err is the error Run returned.
	Err error
}

// OK reports whether the run succeeded.
func (r *Report) OK() bool { return r.Err == nil }

// Failed returns the results of failed jobs.
func (r *Report) Failed() (fs []JobResult) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			fs = append(fs, res)
		}
	}
	return fs
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) (n int) {
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) result(j *CompileJob) *JobResult {
	for i := range r.Results {
		if r.Results[i].Job == j {
			return &r.Results[i]
		}
	}
	return nil
}

// WriteSummary writes one line per job and a closing total line to w.
func (r *Report) WriteSummary(w io.Writer) error {
	var errs []error
	for _, res := range r.Results {
		var err error
		if res.Err != nil {
			_, err = fmt.Fprintf(w, "%-10s %s: %s\n", res.Status, res.Job.Shader, res.Err)
		} else {
			_, err = fmt.Fprintf(w, "%-10s %s\n", res.Status, res.Job.Shader)
		}
		errs = append(errs, err)
	}
	_, err := fmt.Fprintf(w, "%d shaders: %d ok, %d failed, %d up-to-date, %d skipped\n",
		len(r.Results),
		r.Count(StatusOK),
		r.Count(StatusFailed)+r.Count(StatusIgnored),
		r.Count(StatusUpToDate),
		r.Count(StatusSkipped),
	)
	return errors.Join(append(errs, err)...)
}
