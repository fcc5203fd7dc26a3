package mkore

import (
	"bytes"
	"io"
)

// PrefixWriter writes each line written to it with a prefix to an underlying
// writer. It is used to tag the diagnostics of a subprocess with the item the
// subprocess works on.
type PrefixWriter struct {
	w      io.Writer
	prefix []byte
	inLine bool // not at start of line (zero…)
}

func NewPrefixWriter(w io.Writer, prefix string) *PrefixWriter {
	return &PrefixWriter{w: w, prefix: []byte(prefix)}
}

func (pw *PrefixWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		if !pw.inLine {
			if _, err := pw.w.Write(pw.prefix); err != nil {
				return n, err
			}
			pw.inLine = true
		}
		nlIdx := bytes.IndexByte(p, '\n')
		if nlIdx < 0 {
			m, err := pw.w.Write(p)
			return n + m, err
		}
		nlIdx++
		m, err := pw.w.Write(p[:nlIdx])
		n += m
		if err != nil {
			return n, err
		}
		pw.inLine = false
		p = p[nlIdx:]
	}
	return n, nil
}

// Close terminates an incomplete last line. It does not close the underlying
// writer.
func (pw *PrefixWriter) Close() error {
	if !pw.inLine {
		return nil
	}
	pw.inLine = false
	_, err := pw.w.Write([]byte{'\n'})
	return err
}
