package mkore

import (
	"bytes"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"testing"
)

func ExamplePrefixWriter() {
	pw := NewPrefixWriter(os.Stdout, "PRE:")
	io.WriteString(pw, "foo")
	io.WriteString(pw, "bar\n")
	io.WriteString(pw, "baz\nquux")
	pw.Close()
	// Output:
	// PRE:foobar
	// PRE:baz
	// PRE:quux
}

func TestPrefixWriter_Close(t *testing.T) {
	var sb strings.Builder
	pw := NewPrefixWriter(&sb, "> ")
	if err := pw.Close(); err != nil {
		t.Fatal(err)
	}
	if sb.Len() != 0 {
		t.Fatalf("close at line start wrote '%s'", sb.String())
	}
	io.WriteString(pw, "error: x\n")
	pw.Close()
	if s := sb.String(); s != "> error: x\n" {
		t.Errorf("unexpected output '%s'", s)
	}
}

const (
	benchLineMin = 40
	benchLineMax = 180
)

var benchLine = append([]byte("test"), strings.Repeat(" test", (benchLineMax-4)/5+1)...)

func BenchmarkPrefixWriter(b *testing.B) {
	var c byte
	var buf bytes.Buffer
	randN := benchLineMax - benchLineMin
	for range b.N {
		buf.Reset()
		pfw := NewPrefixWriter(&buf, "Prefix:")
		lno := 5 + rand.IntN(15)
		for range lno {
			len := benchLineMin + rand.IntN(randN)
			c, benchLine[len-1] = benchLine[len-1], '\n'
			pfw.Write(benchLine[:len])
			benchLine[len-1] = c
		}
	}
}
