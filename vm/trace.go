package vm

import (
	"fmt"
	"io"
)

// Tracer observes every instruction just before it is dispatched.
type Tracer interface {
	Trace(pc uint32, inst Instruction, s *State)
}

type TracerFunc func(pc uint32, inst Instruction, s *State)

func (f TracerFunc) Trace(pc uint32, inst Instruction, s *State) {
	f(pc, inst, s)
}

type WriterTracer struct {
	w io.Writer
}

// NewWriterTracer prints each instruction followed by the stack it will
// run against, one value per line.
func NewWriterTracer(w io.Writer) *WriterTracer {
	return &WriterTracer{w: w}
}

func (t *WriterTracer) Trace(pc uint32, inst Instruction, s *State) {
	fmt.Fprintf(t.w, "%04d  %s  (fp %d)\n", pc, inst, s.FP)
	for _, v := range s.Stack.Values() {
		fmt.Fprintf(t.w, "      %s\n", v)
	}
	fmt.Fprintln(t.w, "-------------")
}
