package vm

// State is the whole mutable machine: registers, stack, heap and the
// loaded program. It lives for exactly one run.
type State struct {
	Halted bool
	PC     uint32
	FP     uint32

	Stack   *Stack
	Heap    *Heap
	Program Program
}

func NewState(prog Program, stackOpts []StackOpt, heapOpts []HeapOpt) *State {
	return &State{
		Stack:   NewStack(stackOpts...),
		Heap:    NewHeap(heapOpts...),
		Program: prog,
	}
}

func (s *State) fetch() (Instruction, error) {
	if int64(s.PC) >= int64(len(s.Program)) {
		return Instruction{}, faultf(ErrPcOutOfBounds, "pc %d outside program of %d", s.PC, len(s.Program))
	}
	return s.Program[s.PC], nil
}
