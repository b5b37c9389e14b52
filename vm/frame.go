package vm

// Call frames live on the operand stack. A call is laid out as
//
//	push <arg0> ... push <argN-1>
//	setframe N      ; saves fp, fp = index of arg0
//	push loc <fn>
//	call            ; saves the return pc
//
// so when the callee executes ret the stack reads, from fp upward,
//
//	[arg0 .. argN-1 / locals] [saved fp] [saved pc] [return value]

func (vm *VM) setFrame(n uint32) error {
	s := vm.state
	if int64(n) > int64(s.Stack.Len()) {
		return faultf(ErrIndexOutOfBounds, "frame of %d slots on stack of %d", n, s.Stack.Len())
	}
	if err := s.Stack.Push(CodeLoc(s.FP)); err != nil {
		return err
	}
	s.FP = uint32(s.Stack.Len() - int(n) - 1)
	return nil
}

func (vm *VM) call() error {
	target, err := vm.popCodeLoc()
	if err != nil {
		return err
	}
	if err := vm.state.Stack.Push(CodeLoc(vm.state.PC)); err != nil {
		return err
	}
	vm.state.PC = target
	return nil
}

// ret unwinds the current frame: the three top slots are the return value,
// the saved pc and the saved fp, and every slot from fp upward below them
// belongs to the frame.
func (vm *VM) ret() error {
	s := vm.state
	if s.Stack.Len() < 3 {
		return faultf(ErrStackUnderflow, "ret needs 3 values, stack has %d", s.Stack.Len())
	}

	result, _ := s.Stack.Pop()
	pcVal, _ := s.Stack.Pop()
	fpVal, _ := s.Stack.Pop()

	retPC, ok := pcVal.AsCodeLoc()
	if !ok {
		return faultf(ErrCorruptFrame, "saved pc slot holds %s", pcVal)
	}
	savedFP, ok := fpVal.AsCodeLoc()
	if !ok {
		return faultf(ErrCorruptFrame, "saved fp slot holds %s", fpVal)
	}
	if int(s.FP) > s.Stack.Len() {
		return faultf(ErrCorruptFrame, "fp %d above saved frame slot %d", s.FP, s.Stack.Len())
	}

	s.Stack.Truncate(int(s.FP))
	s.FP = savedFP
	s.PC = retPC
	return s.Stack.Push(result)
}
