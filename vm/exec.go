package vm

func (vm *VM) exec(inst Instruction) error {
	s := vm.state

	switch inst.Op {
	case OpPush:
		return s.Stack.Push(inst.Value)
	case OpPop:
		_, err := s.Stack.Pop()
		return err
	case OpPeek:
		v, err := s.Stack.Read(int(inst.Arg))
		if err != nil {
			return err
		}
		return s.Stack.Push(v)
	case OpUnary:
		return vm.unary(inst.Unop)
	case OpBinary:
		return vm.binary(inst.Binop)
	case OpSwap:
		top, err := s.Stack.Pop()
		if err != nil {
			return err
		}
		second, err := s.Stack.Pop()
		if err != nil {
			return err
		}
		if err := s.Stack.Push(top); err != nil {
			return err
		}
		return s.Stack.Push(second)
	case OpAlloc:
		return vm.alloc()
	case OpSet:
		return vm.set()
	case OpGet:
		return vm.get()
	case OpVar:
		v, err := s.Stack.Read(int(s.FP) + int(inst.Arg))
		if err != nil {
			return err
		}
		return s.Stack.Push(v)
	case OpStore:
		v, err := s.Stack.Pop()
		if err != nil {
			return err
		}
		return s.Stack.Write(int(s.FP)+int(inst.Arg), v)
	case OpSetFrame:
		return vm.setFrame(inst.Arg)
	case OpCall:
		return vm.call()
	case OpRet:
		return vm.ret()
	case OpBranch:
		return vm.branch()
	case OpHalt:
		s.Halted = true
		return nil
	}
	return faultf(ErrMalformedProgram, "unknown opcode 0x%02x", byte(inst.Op))
}

func (vm *VM) unary(op Unop) error {
	v, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	switch op {
	case UnopNeg:
		b, ok := v.AsBool()
		if !ok {
			return typeMismatch(KindBool, v)
		}
		return vm.state.Stack.Push(Bool(!b))
	}
	return faultf(ErrMalformedProgram, "unknown unop %s", op)
}

// binary pops the right operand (top) and then the left operand, and pushes
// lhs op rhs.
func (vm *VM) binary(op Binop) error {
	rhs, err := vm.popInt()
	if err != nil {
		return err
	}
	lhs, err := vm.popInt()
	if err != nil {
		return err
	}

	var res Value
	switch op {
	case BinopAdd:
		res = Int(lhs + rhs)
	case BinopSub:
		res = Int(lhs - rhs)
	case BinopMul:
		res = Int(lhs * rhs)
	case BinopDiv:
		if rhs == 0 {
			return faultf(ErrDivideByZero, "%d / 0", lhs)
		}
		// MinInt32 / -1 wraps to MinInt32
		res = Int(lhs / rhs)
	case BinopLt:
		res = Bool(lhs < rhs)
	case BinopEq:
		res = Bool(lhs == rhs)
	default:
		return faultf(ErrMalformedProgram, "unknown binop %s", op)
	}
	return vm.state.Stack.Push(res)
}

func (vm *VM) branch() error {
	target, err := vm.popCodeLoc()
	if err != nil {
		return err
	}
	v, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	cond, ok := v.AsBool()
	if !ok {
		return typeMismatch(KindBool, v)
	}
	if cond {
		vm.state.PC = target
	}
	return nil
}

func (vm *VM) alloc() error {
	fill, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	n, err := vm.popInt()
	if err != nil {
		return err
	}
	addr, err := vm.state.Heap.Alloc(n, fill)
	if err != nil {
		return err
	}
	return vm.state.Stack.Push(addr)
}

func (vm *VM) set() error {
	v, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	idx, err := vm.popInt()
	if err != nil {
		return err
	}
	base, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	return vm.state.Heap.Store(base, idx, v)
}

func (vm *VM) get() error {
	idx, err := vm.popInt()
	if err != nil {
		return err
	}
	base, err := vm.state.Stack.Pop()
	if err != nil {
		return err
	}
	v, err := vm.state.Heap.Load(base, idx)
	if err != nil {
		return err
	}
	return vm.state.Stack.Push(v)
}

func (vm *VM) popInt() (int32, error) {
	v, err := vm.state.Stack.Pop()
	if err != nil {
		return 0, err
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, typeMismatch(KindInt, v)
	}
	return i, nil
}

func (vm *VM) popCodeLoc() (uint32, error) {
	v, err := vm.state.Stack.Pop()
	if err != nil {
		return 0, err
	}
	l, ok := v.AsCodeLoc()
	if !ok {
		return 0, typeMismatch(KindCodeLoc, v)
	}
	return l, nil
}
