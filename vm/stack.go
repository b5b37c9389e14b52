package vm

const DefaultMaxStack = 1024

// Stack is the bounded operand stack. It also holds call frames, see Ret.
// It is owned by a single VM and is not safe for concurrent use.
type Stack struct {
	data []Value

	depth int
}

type StackOpt func(*Stack) *Stack

func MaxStack(max int) StackOpt {
	return func(s *Stack) *Stack {
		s.depth = max
		return s
	}
}

func NewStack(opts ...StackOpt) *Stack {
	s := &Stack{
		depth: DefaultMaxStack,
	}
	for _, opt := range opts {
		s = opt(s)
	}
	s.data = make([]Value, 0, s.depth)
	return s
}

func (s *Stack) Push(v Value) error {
	if len(s.data) >= s.depth {
		return faultf(ErrStackOverflow, "stack depth %d exceeded", s.depth)
	}
	s.data = append(s.data, v)
	return nil
}

func (s *Stack) Pop() (Value, error) {
	if s.Empty() {
		return Value{}, faultf(ErrStackUnderflow, "pop on empty stack")
	}
	v := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return v, nil
}

func (s *Stack) Empty() bool {
	return len(s.data) == 0
}

func (s *Stack) Len() int {
	return len(s.data)
}

func (s *Stack) Depth() int {
	return s.depth
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (Value, error) {
	if s.Empty() {
		return Value{}, faultf(ErrStackUnderflow, "peek on empty stack")
	}
	return s.data[len(s.data)-1], nil
}

// Read returns the value at absolute index pos, counted from the bottom.
func (s *Stack) Read(pos int) (Value, error) {
	if pos >= len(s.data) || pos < 0 {
		return Value{}, faultf(ErrIndexOutOfBounds, "read out of range len %d, pos %d", len(s.data), pos)
	}
	return s.data[pos], nil
}

// Write overwrites the value at absolute index pos.
func (s *Stack) Write(pos int, v Value) error {
	if pos >= len(s.data) || pos < 0 {
		return faultf(ErrIndexOutOfBounds, "write out of range len %d, pos %d", len(s.data), pos)
	}
	s.data[pos] = v
	return nil
}

// Truncate drops every value at index n and above.
func (s *Stack) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.data) {
		s.data = s.data[:n]
	}
}

// Values returns a copy of the stack, bottom first.
func (s *Stack) Values() []Value {
	out := make([]Value, len(s.data))
	copy(out, s.data)
	return out
}
