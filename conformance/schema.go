package conformance

// Suite is one YAML file of cases
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"tests"`
}

// Case is a single program and what running it must produce
type Case struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Skip        string `yaml:"skip,omitempty"`

	// exactly one of Program (assembly) or Bytecode (hex) is set
	Program  string `yaml:"program,omitempty"`
	Bytecode string `yaml:"bytecode,omitempty"`

	Limits Limits      `yaml:"limits,omitempty"`
	Expect Expectation `yaml:"expect"`
}

type Limits struct {
	MaxStack int    `yaml:"max_stack,omitempty"`
	MaxHeap  int    `yaml:"max_heap,omitempty"`
	MaxSteps uint64 `yaml:"max_steps,omitempty"`
}

// Expectation lists what is checked after the run. Nil fields are not checked.
type Expectation struct {
	Stack []string `yaml:"stack,omitempty"` // Value.String() of each slot, bottom first
	Heap  []string `yaml:"heap,omitempty"`
	Error string   `yaml:"error,omitempty"` // ErrorKind name, e.g. DivideByZero
	PC    *uint32  `yaml:"pc,omitempty"`
	FP    *uint32  `yaml:"fp,omitempty"`
}
