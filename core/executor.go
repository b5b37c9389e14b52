package core

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/krehermann/gostackvm/types"
	"github.com/krehermann/gostackvm/vm"
	"go.uber.org/zap"
)

type ErrProgramNotFound struct {
	Hash types.Hash
}

func NewErrProgramNotFound(h types.Hash) *ErrProgramNotFound {
	return &ErrProgramNotFound{
		Hash: h,
	}
}

func (e *ErrProgramNotFound) Error() string {
	return fmt.Sprintf("program %s not found", e.Hash)
}

// Executor keeps content addressed programs and runs them on fresh machines.
// Every run gets its own vm.VM, so runs never share state.
type Executor struct {
	store  Storager[types.Hash, vm.Program]
	hasher Hasher[[]byte]

	orderMu sync.RWMutex
	order   *types.List[types.Hash]

	vmOpts []vm.VMOpt
	logger *zap.Logger
}

type ExecutorOpt func(e *Executor) *Executor

func WithLogger(l *zap.Logger) ExecutorOpt {
	return func(e *Executor) *Executor {
		e.logger = l.Named("executor")
		return e
	}
}

func WithStore(s Storager[types.Hash, vm.Program]) ExecutorOpt {
	return func(e *Executor) *Executor {
		e.store = s
		return e
	}
}

// WithVMOpts sets options applied to every machine the executor creates.
func WithVMOpts(opts ...vm.VMOpt) ExecutorOpt {
	return func(e *Executor) *Executor {
		e.vmOpts = append(e.vmOpts, opts...)
		return e
	}
}

func NewExecutor(opts ...ExecutorOpt) *Executor {
	e := &Executor{
		hasher: ProgramHasher{},
		order:  types.NewList[types.Hash](),
		logger: zap.L().Named("executor"),
	}
	for _, opt := range opts {
		e = opt(e)
	}
	if e.store == nil {
		e.store = NewMemStore[types.Hash, vm.Program]()
	}
	return e
}

// AddProgram decodes raw and stores the program under its hash.
func (e *Executor) AddProgram(raw []byte) (types.Hash, error) {
	var prog vm.Program
	if err := NewBinaryProgramDecoder(bytes.NewReader(raw)).Decode(&prog); err != nil {
		return types.Hash{}, fmt.Errorf("add program: %w", err)
	}
	return e.Store(prog)
}

// Store adds an already decoded program.
func (e *Executor) Store(prog vm.Program) (types.Hash, error) {
	buf := &bytes.Buffer{}
	if err := NewBinaryProgramEncoder(buf).Encode(prog); err != nil {
		return types.Hash{}, fmt.Errorf("store program: %w", err)
	}
	h := e.hasher.Hash(buf.Bytes())
	if e.store.Has(h) {
		return h, nil
	}
	if err := e.store.Put(h, prog); err != nil {
		return types.Hash{}, fmt.Errorf("store program: %w", err)
	}

	e.orderMu.Lock()
	e.order.AppendUnique(h)
	e.orderMu.Unlock()

	e.logger.Info("stored program",
		zap.String("hash", h.Prefix()),
		zap.Int("instructions", len(prog)),
	)
	return h, nil
}

func (e *Executor) Program(h types.Hash) (vm.Program, error) {
	if !e.store.Has(h) {
		return nil, NewErrProgramNotFound(h)
	}
	return e.store.Get(h)
}

// Programs lists stored hashes in the order they were first added.
func (e *Executor) Programs() []types.Hash {
	e.orderMu.RLock()
	defer e.orderMu.RUnlock()
	return e.order.Slice()
}

// Execute runs prog to completion. The result is returned even when the run
// faults, together with the fault.
func (e *Executor) Execute(prog vm.Program, opts ...vm.VMOpt) (*Result, error) {
	vmOpts := append([]vm.VMOpt{vm.LoggerOpt(e.logger)}, e.vmOpts...)
	vmOpts = append(vmOpts, opts...)

	machine := vm.NewVM(prog, vmOpts...)
	runErr := machine.Run()
	res := NewResult(machine, runErr)

	if runErr != nil {
		e.logger.Debug("run faulted",
			zap.Uint64("steps", res.Steps),
			zap.Error(runErr),
		)
		return res, runErr
	}
	if top, ok := res.Top(); ok {
		e.logger.Debug("vm result",
			zap.String("val", top.Text),
		)
	}
	return res, nil
}

// ExecuteBytes decodes and runs raw without storing it.
func (e *Executor) ExecuteBytes(raw []byte, opts ...vm.VMOpt) (*Result, error) {
	prog, err := vm.DecodeProgram(raw)
	if err != nil {
		return nil, err
	}
	return e.Execute(prog, opts...)
}

// Run executes a stored program.
func (e *Executor) Run(h types.Hash, opts ...vm.VMOpt) (*Result, error) {
	prog, err := e.Program(h)
	if err != nil {
		return nil, err
	}
	return e.Execute(prog, opts...)
}

func (e *Executor) Close() error {
	return e.store.Close()
}
