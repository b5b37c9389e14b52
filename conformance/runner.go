package conformance

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/krehermann/gostackvm/asm"
	"github.com/krehermann/gostackvm/vm"
	"go.uber.org/zap"
)

// Outcome is the machine state observed after running a case.
type Outcome struct {
	Stack []vm.Value
	Heap  []vm.Value
	PC    uint32
	FP    uint32
	Err   error
}

// Result is the verdict for one case.
type Result struct {
	Name     string
	File     string
	Skipped  bool
	Failures []string
}

func (r Result) Passed() bool {
	return !r.Skipped && len(r.Failures) == 0
}

type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	Results []Result
}

type Runner struct {
	logger *zap.Logger
	vmOpts []vm.VMOpt
}

func NewRunner(logger *zap.Logger, opts ...vm.VMOpt) *Runner {
	if logger == nil {
		logger = zap.L()
	}
	return &Runner{
		logger: logger.Named("conformance"),
		vmOpts: opts,
	}
}

// Build assembles the case's program from its assembly or hex bytecode.
func (c Case) Build() (vm.Program, error) {
	if c.Program != "" {
		return asm.AssembleString(c.Program)
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(c.Bytecode), ""))
	if err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	return vm.DecodeProgram(raw)
}

// Run executes c. Decode failures of hex bytecode are part of the outcome;
// other build failures are returned as errors.
func (r *Runner) Run(c Case) (*Outcome, error) {
	prog, err := c.Build()
	if err != nil {
		if errors.Is(err, vm.ErrMalformedProgram) {
			return &Outcome{Err: err}, nil
		}
		return nil, fmt.Errorf("case %q: %w", c.Name, err)
	}

	opts := append([]vm.VMOpt{vm.LoggerOpt(r.logger)}, r.vmOpts...)
	if c.Limits.MaxStack > 0 {
		opts = append(opts, vm.MaxStackOpt(c.Limits.MaxStack))
	}
	if c.Limits.MaxHeap > 0 {
		opts = append(opts, vm.MaxHeapOpt(c.Limits.MaxHeap))
	}
	if c.Limits.MaxSteps > 0 {
		opts = append(opts, vm.MaxStepsOpt(c.Limits.MaxSteps))
	}

	machine := vm.NewVM(prog, opts...)
	runErr := machine.Run()
	s := machine.State()
	return &Outcome{
		Stack: s.Stack.Values(),
		Heap:  s.Heap.Values(),
		PC:    s.PC,
		FP:    s.FP,
		Err:   runErr,
	}, nil
}

// Check compares o against the expectation and describes every mismatch.
func (e Expectation) Check(o *Outcome) []string {
	var failures []string

	if e.Error == "" && o.Err != nil {
		failures = append(failures, fmt.Sprintf("unexpected error: %v", o.Err))
	}
	if e.Error != "" {
		want, ok := vm.ParseErrorKind(e.Error)
		switch {
		case !ok:
			failures = append(failures, fmt.Sprintf("unknown error kind %q", e.Error))
		case o.Err == nil:
			failures = append(failures, fmt.Sprintf("expected %s, run succeeded", want))
		case !errors.Is(o.Err, want):
			failures = append(failures, fmt.Sprintf("expected %s, got %v", want, o.Err))
		}
	}

	if e.Stack != nil {
		if got := render(o.Stack); !slices.Equal(got, e.Stack) {
			failures = append(failures, fmt.Sprintf("stack: want %v, got %v", e.Stack, got))
		}
	}
	if e.Heap != nil {
		if got := render(o.Heap); !slices.Equal(got, e.Heap) {
			failures = append(failures, fmt.Sprintf("heap: want %v, got %v", e.Heap, got))
		}
	}
	if e.PC != nil && *e.PC != o.PC {
		failures = append(failures, fmt.Sprintf("pc: want %d, got %d", *e.PC, o.PC))
	}
	if e.FP != nil && *e.FP != o.FP {
		failures = append(failures, fmt.Sprintf("fp: want %d, got %d", *e.FP, o.FP))
	}
	return failures
}

// Verify runs a loaded case and checks its expectation.
func (r *Runner) Verify(lc LoadedCase) Result {
	res := Result{Name: lc.Case.Name, File: lc.File}
	if lc.Case.Skip != "" {
		res.Skipped = true
		return res
	}

	o, err := r.Run(lc.Case)
	if err != nil {
		res.Failures = []string{err.Error()}
		return res
	}
	res.Failures = lc.Case.Expect.Check(o)
	return res
}

func (r *Runner) VerifyAll(cases []LoadedCase) Summary {
	var sum Summary
	for _, lc := range cases {
		res := r.Verify(lc)
		switch {
		case res.Skipped:
			sum.Skipped++
		case res.Passed():
			sum.Passed++
		default:
			sum.Failed++
			r.logger.Warn("case failed",
				zap.String("file", lc.File),
				zap.String("case", lc.Case.Name),
				zap.Strings("failures", res.Failures),
			)
		}
		sum.Results = append(sum.Results, res)
	}
	r.logger.Info("conformance run complete",
		zap.Int("passed", sum.Passed),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
	)
	return sum
}

func render(vals []vm.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}
