// Package debug is an interactive stepper over a vm.VM.
package debug

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/krehermann/gostackvm/types"
	"github.com/krehermann/gostackvm/vm"
	"github.com/peterh/liner"
	"go.uber.org/zap"
)

const prompt = "(vm) "

const helpText = `commands:
  step [n]      execute n instructions (default 1)
  continue      run until halt, fault or breakpoint
  break <pc>    set a breakpoint
  clear <pc>    remove a breakpoint
  breaks        list breakpoints
  stack         print the operand stack
  heap          print the heap
  regs          print pc, fp and step count
  list [n]      show n instructions around pc (default 5)
  help          this text
  quit          leave the debugger
an empty line repeats the previous command
`

type Session struct {
	machine     *vm.VM
	out         io.Writer
	breakpoints *types.List[uint32]

	// set once the machine faults; the machine is not stepped after that
	fault error
	last  string

	logger *zap.Logger
}

type SessionOpt func(*Session) *Session

func LoggerOpt(l *zap.Logger) SessionOpt {
	return func(s *Session) *Session {
		s.logger = l
		return s
	}
}

func NewSession(machine *vm.VM, out io.Writer, opts ...SessionOpt) *Session {
	s := &Session{
		machine:     machine,
		out:         out,
		breakpoints: types.NewList[uint32](),
		logger:      zap.L(),
	}
	for _, opt := range opts {
		s = opt(s)
	}
	s.logger = s.logger.Named("debug")
	return s
}

// Run reads commands from the terminal until quit or EOF.
func (s *Session) Run() error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	s.printf("%d instructions loaded, type help for commands\n", len(s.machine.State().Program))
	s.where()
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			s.printf("\n")
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("debug prompt: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.Exec(line) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the session should end.
func (s *Session) Exec(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		line = s.last
	}
	if line == "" {
		return false
	}
	s.last = line

	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "step", "s":
		n, err := optionalCount(args, 1)
		if err != nil {
			s.printf("%s\n", err)
			return false
		}
		s.step(n)
	case "continue", "c":
		s.cont()
	case "break", "b":
		pc, err := requiredPC(args)
		if err != nil {
			s.printf("%s\n", err)
			return false
		}
		if int(pc) >= len(s.machine.State().Program) {
			s.printf("pc %d is past the end of the program\n", pc)
			return false
		}
		if s.breakpoints.AppendUnique(pc) {
			s.printf("breakpoint at %d\n", pc)
		}
	case "clear":
		pc, err := requiredPC(args)
		if err != nil {
			s.printf("%s\n", err)
			return false
		}
		if !s.breakpoints.Delete(pc) {
			s.printf("no breakpoint at %d\n", pc)
		}
	case "breaks":
		pcs := s.breakpoints.Slice()
		sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
		for _, pc := range pcs {
			s.printf("  %04d  %s\n", pc, s.machine.State().Program[pc])
		}
	case "stack":
		s.printValues(s.machine.State().Stack.Values())
	case "heap":
		s.printValues(s.machine.State().Heap.Values())
	case "regs":
		st := s.machine.State()
		s.printf("pc %d  fp %d  steps %d  halted %t\n", st.PC, st.FP, s.machine.Steps(), st.Halted)
	case "list", "l":
		n, err := optionalCount(args, 5)
		if err != nil {
			s.printf("%s\n", err)
			return false
		}
		s.list(n)
	case "help", "h", "?":
		s.printf("%s", helpText)
	case "quit", "q", "exit":
		return true
	default:
		s.printf("unknown command %q, type help\n", cmd)
	}
	return false
}

// Fault is the error that stopped the machine, if any.
func (s *Session) Fault() error {
	return s.fault
}

func (s *Session) stopped() bool {
	if s.fault != nil {
		s.printf("machine faulted: %s\n", s.fault)
		return true
	}
	if s.machine.Halted() {
		s.printf("machine halted\n")
		return true
	}
	return false
}

func (s *Session) stepOnce() bool {
	if err := s.machine.Step(); err != nil {
		s.fault = err
		s.logger.Debug("fault", zap.Error(err))
		s.printf("fault: %s\n", err)
		return false
	}
	return !s.machine.Halted()
}

func (s *Session) step(n int) {
	if s.stopped() {
		return
	}
	for i := 0; i < n; i++ {
		if !s.stepOnce() {
			break
		}
	}
	s.where()
}

func (s *Session) cont() {
	if s.stopped() {
		return
	}
	// always move off the current pc so a breakpoint here does not pin us
	for s.stepOnce() {
		if pc := s.machine.State().PC; s.breakpoints.Contains(pc) {
			s.printf("breakpoint at %d\n", pc)
			break
		}
	}
	s.where()
}

func (s *Session) where() {
	st := s.machine.State()
	switch {
	case s.fault != nil:
		return
	case st.Halted:
		s.printf("halted after %d steps\n", s.machine.Steps())
		s.printValues(st.Stack.Values())
	case int(st.PC) < len(st.Program):
		s.printf("=> %04d  %s\n", st.PC, st.Program[st.PC])
	default:
		s.printf("=> %04d  <end of program>\n", st.PC)
	}
}

func (s *Session) list(n int) {
	st := s.machine.State()
	start := int(st.PC) - n/2
	if start < 0 {
		start = 0
	}
	end := start + n
	if end > len(st.Program) {
		end = len(st.Program)
	}
	for i := start; i < end; i++ {
		marker := "  "
		if uint32(i) == st.PC {
			marker = "=>"
		}
		bp := " "
		if s.breakpoints.Contains(uint32(i)) {
			bp = "*"
		}
		s.printf("%s%s%04d  %s\n", marker, bp, i, st.Program[i])
	}
}

func (s *Session) printValues(vals []vm.Value) {
	if len(vals) == 0 {
		s.printf("  <empty>\n")
		return
	}
	for i, v := range vals {
		s.printf("  %4d  %s\n", i, v)
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func optionalCount(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive count, got %q", args[0])
	}
	return n, nil
}

func requiredPC(args []string) (uint32, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one program counter")
	}
	n, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad program counter %q", args[0])
	}
	return uint32(n), nil
}
