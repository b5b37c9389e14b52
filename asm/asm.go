// Package asm converts between the text form of a program and vm.Program.
//
// One instruction per line; ';' starts a comment; "name:" defines a label
// that "push loc @name" resolves to the label's instruction index.
//
//	main:
//	    push int 2
//	    push int 3
//	    add
//	    halt
package asm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/krehermann/gostackvm/vm"
)

type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

var simpleOps = map[string]vm.Instruction{
	"pop":    vm.Simple(vm.OpPop),
	"swap":   vm.Simple(vm.OpSwap),
	"alloc":  vm.Simple(vm.OpAlloc),
	"set":    vm.Simple(vm.OpSet),
	"get":    vm.Simple(vm.OpGet),
	"call":   vm.Simple(vm.OpCall),
	"ret":    vm.Simple(vm.OpRet),
	"branch": vm.Simple(vm.OpBranch),
	"halt":   vm.Simple(vm.OpHalt),
	"neg":    vm.Unary(vm.UnopNeg),
	"add":    vm.Binary(vm.BinopAdd),
	"mul":    vm.Binary(vm.BinopMul),
	"sub":    vm.Binary(vm.BinopSub),
	"div":    vm.Binary(vm.BinopDiv),
	"lt":     vm.Binary(vm.BinopLt),
	"eq":     vm.Binary(vm.BinopEq),
}

var argOps = map[string]func(uint32) vm.Instruction{
	"peek":     vm.Peek,
	"var":      vm.Var,
	"store":    vm.Store,
	"setframe": vm.SetFrame,
}

type line struct {
	num    int
	fields []string
}

// Assemble parses the text program read from r.
func Assemble(r io.Reader) (vm.Program, error) {
	lines, labels, err := scan(r)
	if err != nil {
		return nil, err
	}

	prog := make(vm.Program, 0, len(lines))
	for _, l := range lines {
		inst, err := parseInst(l, labels)
		if err != nil {
			return nil, err
		}
		prog = append(prog, inst)
	}
	return prog, nil
}

// AssembleString is Assemble over a string.
func AssembleString(src string) (vm.Program, error) {
	return Assemble(strings.NewReader(src))
}

// scan strips comments, records label positions and returns the remaining
// instruction lines.
func scan(r io.Reader) ([]line, map[string]uint32, error) {
	var lines []line
	labels := map[string]uint32{}

	sc := bufio.NewScanner(r)
	num := 0
	for sc.Scan() {
		num++
		text := sc.Text()
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)

		for {
			i := strings.IndexByte(text, ':')
			if i < 0 {
				break
			}
			name := strings.TrimSpace(text[:i])
			if !validLabel(name) {
				return nil, nil, &Error{Line: num, Msg: fmt.Sprintf("invalid label %q", name)}
			}
			if _, dup := labels[name]; dup {
				return nil, nil, &Error{Line: num, Msg: fmt.Sprintf("duplicate label %q", name)}
			}
			labels[name] = uint32(len(lines))
			text = strings.TrimSpace(text[i+1:])
		}

		if text == "" {
			continue
		}
		lines = append(lines, line{num: num, fields: strings.Fields(text)})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read assembly: %w", err)
	}
	return lines, labels, nil
}

func validLabel(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func parseInst(l line, labels map[string]uint32) (vm.Instruction, error) {
	mnemonic, args := strings.ToLower(l.fields[0]), l.fields[1:]
	fail := func(format string, a ...any) (vm.Instruction, error) {
		return vm.Instruction{}, &Error{Line: l.num, Msg: fmt.Sprintf(format, a...)}
	}

	if inst, ok := simpleOps[mnemonic]; ok {
		if len(args) != 0 {
			return fail("%s takes no operand", mnemonic)
		}
		return inst, nil
	}
	if mk, ok := argOps[mnemonic]; ok {
		if len(args) != 1 {
			return fail("%s takes one operand", mnemonic)
		}
		n, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fail("%s operand %q: not a u32", mnemonic, args[0])
		}
		return mk(uint32(n)), nil
	}
	if mnemonic != "push" {
		return fail("unknown instruction %q", mnemonic)
	}

	v, err := parseLiteral(args, labels)
	if err != nil {
		return fail("push: %s", err)
	}
	return vm.Push(v), nil
}

func parseLiteral(args []string, labels map[string]uint32) (vm.Value, error) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "unit":
			return vm.Unit(), nil
		case "undef":
			return vm.Undefined(), nil
		case "true":
			return vm.Bool(true), nil
		case "false":
			return vm.Bool(false), nil
		}
		return vm.Value{}, fmt.Errorf("unknown literal %q", args[0])
	}
	if len(args) != 2 {
		return vm.Value{}, fmt.Errorf("expected a literal")
	}

	switch strings.ToLower(args[0]) {
	case "int":
		n, err := strconv.ParseInt(args[1], 0, 64)
		if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
			return vm.Value{}, fmt.Errorf("%q is not an i32", args[1])
		}
		return vm.Int(int32(n)), nil
	case "loc":
		if strings.HasPrefix(args[1], "@") {
			target, ok := labels[args[1][1:]]
			if !ok {
				return vm.Value{}, fmt.Errorf("undefined label %q", args[1][1:])
			}
			return vm.CodeLoc(target), nil
		}
		n, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return vm.Value{}, fmt.Errorf("%q is not a u32", args[1])
		}
		return vm.CodeLoc(uint32(n)), nil
	}
	return vm.Value{}, fmt.Errorf("unknown literal kind %q", args[0])
}

// Disassemble writes prog in assembler syntax, one instruction per line
// with its index as a trailing comment.
func Disassemble(w io.Writer, prog vm.Program) error {
	bw := bufio.NewWriter(w)
	for i, inst := range prog {
		if _, err := fmt.Fprintf(bw, "%-24s ; %d\n", inst, i); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Lines returns the disassembly of prog without index comments.
func Lines(prog vm.Program) []string {
	out := make([]string, len(prog))
	for i, inst := range prog {
		out[i] = inst.String()
	}
	return out
}
