package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/krehermann/gostackvm/api"
	"github.com/krehermann/gostackvm/asm"
	"github.com/krehermann/gostackvm/config"
	"github.com/krehermann/gostackvm/conformance"
	"github.com/krehermann/gostackvm/core"
	"github.com/krehermann/gostackvm/debug"
	"github.com/krehermann/gostackvm/vm"
	"go.uber.org/zap"
)

const usage = `Usage: gostackvm <command> [options] [args]

Commands:
  run [-config f] [-trace] [-format text|json|cbor] prog   run a program
  asm [-o out.bin] prog.asm                               assemble to bytecode
  disasm prog.bin                                         print assembly
  debug [-config f] prog                                  interactive stepper
  serve [-config f] [-addr :8080]                         start the http api
  conformance dir                                         run yaml suites

prog may be bytecode or, with a .asm extension, assembly.
`

func main() {
	if err := dispatch(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("no command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return runCmd(rest, stdout, stderr)
	case "asm":
		return asmCmd(rest, stdout, stderr)
	case "disasm":
		return disasmCmd(rest, stdout, stderr)
	case "debug":
		return debugCmd(rest, stdout, stderr)
	case "serve":
		return serveCmd(rest, stderr)
	case "conformance":
		return conformanceCmd(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

// loadConfig reads path, or gostackvm.toml in the working directory when
// path is empty and the file exists.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.FileName); err != nil {
			return config.Default(), nil
		}
		path = config.FileName
	}
	return config.Load(path)
}

// setup loads the config and installs the root logger.
func setup(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func readProgram(path string) (vm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".asm") {
		return asm.Assemble(f)
	}
	var prog vm.Program
	if err := core.NewBinaryProgramDecoder(f).Decode(&prog); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

func runCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file")
	trace := fs.Bool("trace", false, "print every instruction and the stack")
	format := fs.String("format", "text", "output format: text, json or cbor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("run: expected one program file")
	}

	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	var opts []vm.VMOpt
	if *trace || cfg.VM.Trace {
		opts = append(opts, vm.TraceOpt(vm.NewWriterTracer(stderr)))
	}
	exec := core.NewExecutor(core.WithLogger(logger), core.WithVMOpts(cfg.VM.Options()...))
	defer exec.Close()

	res, runErr := exec.Execute(prog, opts...)

	switch *format {
	case "json":
		err = core.NewJSONResultEncoder(stdout).Encode(res)
	case "cbor":
		err = core.NewCBORResultEncoder(stdout).Encode(res)
	case "text":
		err = writeText(stdout, res)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	return runErr
}

func writeText(w io.Writer, res *core.Result) error {
	for _, v := range res.Stack {
		if _, err := fmt.Fprintln(w, v.Text); err != nil {
			return err
		}
	}
	return nil
}

func asmCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("asm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("asm: expected one source file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	prog, err := asm.Assemble(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	w := stdout
	if *out != "" {
		of, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer of.Close()
		w = of
	}
	return core.NewBinaryProgramEncoder(w).Encode(prog)
}

func disasmCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("disasm: expected one program file")
	}
	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}
	return asm.Disassemble(stdout, prog)
}

func debugCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("debug", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("debug: expected one program file")
	}

	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}
	opts := append(cfg.VM.Options(), vm.LoggerOpt(logger))
	return debug.NewSession(vm.NewVM(prog, opts...), stdout, debug.LoggerOpt(logger)).Run()
}

func serveCmd(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file")
	addr := fs.String("addr", "", "listen address, overrides api.listen_addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *addr != "" {
		cfg.API.ListenAddr = *addr
	}

	exec := core.NewExecutor(core.WithLogger(logger), core.WithVMOpts(cfg.VM.Options()...))
	defer exec.Close()

	srv, err := api.NewServer(api.ServerConfig{
		ListenerAddr:    cfg.API.ListenAddr,
		Logger:          logger,
		MaxProgramBytes: cfg.API.MaxProgramBytes,
		MaxSteps:        cfg.API.MaxSteps,
	}, exec)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func conformanceCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("conformance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("conformance: expected a suite directory")
	}

	_, logger, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cases, err := conformance.LoadDir(fs.Arg(0))
	if err != nil {
		return err
	}
	sum := conformance.NewRunner(logger).VerifyAll(cases)
	for _, res := range sum.Results {
		switch {
		case res.Skipped:
			fmt.Fprintf(stdout, "SKIP  %s: %s\n", res.File, res.Name)
		case res.Passed():
			fmt.Fprintf(stdout, "ok    %s: %s\n", res.File, res.Name)
		default:
			fmt.Fprintf(stdout, "FAIL  %s: %s\n", res.File, res.Name)
			for _, f := range res.Failures {
				fmt.Fprintf(stdout, "        %s\n", f)
			}
		}
	}
	fmt.Fprintf(stdout, "%d passed, %d failed, %d skipped\n", sum.Passed, sum.Failed, sum.Skipped)
	if sum.Failed > 0 {
		return fmt.Errorf("%d conformance cases failed", sum.Failed)
	}
	return nil
}
