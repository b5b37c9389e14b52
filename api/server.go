package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/krehermann/gostackvm/asm"
	"github.com/krehermann/gostackvm/core"
	"github.com/krehermann/gostackvm/types"
	"github.com/krehermann/gostackvm/vm"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	DefaultMaxProgramBytes = 1 << 20
	MIMEApplicationCBOR    = "application/cbor"
)

type ServerConfig struct {
	ListenerAddr string
	Logger       *zap.Logger
	// request bodies larger than this are rejected with 413
	MaxProgramBytes int64
	// 0 leaves the executor's step limit in place
	MaxSteps uint64
}

type Server struct {
	ServerConfig
	exec *core.Executor
	echo *echo.Echo

	logger *zap.Logger
}

func NewServer(config ServerConfig, exec *core.Executor) (*Server, error) {
	if exec == nil {
		return nil, errors.New("api server: nil executor")
	}
	if config.Logger == nil {
		config.Logger = zap.L()
	}
	if config.MaxProgramBytes <= 0 {
		config.MaxProgramBytes = DefaultMaxProgramBytes
	}
	s := &Server{
		ServerConfig: config,
		exec:         exec,
		logger:       config.Logger.Named("api"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.POST("/run", s.handleRun)
	e.GET("/programs", s.handleListPrograms)
	e.POST("/programs", s.handleAddProgram)
	e.GET("/programs/:hash", s.handleGetProgram)
	e.POST("/programs/:hash/run", s.handleRunProgram)
	s.echo = e

	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info("api server starting",
		zap.String("addr", s.ListenerAddr))
	err := s.echo.Start(s.ListenerAddr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server stopping")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) handleHealth(ectx echo.Context) error {
	return s.respond(ectx, http.StatusOK, HealthResponse{
		Status:   "ok",
		Programs: len(s.exec.Programs()),
	})
}

func (s *Server) handleRun(ectx echo.Context) error {
	raw, err := s.readBody(ectx)
	if err != nil {
		return s.fail(ectx, err)
	}
	res, err := s.exec.ExecuteBytes(raw, s.runOpts()...)
	return s.respondRun(ectx, res, err)
}

func (s *Server) handleListPrograms(ectx echo.Context) error {
	return s.respond(ectx, http.StatusOK, ProgramListResponse{
		Programs: s.exec.Programs(),
	})
}

func (s *Server) handleAddProgram(ectx echo.Context) error {
	raw, err := s.readBody(ectx)
	if err != nil {
		return s.fail(ectx, err)
	}
	h, err := s.exec.AddProgram(raw)
	if err != nil {
		return s.fail(ectx, err)
	}
	prog, err := s.exec.Program(h)
	if err != nil {
		return s.fail(ectx, err)
	}
	return s.respond(ectx, http.StatusCreated, ProgramResponse{
		Hash:         h,
		Instructions: len(prog),
	})
}

func (s *Server) handleGetProgram(ectx echo.Context) error {
	h, err := types.HashFromHex(ectx.Param("hash"))
	if err != nil {
		return s.respond(ectx, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	prog, err := s.exec.Program(h)
	if err != nil {
		return s.fail(ectx, err)
	}
	return s.respond(ectx, http.StatusOK, DisassemblyResponse{
		Hash:    h,
		Listing: asm.Lines(prog),
	})
}

func (s *Server) handleRunProgram(ectx echo.Context) error {
	h, err := types.HashFromHex(ectx.Param("hash"))
	if err != nil {
		return s.respond(ectx, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	res, err := s.exec.Run(h, s.runOpts()...)
	return s.respondRun(ectx, res, err)
}

func (s *Server) runOpts() []vm.VMOpt {
	if s.MaxSteps == 0 {
		return nil
	}
	return []vm.VMOpt{vm.MaxStepsOpt(s.MaxSteps)}
}

type errBodyTooLarge struct {
	limit int64
}

func (e *errBodyTooLarge) Error() string {
	return fmt.Sprintf("program exceeds %d bytes", e.limit)
}

func (s *Server) readBody(ectx echo.Context) ([]byte, error) {
	body := ectx.Request().Body
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, s.MaxProgramBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > s.MaxProgramBytes {
		return nil, &errBodyTooLarge{limit: s.MaxProgramBytes}
	}
	return raw, nil
}

// respondRun maps the outcome of an execution: a run that produced a result
// but faulted is 422 and still carries the result.
func (s *Server) respondRun(ectx echo.Context, res *core.Result, err error) error {
	if err == nil {
		return s.respond(ectx, http.StatusOK, res)
	}
	if res == nil {
		return s.fail(ectx, err)
	}
	s.logger.Debug("program faulted", zap.Error(err))
	return s.respond(ectx, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  err.Error(),
		Result: res,
	})
}

func (s *Server) fail(ectx echo.Context, err error) error {
	status := http.StatusInternalServerError
	var (
		notFound *core.ErrProgramNotFound
		tooLarge *errBodyTooLarge
	)
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, vm.ErrMalformedProgram):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", ectx.Path()),
			zap.Error(err))
	}
	return s.respond(ectx, status, ErrorResponse{Error: err.Error()})
}

// respond writes body as JSON, or as CBOR when the request asks for
// ?format=cbor.
func (s *Server) respond(ectx echo.Context, status int, body any) error {
	if ectx.QueryParam("format") != "cbor" {
		return ectx.JSON(status, body)
	}
	b, err := cborMarshal(body)
	if err != nil {
		return ectx.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return ectx.Blob(status, MIMEApplicationCBOR, b)
}

func cborMarshal(body any) ([]byte, error) {
	if res, ok := body.(*core.Result); ok {
		return core.MarshalCBOR(res)
	}
	return cbor.Marshal(body)
}
