// Package preview serves compiled programs over HTTP: single frames as PNG
// and a live frame stream over a websocket.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"lps/pkg/compiler"
	"lps/pkg/fixed"
	"lps/pkg/logs"
	"lps/pkg/lps"
	"lps/pkg/vm"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	Width  int
	Height int
	FPS    int

	// Auth is off when PasswordHash is empty.
	Secret       string
	PasswordHash string
	TokenTTL     time.Duration

	Compile   lps.Options
	Limits    vm.Limits
	CacheSize int
	Logger    *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Width:     32,
		Height:    32,
		FPS:       30,
		TokenTTL:  12 * time.Hour,
		Compile:   lps.DefaultOptions(),
		Limits:    vm.DefaultLimits(),
		CacheSize: 64,
	}
}

type Server struct {
	opts     Options
	cache    *Cache
	logger   *slog.Logger
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	// base is the parent of every stream; Close cancels it.
	base context.Context
	stop context.CancelFunc
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:   opts,
		cache:  NewCache(opts.CacheSize),
		logger: logger.With("component", "preview"),
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.base, s.stop = context.WithCancel(context.Background())
	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/programs", s.auth(s.handleCompile))
	s.mux.HandleFunc("GET /api/programs/{id}", s.auth(s.handleProgram))
	s.mux.HandleFunc("GET /api/programs/{id}/frame.png", s.auth(s.handleFrame))
	s.mux.HandleFunc("GET /api/programs/{id}/stream", s.auth(s.handleStream))
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// Close ends every live stream. Hijacked connections are not tracked by
// http.Server, so Shutdown alone leaves them running.
func (s *Server) Close() { s.stop() }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.PasswordHash == "" {
			next(w, r)
			return
		}
		if _, err := VerifyToken(bearer(r), s.opts.Secret); err != nil {
			s.logger.Debug("rejected token", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
			return
		}
		next(w, r)
	}
}

const maxLoginBody = 4 << 10

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.opts.PasswordHash == "" || !VerifyPassword(s.opts.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
		return
	}
	token, err := SignToken("preview", s.opts.Secret, s.opts.TokenTTL)
	if err != nil {
		s.logger.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type compileRequest struct {
	Source string `json:"source"`
	// Mode is "script" (the default) or "expr".
	Mode string `json:"mode"`
}

type programInfo struct {
	ID        ProgramID `json:"id"`
	Returns   string    `json:"returns"`
	Functions int       `json:"functions"`
	Opcodes   int       `json:"opcodes"`
	Disasm    string    `json:"disasm"`
}

type compileFailure struct {
	Error  string `json:"error"`
	Stage  string `json:"stage"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Detail string `json:"detail"`
}

func info(id ProgramID, prog *compiler.Program) programInfo {
	return programInfo{
		ID:        id,
		Returns:   prog.ReturnType().String(),
		Functions: len(prog.Functions),
		Opcodes:   prog.OpcodeCount(),
		Disasm:    prog.String(),
	}
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = "script"
	}
	compile := lps.CompileScript
	switch req.Mode {
	case "script":
	case "expr":
		compile = lps.CompileExpr
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	id := NewProgramID(req.Mode, req.Source)
	ctx := logs.WithProgram(r.Context(), string(id[:12]))
	if prog, ok := s.cache.Get(id); ok {
		s.logger.DebugContext(ctx, "cache hit")
		writeJSON(w, http.StatusOK, info(id, prog))
		return
	}

	prog, err := compile(req.Source, s.opts.Compile)
	if err != nil {
		var ce *lps.CompileError
		if !errors.As(err, &ce) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		line, col := ce.Span.LineCol(req.Source)
		s.logger.InfoContext(ctx, "compile failed", "stage", ce.Stage.String(), "error", ce.Err)
		writeJSON(w, http.StatusUnprocessableEntity, compileFailure{
			Error:  ce.Err.Error(),
			Stage:  ce.Stage.String(),
			Line:   line,
			Col:    col,
			Detail: ce.Format(req.Source),
		})
		return
	}
	s.cache.Put(id, prog)
	s.logger.InfoContext(ctx, "compiled", "returns", prog.ReturnType().String(), "opcodes", prog.OpcodeCount())
	writeJSON(w, http.StatusCreated, info(id, prog))
}

func (s *Server) program(w http.ResponseWriter, r *http.Request) (*compiler.Program, bool) {
	prog, ok := s.cache.Get(ProgramID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown program")
	}
	return prog, ok
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.program(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, info(ProgramID(r.PathValue("id")), prog))
}

// size reads the w and h query parameters, defaulting to the configured
// frame size.
func (s *Server) size(r *http.Request) (int, int, error) {
	width, height := s.opts.Width, s.opts.Height
	for key, dst := range map[string]*int{"w": &width, "h": &height} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1024 {
			return 0, 0, fmt.Errorf("invalid %s %q", key, v)
		}
		*dst = n
	}
	return width, height, nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	prog, ok := s.program(w, r)
	if !ok {
		return
	}
	width, height, err := s.size(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := 0.0
	if v := r.URL.Query().Get("t"); v != "" {
		if t, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid t %q", v))
			return
		}
	}

	machine, err := vm.New(prog, s.opts.Limits, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer machine.Close()
	img := vm.NewImage(width, height, prog.ReturnType())
	s.render(r.Context(), machine, img, fixed.FromFloat(t))

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(out.Pix, img.RGBA8())
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		s.logger.WarnContext(r.Context(), "encode png", "error", err)
	}
}

func (s *Server) render(ctx context.Context, machine *vm.VM, img *vm.Image, t fixed.Fixed) {
	failed, err := machine.Render(img, t, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "render", "failed_pixels", failed, "error", err)
	}
}
