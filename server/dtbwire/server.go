package dtbwire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/engine"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/sql/executor"
)

type ServerConfig struct {
	Addr   string
	Path   string // database file every request runs against
	Format string // output format, see render.New
	Fs     afero.Fs
	Log    *slog.Logger
}

// Server runs every request against one database file. Requests from all
// connections are serialised; nothing guards the file against other
// processes.
type Server struct {
	cfg ServerConfig
	db  *engine.Database
	log *slog.Logger

	mu sync.Mutex
}

func NewServer(sc ServerConfig) (*Server, error) {
	if sc.Path == "" {
		return nil, errors.New("dtbwire: database path is required")
	}
	if _, err := render.New(sc.Format, nil); err != nil {
		return nil, err
	}
	if sc.Fs == nil {
		sc.Fs = afero.NewOsFs()
	}
	if sc.Log == nil {
		sc.Log = slog.Default()
	}
	db := engine.NewDatabase(engine.WithFs(sc.Fs), engine.WithLogger(sc.Log))
	db.Load(sc.Path)
	return &Server{cfg: sc, db: db, log: sc.Log}, nil
}

// Run listens on sc.Addr until ctx is done.
func Run(ctx context.Context, sc ServerConfig) error {
	s, err := NewServer(sc)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.log.Info("ditabase tcp server listening", "addr", ln.Addr().String(), "path", sc.Path)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept", "err", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	// No global deadline; you can set per-request deadline if needed.
	_ = conn.SetDeadline(time.Time{})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			// Client closed or bad frame.
			return
		}
		if err := WriteFrame(conn, s.Handle(req)); err != nil {
			s.log.Debug("write response", "remote", conn.RemoteAddr().String(), "err", err)
			return
		}
	}
}

// Handle runs one request.
func (s *Server) Handle(req ExecuteRequest) ExecuteResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := ExecuteResponse{ID: req.ID}
	switch req.Op {
	case "", OpExec:
	case OpTables:
		resp.Tables = s.db.Tables()
		return resp
	default:
		resp.Error = fmt.Sprintf("dtbwire: unknown op %q", req.Op)
		return resp
	}

	var buf bytes.Buffer
	out, _ := render.New(s.cfg.Format, &buf)
	ex := &executor.Executor{DB: s.db, Out: out, Fs: s.cfg.Fs, Log: s.log}

	s.log.Debug("exec request", "id", req.ID, "bytes", len(req.Source))
	res, err := ex.Exec(req.Source, s.cfg.Path)
	resp.Output = buf.String()
	resp.Result = res
	if err != nil {
		resp.Error = err.Error()
		if k := dberr.KindOf(err); k != 0 {
			resp.Kind = k.String()
		}
	}
	return resp
}
