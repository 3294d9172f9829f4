package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tuannm99/ditabase"
	"github.com/tuannm99/ditabase/dtbclient"
	"github.com/tuannm99/ditabase/internal/engine"
	"github.com/tuannm99/ditabase/internal/render"
	"github.com/tuannm99/ditabase/internal/shell"
	"github.com/tuannm99/ditabase/internal/sql/executor"
	"github.com/tuannm99/ditabase/server/dtbwire"
)

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [file.dtb]",
		Short: "Open an interactive shell on a database file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd, a.dbPath(args))
		},
	}
}

func (a *app) runShell(cmd *cobra.Command, path string) error {
	ex, err := a.newLocalExecer(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	return shell.Run(ctx, shell.Config{
		Prompt:      a.cfg.Shell.Prompt,
		HistoryFile: a.historyFile(),
		Banner:      fmt.Sprintf("Welcome to ditabase (%s). Type .help for commands.", path),
	}, ex, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (a *app) newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <input.ditabs> <output.dtb>",
		Short: "Run a script file against a database file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compile(cmd, args[0], args[1])
		},
	}
}

// compile runs the script in input against output. Unlike ExecFile it accepts
// any input file name, and output is used as given.
func (a *app) compile(cmd *cobra.Command, input, output string) error {
	src, err := afero.ReadFile(a.fs, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	out, err := render.New(a.cfg.Output.Format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	db := engine.NewDatabase(engine.WithFs(a.fs))
	ex := &executor.Executor{DB: db, Out: out, Fs: a.fs}
	if _, err := ex.Exec(string(src), output); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "File %s generated successfully!\n", output)
	return nil
}

func (a *app) newExecCmd() *cobra.Command {
	var (
		source string
		script string
	)
	c := &cobra.Command{
		Use:   "exec [file.dtb]",
		Short: "Run commands given inline or from a .ditabs script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (source == "") == (script == "") {
				return errors.New("exactly one of -c or -f is required")
			}
			db, err := a.open(a.dbPath(args), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if script != "" {
				_, err = db.ExecFile(script)
			} else {
				_, err = db.Exec(source)
			}
			return err
		},
	}
	c.Flags().StringVarP(&source, "command", "c", "", "commands to run")
	c.Flags().StringVarP(&script, "file", "f", "", "script file to run (.ditabs)")
	return c
}

func (a *app) newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve [file.dtb]",
		Short: "Serve a database file over TCP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return dtbwire.Run(ctx, dtbwire.ServerConfig{
				Addr:   a.addr(cmd),
				Path:   a.dbPath(args),
				Format: a.cfg.Output.Format,
				Fs:     a.fs,
				Log:    a.serverLogger(cmd.ErrOrStderr()),
			})
		},
	}
	c.Flags().String("addr", "", "listen address (default from config)")
	return c
}

func (a *app) newConnectCmd() *cobra.Command {
	var (
		timeout time.Duration
		source  string
	)
	c := &cobra.Command{
		Use:   "connect",
		Short: "Open a shell on a running ditabase server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.addr(cmd)
			cli, err := dtbclient.DialContext(cmd.Context(), addr, timeout)
			if err != nil {
				return fmt.Errorf("dial %s: %w", addr, err)
			}
			defer func() { _ = cli.Close() }()

			ex := &remoteExecer{c: cli}
			if strings.TrimSpace(source) != "" {
				out, err := ex.Exec(source)
				_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}

			return shell.Run(cmd.Context(), shell.Config{
				Prompt:      a.cfg.Shell.Prompt,
				HistoryFile: a.historyFile(),
				Banner:      "connected to " + addr,
			}, ex, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	c.Flags().String("addr", "", "server address (default from config)")
	c.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "dial timeout")
	c.Flags().StringVarP(&source, "command", "c", "", "run commands and exit")
	return c
}

// serverLogger is the default logger, or a debug-level one on w when
// server.debug is set.
func (a *app) serverLogger(w io.Writer) *slog.Logger {
	if !a.cfg.Server.Debug {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// addr returns --addr when set, else the configured server address.
func (a *app) addr(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		return f.Value.String()
	}
	return a.cfg.Server.Addr
}

// ---- shell adapters ----

// localExecer runs commands in process and captures what they print.
type localExecer struct {
	db  *ditabase.DB
	buf bytes.Buffer
}

func (a *app) newLocalExecer(path string) (*localExecer, error) {
	ex := &localExecer{}
	db, err := a.open(path, &ex.buf)
	if err != nil {
		return nil, err
	}
	ex.db = db
	return ex, nil
}

func (e *localExecer) Exec(source string) (string, error) {
	e.buf.Reset()
	_, err := e.db.Exec(source)
	return e.buf.String(), err
}

func (e *localExecer) Tables() []string { return e.db.Tables() }

type remoteExecer struct {
	c *dtbclient.Client
}

func (e *remoteExecer) Exec(source string) (string, error) {
	resp, err := e.c.Exec(source)
	if resp == nil {
		return "", err
	}
	return resp.Output, err
}

func (e *remoteExecer) Tables() []string {
	names, err := e.c.Tables(context.Background())
	if err != nil {
		return nil
	}
	return names
}
