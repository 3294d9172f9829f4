// Package shell is the interactive prompt on top of an Execer.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
)

// Execer runs one command and returns what it printed.
type Execer interface {
	Exec(source string) (string, error)
}

// Tabler is implemented by execers that can list tables for .tables and
// completion.
type Tabler interface {
	Tables() []string
}

type Config struct {
	Prompt      string
	HistoryFile string
	// Banner is printed once before the first prompt.
	Banner string
}

const contPrompt = "     ...> "

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var keywords = []string{
	"NEW TABLE", "ADD ITEM", "DELETE ITEM", "DELETE TABLE", "REMOVE TABLE",
	"PRINT TABLE", "PRINT ITEM", "CHANGE VALUE OF",
}

// session holds the state of one prompt loop; it does no terminal I/O itself
// so it can be driven from tests.
type session struct {
	ex     Execer
	out    io.Writer
	errOut io.Writer
	batch  Batcher
}

// handle processes one input line and reports whether the shell should exit.
func (s *session) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !s.batch.Pending() {
		switch trimmed {
		case "":
			return false
		case "exit", "quit", ".exit", ".quit":
			return true
		case ".help":
			s.help()
			return false
		case ".tables":
			s.tables()
			return false
		}
	}

	cmd, ready := s.batch.Feed(line)
	if !ready {
		return false
	}

	output, err := s.ex.Exec(cmd)
	if output != "" {
		_, _ = io.WriteString(s.out, output)
	}
	if err != nil {
		s.printError(err)
	}
	return false
}

func (s *session) printError(err error) {
	_, _ = fmt.Fprintln(s.errOut, errorStyle.Render("Error: "+err.Error()))
}

func (s *session) help() {
	_, _ = fmt.Fprint(s.out, `commands:
  NEW TABLE [IF EXISTS IS FALSE] { [UNIC] [MAIN] TYPE col, ... } name;
  ADD ITEM { col="v", ... } TO TABLE name;
  DELETE ITEM { col="v", ... } FROM TABLE name;
  DELETE TABLE name;  REMOVE TABLE name;
  PRINT TABLE name;
  PRINT ITEM col WHERE col="v" FROM TABLE name;
  CHANGE VALUE OF col="old" TO "new" FROM TABLE name [WHERE col="v"];

meta commands:
  .tables              list tables
  .help                show help
  exit | quit          leave the shell

a command may span lines; it runs once braces are closed and it ends with ';'
`)
}

func (s *session) tables() {
	t, ok := s.ex.(Tabler)
	if !ok {
		_, _ = fmt.Fprintln(s.out, mutedStyle.Render("table listing not supported"))
		return
	}
	names := t.Tables()
	if len(names) == 0 {
		_, _ = fmt.Fprintln(s.out, mutedStyle.Render("(no tables)"))
		return
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, n := range sorted {
		_, _ = fmt.Fprintln(s.out, n)
	}
}

func completer(ex Execer) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	}
	for _, k := range keywords {
		items = append(items, readline.PcItem(k))
	}
	if t, ok := ex.(Tabler); ok {
		var names []readline.PrefixCompleterInterface
		for _, n := range t.Tables() {
			names = append(names, readline.PcItem(n))
		}
		items = append(items, readline.PcItem("PRINT TABLE", names...))
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until exit, EOF or ctx is done.
func Run(ctx context.Context, cfg Config, ex Execer, out, errOut io.Writer) error {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "ditabase> "
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer(ex),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
		Stderr:          errOut,
	})
	if err != nil {
		return fmt.Errorf("shell: init readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	if cfg.Banner != "" {
		_, _ = fmt.Fprintln(out, cfg.Banner)
	}

	s := &session{ex: ex, out: out, errOut: errOut}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C drops a partial command
			s.batch.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if s.handle(line) {
			return nil
		}
		if s.batch.Pending() {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}
	}
}
