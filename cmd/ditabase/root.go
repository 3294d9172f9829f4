package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tuannm99/ditabase"
	"github.com/tuannm99/ditabase/internal"
)

// Version is set at build time.
var Version = "0.1.0"

// app is the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *internal.DitabaseConfig
	fs      afero.Fs
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), fs: afero.NewOsFs()}

	root := &cobra.Command{
		Use:   "ditabase [file.dtb | input.ditabs output.dtb]",
		Short: "ditabase - a small file database with its own command language",
		Long: `ditabase stores tables in a single .dtb file and is driven by a small
command language (NEW TABLE, ADD ITEM, PRINT TABLE, ...).

  ditabase data.dtb                 open an interactive shell on data.dtb
  ditabase setup.ditabs data.dtb    run a script against data.dtb`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return cmd.Help()
			case 1:
				return a.runShell(cmd, ditabase.NormalizePath(args[0]))
			default:
				return a.compile(cmd, args[0], args[1])
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("format", "text", "output format for PRINT (text|pretty)")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	bindFlags(a.v, pf, map[string]string{
		"output.format": "format",
		"log.level":     "log-level",
	})

	_ = root.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "pretty"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		a.newShellCmd(),
		a.newCompileCmd(),
		a.newExecCmd(),
		a.newServeCmd(),
		a.newConnectCmd(),
		newVersionCmd(),
	)
	return root
}

// bindFlags binds config keys to flags of fs, so a flag set on the command
// line wins over file and env values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := internal.LoadConfigWith(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))
	return nil
}

// dbPath picks the database file: the argument if given, else the configured
// default, normalised to the configured extension.
func (a *app) dbPath(args []string) string {
	p := a.cfg.Storage.Path
	if len(args) > 0 {
		p = args[0]
	}
	ext := a.cfg.Storage.Extension
	if ext != "" && !strings.HasSuffix(p, ext) {
		p += ext
	}
	return p
}

func (a *app) open(path string, out io.Writer) (*ditabase.DB, error) {
	return ditabase.Open(path,
		ditabase.WithFs(a.fs),
		ditabase.WithOutput(out),
		ditabase.WithFormat(a.cfg.Output.Format),
	)
}

func (a *app) historyFile() string {
	if a.cfg.Shell.HistoryFile != "" {
		return a.cfg.Shell.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ditabase_history"
	}
	return filepath.Join(home, ".ditabase_history")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ditabase %s\n", Version)
		},
	}
}
