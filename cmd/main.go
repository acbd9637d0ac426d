package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/concat"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/config"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/fsys"
	"github.com/chandra9080962103/Custom-KRAKEN2-Database-Construction-and-MAG-Integration-for-Enhanced-Metasub-data-Classification/internal/logging"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// flagKeys maps config keys to the flag that may override them. Flags are
// bound for whichever command is executing.
var flagKeys = map[string]string{
	"log_level":     "log-level",
	"log_file":      "log-file",
	"verbose":       "verbose",
	"suffixes":      "suffix",
	"on_read_error": "on-read-error",
	"sort_entries":  "sort",
	"parallel":      "parallel",
	"report":        "report",
}

// app carries what every subcommand needs once the config is loaded.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   *log.Logger
	closeLog func() error
	files    fsys.FS
	stdout   io.Writer
	stderr   io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:        viper.New(),
		logger:   logging.Discard(),
		closeLog: func() error { return nil },
		files:    fsys.OS{},
		stdout:   stdout,
		stderr:   stderr,
	}
}

// setup binds the executing command's flags, loads the config and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	for key, name := range flagKeys {
		if fl := cmd.Flags().Lookup(name); fl != nil {
			if err := a.v.BindPFlag(key, fl); err != nil {
				return err
			}
		}
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger, a.closeLog = logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: cfg.Verbose,
		File:    cfg.LogFile,
		Stderr:  a.stderr,
	})
	a.logger.Debug("loaded config", "config", a.v.ConfigFileUsed(), "log_level", cfg.LogLevel, "log_file", cfg.LogFile,
		"suffixes", cfg.Suffixes, "on_read_error", cfg.OnReadError, "sort_entries", cfg.SortEntries, "stages", len(cfg.Stages))
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "refcat",
		Short: "Concatenate RefSeq genome files into per-taxon and combined references",
		Long: `refcat builds the sequence input for a custom Kraken2 database.

Every .fna/.fa file of a taxon folder (archaea, fungi, bacteria) is appended,
line by line with trailing white space removed, to one combined file per
taxon. The combined files are then appended into a single master file.
Stages and paths come from refcat.json/.yaml/.toml; see "refcat init".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["config"] == "skip" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "path to a config file (default ./refcat.{json,yaml,toml} when present)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also append logs to this file")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(a), newConcatCmd(a), newStagesCmd(a), newInitCmd(a), newVersionCmd(a))
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		var cerr *concat.Error
		switch {
		case a.cfg != nil && errors.As(err, &cerr):
			a.logger.Error("refcat failed", "path", cerr.Path, "kind", cerr.Kind, "err", err)
		case a.cfg != nil:
			a.logger.Error("refcat failed", "err", err)
		default:
			fmt.Fprintf(stderr, "refcat: %v\n", err)
		}
	}
	_ = a.closeLog()

	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return 130
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
