package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sambeau/minipy/config"
	"github.com/sambeau/minipy/pkg/minipy/errors"
	"github.com/sambeau/minipy/pkg/minipy/journal"
	"github.com/sambeau/minipy/pkg/minipy/minipy"
	"github.com/sambeau/minipy/pkg/minipy/repl"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// exitCode asks main to exit with a specific status without printing
// anything more.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func main() {
	ctx := context.Background()
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	if err == nil {
		return
	}
	var code exitCode
	if stderrors.As(err, &code) {
		os.Exit(int(code))
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// run is the main entry point, designed for testability (Mat Ryer pattern).
// A nil stdin, or one attached to a terminal, is never read as a program.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	// Subcommands come before flag parsing
	if len(args) > 0 {
		switch args[0] {
		case "repl":
			return replCommand(args[1:], stdout, stderr, getenv)
		case "journal":
			return journalCommand(args[1:], stdout, stderr, getenv)
		}
	}

	flags := flag.NewFlagSet("minipy", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.String("config", "", "Path to config file")
		evalCode    = flags.String("e", "", "Run code string")
		check       = flags.Bool("check", false, "Check syntax without executing")
		tokens      = flags.Bool("tokens", false, "Trace tokens to stderr")
		tree        = flags.Bool("ast", false, "Trace parsed statements to stderr")
		watch       = flags.Bool("watch", false, "Re-run the script when it changes")
		useJournal  = flags.Bool("journal", false, "Record the run in the journal")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "minipy version %s\n", Version)
		return nil
	}

	cfg, err := loadConfig(*configPath, stderr, getenv)
	if err != nil {
		return err
	}

	// Apply CLI overrides
	if *tokens {
		cfg.Trace.Tokens = true
	}
	if *tree {
		cfg.Trace.AST = true
	}
	if *useJournal {
		cfg.Journal.Enabled = true
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	files := flags.Args()

	switch {
	case *evalCode != "":
		return runProgram("<string>", strings.NewReader(*evalCode), cfg, stdout, stderr)

	case *check:
		if len(files) == 0 {
			fmt.Fprintln(stdout, "minipy: no input file provided")
			return nil
		}
		return checkFiles(files, stdout)

	case len(files) > 0:
		filename := files[0]
		if !isScript(filename) {
			printCantOpen(stdout, filename)
			return nil
		}
		if *watch {
			return watchFile(ctx, filename, cfg, stdout, stderr)
		}
		return runFile(filename, cfg, stdout, stderr)

	case stdin != nil && !isTerminal(stdin):
		return runProgram("<stdin>", stdin, cfg, stdout, stderr)

	default:
		fmt.Fprintln(stdout, "minipy: no input file provided")
		return nil
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadConfig loads and validates the configuration, reporting warnings
// on stderr.
func loadConfig(path string, stderr io.Writer, getenv func(string) string) (*config.Config, error) {
	cfg, err := config.Load(path, getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, w := range config.Warnings(cfg) {
		fmt.Fprintf(stderr, "[WARN] %s\n", w)
	}
	return cfg, nil
}

// isScript reports whether path exists and is not a directory
func isScript(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func printCantOpen(stdout io.Writer, path string) {
	fmt.Fprintf(stdout, "minipy: can't open file '%s', no such file in directory\n", path)
}

func runFile(path string, cfg *config.Config, stdout, stderr io.Writer) error {
	if !isScript(path) {
		printCantOpen(stdout, path)
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		printCantOpen(stdout, path)
		return nil
	}
	defer f.Close()
	return runProgram(path, f, cfg, stdout, stderr)
}

// runProgram executes one program. A language error is printed to stdout
// and turned into exit status -1.
func runProgram(name string, r io.Reader, cfg *config.Config, stdout, stderr io.Writer) error {
	opts := []minipy.Option{
		minipy.WithLogger(minipy.WriterLogger(stdout)),
		minipy.WithFilename(name),
	}
	if cfg.Trace.Tokens || cfg.Trace.AST {
		opts = append(opts, minipy.WithTrace(stderr, cfg.Trace.Tokens, cfg.Trace.AST))
	}

	var (
		j     *journal.Journal
		runID int64
	)
	if cfg.Journal.Enabled {
		var err error
		j, err = openJournal(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "[WARN] journal disabled: %v\n", err)
		} else {
			defer j.Close()
			runID, err = j.BeginRun(name)
			if err != nil {
				fmt.Fprintf(stderr, "[WARN] journal disabled: %v\n", err)
				j = nil
			} else {
				opts = append(opts, minipy.WithObserver(j.Observer(runID, func(err error) {
					fmt.Fprintf(stderr, "[WARN] journal: %v\n", err)
				})))
			}
		}
	}

	runErr := minipy.New(opts...).Run(r)

	if j != nil {
		if err := j.FinishRun(runID, runErr); err != nil {
			fmt.Fprintf(stderr, "[WARN] journal: %v\n", err)
		}
	}

	return reportError(runErr, stdout)
}

// reportError prints a language error in its fatal form. Other errors are
// returned unchanged.
func reportError(err error, stdout io.Writer) error {
	if err == nil {
		return nil
	}
	var mpErr *errors.MiniPyError
	if stderrors.As(err, &mpErr) {
		fmt.Fprintln(stdout, mpErr.Fatal())
		return exitCode(-1)
	}
	return err
}

// checkFiles parses every file without running it. Only syntax errors
// fail the check; a file that can't be opened is reported and skipped,
// the same as a usage error.
func checkFiles(files []string, stdout io.Writer) error {
	failed := false
	for _, path := range files {
		if !isScript(path) {
			printCantOpen(stdout, path)
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			printCantOpen(stdout, path)
			continue
		}
		_, err = minipy.New(minipy.WithFilename(path)).Parse(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Fprintf(stdout, "%s: OK\n", path)
	}
	if failed {
		return exitCode(-1)
	}
	return nil
}

// journalDir is where the journal lives when journal.path is not set
func journalDir(cfg *config.Config) string {
	if cfg.BaseDir != "" {
		return filepath.Join(cfg.BaseDir, ".minipy")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "minipy")
	}
	return filepath.Join(os.TempDir(), "minipy")
}

func openJournal(cfg *config.Config) (*journal.Journal, error) {
	return journal.Open(journalDir(cfg), journal.Config{
		Path:        cfg.Journal.Path,
		MaxSize:     cfg.Journal.MaxBytes,
		TruncatePct: cfg.Journal.TruncatePct,
	})
}

func replCommand(args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("minipy repl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, stderr, getenv)
	if err != nil {
		return err
	}

	repl.Start(stdout, Version, repl.Options{
		Prompt:      cfg.REPL.Prompt,
		HistoryFile: cfg.REPL.History,
		Tokens:      cfg.Trace.Tokens,
		AST:         cfg.Trace.AST,
	})
	return nil
}

// journalCommand implements `minipy journal list|show|count|clear`
func journalCommand(args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("minipy journal", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to config file")
	limit := flags.Int("n", 20, "Number of runs to list")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath, stderr, getenv)
	if err != nil {
		return err
	}
	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer j.Close()

	sub := "list"
	if flags.NArg() > 0 {
		sub = flags.Arg(0)
	}

	switch sub {
	case "list":
		runs, err := j.Runs(*limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(stdout, "%4d  %-6s  %-20s  %3d lines  %s\n",
				r.ID, r.Status, r.File, r.Statements, humanize.Time(r.Started))
			if r.Error != "" {
				fmt.Fprintf(stdout, "      %s\n", r.Error)
			}
		}

	case "show":
		if flags.NArg() < 2 {
			return fmt.Errorf("journal show: run id required")
		}
		id, err := strconv.ParseInt(flags.Arg(1), 10, 64)
		if err != nil {
			return fmt.Errorf("journal show: invalid run id %q", flags.Arg(1))
		}
		entries, err := j.Statements(id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(stdout, "%4d  %s\n", e.Line, e.Source)
			for _, line := range strings.Split(strings.TrimSuffix(e.Output, "\n"), "\n") {
				if line != "" {
					fmt.Fprintf(stdout, "      > %s\n", line)
				}
			}
			if e.Error != "" {
				fmt.Fprintf(stdout, "      ! %s\n", e.Error)
			}
		}

	case "count":
		n, err := j.Count()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s runs (%s, %s)\n", humanize.Comma(int64(n)), j.Size(), j.Path())

	case "clear":
		if err := j.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Journal cleared")

	default:
		return fmt.Errorf("unknown journal command %q (list, show, count, clear)", sub)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `minipy - a line-by-line interpreter for a small Python subset

Usage:
  minipy [options] <file>
  minipy -e "code"
  minipy --check <file>...
  minipy repl
  minipy journal [list|show <id>|count|clear]

Options:
  --config PATH    Path to config file (default: auto-detect)
  -e CODE          Run a code string (lines separated by newlines)
  --check          Check syntax without executing
  --tokens         Trace tokens to stderr
  --ast            Trace parsed statements to stderr
  --watch          Re-run the script whenever it changes
  --journal        Record the run in the journal
  --version        Show version
  --help           Show this help

With no file, a program is read from stdin when it is not a terminal.

Config Resolution:
  1. --config flag
  2. MINIPY_CONFIG environment variable
  3. ./minipy.yaml
  4. ~/.config/minipy/minipy.yaml

`)
}
