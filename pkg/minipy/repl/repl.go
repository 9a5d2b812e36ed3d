// Package repl implements the interactive minipy shell.
package repl

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/minipy/pkg/minipy/errors"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
	"github.com/sambeau/minipy/pkg/minipy/minipy"
)

const PROMPT = ">>> "

const LOGO = `
█▀▄▀█ █ █▄░█ █ █▀█ █▄█
█░▀░█ █ █░▀█ █ █▀▀ ░█░ `

// Options configures the shell
type Options struct {
	Prompt      string // default PROMPT
	HistoryFile string // default .minipy_history in the temp dir
	Tokens      bool   // start with token tracing on
	AST         bool   // start with AST tracing on
}

// session is one REPL run; it owns the interpreter and the line counter
type session struct {
	interp     *minipy.Interpreter
	out        io.Writer
	lineNum    int
	showTokens bool
	showAST    bool
}

func newSession(out io.Writer, opts Options) *session {
	s := &session{
		interp:     minipy.New(minipy.WithLogger(minipy.WriterLogger(out)), minipy.WithFilename("<stdin>")),
		out:        out,
		showTokens: opts.Tokens,
		showAST:    opts.AST,
	}
	s.interp.SetTrace(out, s.showTokens, s.showAST)
	return s
}

// Start starts the REPL with line editing, history, and tab completion
func Start(out io.Writer, version string, opts Options) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	s := newSession(out, opts)

	line.SetCompleter(func(input string) []string {
		return filterCompletions(input, completionWords(s.interp))
	})

	historyFile := opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".minipy_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	prompt := opts.Prompt
	if prompt == "" {
		prompt = PROMPT
	}

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.handle(input) {
			return
		}
	}
}

// handle processes one line of input. It returns true when the user asked
// to leave.
func (s *session) handle(input string) bool {
	trimmed := strings.TrimSpace(input)

	switch {
	case trimmed == "exit" || trimmed == "quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	case strings.HasPrefix(trimmed, ":"):
		s.command(trimmed)
		return false
	case trimmed == "":
		return false
	}

	s.lineNum++
	if err := s.interp.ExecLine(input, s.lineNum, false); err != nil {
		printError(s.out, err)
	}
	return false
}

// command handles REPL meta-commands that start with ':'
func (s *session) command(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show variables in scope")
		fmt.Fprintln(s.out, "  :clear          Clear all variables")
		fmt.Fprintln(s.out, "  :tokens         Toggle token tracing")
		fmt.Fprintln(s.out, "  :ast            Toggle AST tracing")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")

	case ":env":
		printEnvironment(s.interp, s.out)

	case ":clear":
		s.interp.Reset()
		s.lineNum = 0
		fmt.Fprintln(s.out, "Environment cleared")

	case ":tokens":
		s.showTokens = !s.showTokens
		s.interp.SetTrace(s.out, s.showTokens, s.showAST)
		fmt.Fprintf(s.out, "Token tracing %s\n", onOff(s.showTokens))

	case ":ast":
		s.showAST = !s.showAST
		s.interp.SetTrace(s.out, s.showTokens, s.showAST)
		fmt.Fprintf(s.out, "AST tracing %s\n", onOff(s.showAST))

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// printEnvironment displays all variables, sorted by name
func printEnvironment(interp *minipy.Interpreter, out io.Writer) {
	env := interp.Env()
	names := env.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no variables)")
		return
	}

	for _, name := range names {
		v, _ := env.Get(name)
		value := v.Inspect()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(out, "  %s: %s = %s\n", name, v.Kind, value)
	}
}

// completionWords returns keywords followed by the current variable names
func completionWords(interp *minipy.Interpreter) []string {
	return append(lexer.Keywords(), interp.Env().Names()...)
}

// filterCompletions returns the input with its last word completed, once
// per matching word
func filterCompletions(line string, words []string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	// Don't complete if line ends with whitespace (including tabs from pasting)
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	// The word being typed starts after the last non-identifier byte
	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	prefix, partial := line[:start], line[start:]
	if partial == "" {
		return nil
	}

	var matches []string
	for _, word := range words {
		if strings.HasPrefix(word, partial) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

func isWordByte(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}

// printError prints a language error with structured formatting
func printError(out io.Writer, err error) {
	var mpErr *errors.MiniPyError
	if stderrors.As(err, &mpErr) {
		io.WriteString(out, mpErr.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
