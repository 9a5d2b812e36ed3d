package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

// runCLI runs the command with an isolated home directory
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := run(context.Background(), args, stdin, stdout, stderr, noEnv)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "--version")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "minipy version") {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestRunHelp(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "--help")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, want := range []string{"minipy - a line-by-line interpreter", "--config", "--watch", "journal"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in help, got %q", want, stdout)
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if _, _, err := runCLI(t, nil, "--invalid-flag"); err == nil {
		t.Error("expected error for invalid flag")
	}
}

func TestRunMissingConfig(t *testing.T) {
	_, _, err := runCLI(t, nil, "--config", "/nonexistent/config.yaml", "x.py")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected 'config file not found' error, got %q", err.Error())
	}
}

func TestRunNoInput(t *testing.T) {
	stdout, _, err := runCLI(t, nil)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if stdout != "minipy: no input file provided\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunMissingFile(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "nope.py")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if stdout != "minipy: can't open file 'nope.py', no such file in directory\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, nil, dir)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if stdout != "minipy: can't open file '"+dir+"', no such file in directory\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prog.py", "x = [1, 2, 3]\nx[0] = 9\nprint(\"x\", x)\nprint(x[1:])\n")

	stdout, _, err := runCLI(t, nil, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "x [9, 2, 3]\n[2, 3]\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunLanguageError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.py", "a = 1\nprint(a)\nprint(b)\nprint(a)\n")

	stdout, _, err := runCLI(t, nil, path)
	var code exitCode
	if !stderrors.As(err, &code) || code != -1 {
		t.Fatalf("expected exit code -1, got %v", err)
	}
	expected := "1\nRunTimeError at line 3, 'b' is not defined. Error encountered, program stopped.\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestRunEval(t *testing.T) {
	stdout, _, err := runCLI(t, nil, "-e", "a = 2\nb = a + 3\nprint(b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "5\n" {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = runCLI(t, nil, "-e", "x = 1 $ 2")
	if err == nil {
		t.Fatal("expected an error")
	}
	if stdout != "InvalidCharacterError --> '$' at line 1. Error encountered, program stopped.\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunStdin(t *testing.T) {
	stdout, _, err := runCLI(t, strings.NewReader("x = [4]\ny = x + x\nprint(y)\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "[4, 4]\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.py", "x = [a, b]\nprint(x)\n")
	bad := writeFile(t, dir, "bad.py", "print(1\n")

	stdout, _, err := runCLI(t, nil, "--check", good)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if stdout != good+": OK\n" {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, err = runCLI(t, nil, "--check", good, bad)
	if err == nil {
		t.Error("expected an error for a bad file")
	}
	if !strings.Contains(stdout, bad+": InvalidSyntaxError at line 1") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunCheckMissingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.py", "print(1)\n")
	missing := filepath.Join(dir, "missing.py")

	stdout, _, err := runCLI(t, nil, "--check", missing, dir, good)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	expected := "minipy: can't open file '" + missing + "', no such file in directory\n" +
		"minipy: can't open file '" + dir + "', no such file in directory\n" +
		good + ": OK\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestRunTrace(t *testing.T) {
	stdout, stderr, err := runCLI(t, nil, "--tokens", "--ast", "-e", "print(7)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "7\n" {
		t.Errorf("stdout = %q", stdout)
	}
	expected := "{ KEYWORD: print (pos: 0) } { OPEN_PAREN } { INT: 7 } { CLOSED_PAREN } { ENDLINE } \n" +
		"PRINT:{NUMBER:{7}}\n"
	if stderr != expected {
		t.Errorf("stderr = %q, want %q", stderr, expected)
	}
}

func TestJournalFlow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "minipy.yaml", "journal:\n  path: runs.db\n")
	prog := writeFile(t, dir, "prog.py", "x = 1\nprint(x)\nprint(y)\n")

	stdout, _, err := runCLI(t, nil, "--config", cfgPath, "--journal", prog)
	if err == nil {
		t.Fatal("expected the run to fail on line 3")
	}
	if !strings.HasPrefix(stdout, "1\n") {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "runs.db")); err != nil {
		t.Fatalf("journal database not created: %v", err)
	}

	stdout, _, err = runCLI(t, nil, "journal", "--config", cfgPath, "list")
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if !strings.Contains(stdout, "error") || !strings.Contains(stdout, "'y' is not defined") {
		t.Errorf("journal list = %q", stdout)
	}

	stdout, _, err = runCLI(t, nil, "journal", "--config", cfgPath, "show", "1")
	if err != nil {
		t.Fatalf("journal show: %v", err)
	}
	if !strings.Contains(stdout, "print(x)") || !strings.Contains(stdout, "> 1") {
		t.Errorf("journal show = %q", stdout)
	}

	stdout, _, err = runCLI(t, nil, "journal", "--config", cfgPath, "count")
	if err != nil {
		t.Fatalf("journal count: %v", err)
	}
	if !strings.HasPrefix(stdout, "1 runs") {
		t.Errorf("journal count = %q", stdout)
	}

	if _, _, err := runCLI(t, nil, "journal", "--config", cfgPath, "clear"); err != nil {
		t.Fatalf("journal clear: %v", err)
	}
	stdout, _, _ = runCLI(t, nil, "journal", "--config", cfgPath, "list")
	if stdout != "(no runs)\n" {
		t.Errorf("journal list after clear = %q", stdout)
	}

	if _, _, err := runCLI(t, nil, "journal", "--config", cfgPath, "bogus"); err == nil {
		t.Error("expected an error for an unknown journal command")
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent use
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, buf.String())
}

func TestWatchReruns(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.py", "print(1)\n")

	var runs int
	var mu sync.Mutex
	stderr := &syncBuffer{}
	w, err := newScriptWatcher(path, 10*time.Millisecond, func() {
		mu.Lock()
		runs++
		mu.Unlock()
	}, stderr)
	if err != nil {
		t.Fatalf("newScriptWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Loop(ctx) }()

	waitFor(t, stderr, "[WATCH] watching")

	// Unrelated files in the same directory are ignored
	writeFile(t, dir, "other.py", "print(2)\n")
	writeFile(t, dir, "w.py", "print(3)\n")
	waitFor(t, stderr, "[WATCH] changed:")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Loop returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if runs < 2 {
		t.Errorf("runs = %d, want at least 2", runs)
	}
}
