package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sambeau/minipy/pkg/minipy/minipy"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalCreate(t *testing.T) {
	tmpDir := t.TempDir()

	j, err := Open(tmpDir, DefaultConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	expectedPath := filepath.Join(tmpDir, "journal.db")
	if j.Path() != expectedPath {
		t.Errorf("expected path %s, got %s", expectedPath, j.Path())
	}
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestJournalCreateWithCustomPath(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Path = "state/runs.db"
	j, err := Open(tmpDir, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	expectedPath := filepath.Join(tmpDir, "state", "runs.db")
	if j.Path() != expectedPath {
		t.Errorf("expected path %s, got %s", expectedPath, j.Path())
	}
}

func TestJournalRecordRun(t *testing.T) {
	j := openTestJournal(t)

	id, err := j.BeginRun("prog.py")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	in := minipy.New(
		minipy.WithLogger(minipy.NullLogger()),
		minipy.WithFilename("prog.py"),
		minipy.WithObserver(j.Observer(id, func(err error) { t.Errorf("record: %v", err) })),
	)
	runErr := in.Run(strings.NewReader("x = [1,2]\nprint(x)\nprint(y)\n"))
	if runErr == nil {
		t.Fatal("expected a run error")
	}
	if err := j.FinishRun(id, runErr); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := j.Runs(10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.File != "prog.py" || run.Status != StatusError || run.Statements != 3 {
		t.Errorf("run = %+v", run)
	}
	if run.Error != "RunTimeError at line 3, 'y' is not defined." {
		t.Errorf("run error = %q", run.Error)
	}

	entries, err := j.Statements(id)
	if err != nil {
		t.Fatalf("Statements: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].Source != "print(x)" || entries[1].Output != "[1, 2]\n" || entries[1].Line != 2 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[2].ErrorKind != "runtime" || entries[2].Error == "" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
	if entries[0].Error != "" {
		t.Errorf("entry 0 should have no error, got %q", entries[0].Error)
	}
}

func TestJournalRunsNewestFirst(t *testing.T) {
	j := openTestJournal(t)

	for _, f := range []string{"a.py", "b.py", "c.py"} {
		id, err := j.BeginRun(f)
		if err != nil {
			t.Fatal(err)
		}
		if err := j.FinishRun(id, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := j.Runs(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].File != "c.py" || runs[1].File != "b.py" {
		t.Errorf("runs = %s, %s", runs[0].File, runs[1].File)
	}
	if runs[0].Status != StatusOK {
		t.Errorf("status = %q, want %q", runs[0].Status, StatusOK)
	}
	if runs[0].Started.IsZero() {
		t.Error("expected a start time")
	}
}

func TestJournalClearAndCount(t *testing.T) {
	j := openTestJournal(t)

	for i := 0; i < 3; i++ {
		id, err := j.BeginRun("x.py")
		if err != nil {
			t.Fatal(err)
		}
		if err := j.Record(id, Entry{Line: 1, Source: "print(1)", Output: "1\n"}); err != nil {
			t.Fatal(err)
		}
	}

	count, err := j.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	if err := j.Clear(); err != nil {
		t.Fatal(err)
	}
	count, err = j.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Count() after Clear = %d, want 0", count)
	}
}

func TestJournalAutoTruncate(t *testing.T) {
	cfg := Config{MaxSize: 1, TruncatePct: 50}
	j, err := Open(t.TempDir(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	// The file is always larger than one byte, so each new run
	// truncates half of the existing ones first.
	for i := 0; i < 4; i++ {
		if _, err := j.BeginRun("loop.py"); err != nil {
			t.Fatal(err)
		}
	}

	count, err := j.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count >= 4 {
		t.Errorf("Count() = %d, expected truncation to remove runs", count)
	}
}

func TestJournalSize(t *testing.T) {
	j := openTestJournal(t)
	if s := j.Size(); !strings.HasSuffix(s, "B") {
		t.Errorf("Size() = %q", s)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, ts := range []string{"2026-01-02 15:04:05", "2026-01-02T15:04:05Z", "2026-01-02T15:04:05+01:00"} {
		if parseTimestamp(ts).IsZero() {
			t.Errorf("parseTimestamp(%q) returned zero time", ts)
		}
	}
	if !parseTimestamp("").IsZero() {
		t.Error("empty timestamp should give zero time")
	}
}
