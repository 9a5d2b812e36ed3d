package config

import "time"

// Config represents the complete minipy configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Trace   TraceConfig   `yaml:"trace"`
	Journal JournalConfig `yaml:"journal"`
	REPL    REPLConfig    `yaml:"repl"`
	Watch   WatchConfig   `yaml:"watch"`
}

// TraceConfig selects debug output written to stderr for every line
type TraceConfig struct {
	Tokens bool `yaml:"tokens"` // print the token stream
	AST    bool `yaml:"ast"`    // print the parsed statement
}

// JournalConfig holds run journal settings
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`         // SQLite file (default: .minipy/journal.db next to the config)
	MaxSize     string `yaml:"max_size"`     // e.g. "10MB", "512 KiB"
	TruncatePct int    `yaml:"truncate_pct"` // runs to drop when max_size is reached
	MaxBytes    int64  `yaml:"-"`            // MaxSize parsed at load time
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	Prompt  string `yaml:"prompt"`
	History string `yaml:"history"` // history file (default: .minipy_history in the temp dir)
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Journal: JournalConfig{
			Enabled:     false,
			MaxSize:     "10MB",
			TruncatePct: 25,
			MaxBytes:    10 * 1000 * 1000,
		},
		REPL: REPLConfig{
			Prompt: ">>> ",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}
