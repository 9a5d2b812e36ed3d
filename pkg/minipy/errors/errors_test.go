package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestMiniPyError_String(t *testing.T) {
	tests := []struct {
		name     string
		err      *MiniPyError
		expected string
	}{
		{
			name:     "invalid character",
			err:      NewWithPosition("CHAR-0001", 3, 4, map[string]any{"Char": "$"}),
			expected: "InvalidCharacterError --> '$' at line 3.",
		},
		{
			name:     "invalid syntax",
			err:      NewSyntax("']'", 2, 7),
			expected: "InvalidSyntaxError at line 2, expected ']'.",
		},
		{
			name:     "keyword",
			err:      NewWithPosition("SYNTAX-0002", 1, 0, map[string]any{"Keyword": "while"}),
			expected: "InvalidSyntaxError at line 1, expected different syntax for keyword while.",
		},
		{
			name:     "runtime with name",
			err:      NewRunTime("RUN-0004", 5, map[string]any{"Name": "x"}),
			expected: "RunTimeError at line 5, 'x' is not defined.",
		},
		{
			name:     "runtime plain",
			err:      NewRunTime("RUN-0001", 9, nil),
			expected: "RunTimeError at line 9, index out of bounds.",
		},
		{
			name:     "default",
			err:      NewWithPosition("LEX-0001", 4, 2, nil),
			expected: "Error at line 4 --> unterminated string literal.",
		},
		{
			name:     "unknown code",
			err:      New("custom", map[string]any{"message": "disk on fire"}).WithPosition(1, 0),
			expected: "Error at line 1 --> disk on fire.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMiniPyError_Fatal(t *testing.T) {
	err := NewRunTime("RUN-0012", 2, nil)
	want := "RunTimeError at line 2, not string literal. Error encountered, program stopped."
	if got := err.Fatal(); got != want {
		t.Errorf("Fatal() = %q, want %q", got, want)
	}
}

func TestMiniPyError_PrettyString(t *testing.T) {
	err := NewRunTime("RUN-0004", 3, map[string]any{"Name": "y"}).WithFile("prog.py")
	got := err.PrettyString()
	for _, want := range []string{"Runtime error", "in: prog.py", "at: line 3", "'y' is not defined"} {
		if !strings.Contains(got, want) {
			t.Errorf("PrettyString() missing %q in:\n%s", want, got)
		}
	}
}

func TestMiniPyError_ToJSON(t *testing.T) {
	err := NewSyntax("'='", 6, 2).WithFile("a.py")
	data, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON() error: %v", jerr)
	}

	var decoded map[string]any
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if decoded["kind"] != "invalid-syntax" {
		t.Errorf("kind = %v, want invalid-syntax", decoded["kind"])
	}
	if decoded["code"] != "SYNTAX-0001" {
		t.Errorf("code = %v, want SYNTAX-0001", decoded["code"])
	}
	if decoded["file"] != "a.py" {
		t.Errorf("file = %v, want a.py", decoded["file"])
	}
}

func TestMiniPyError_As(t *testing.T) {
	var err error = NewRunTime("RUN-0008", 1, nil)
	var mpErr *MiniPyError
	if !stderrors.As(err, &mpErr) {
		t.Fatal("errors.As failed")
	}
	if !mpErr.IsRuntimeError() || mpErr.IsSyntaxError() {
		t.Errorf("predicates wrong for kind %s", mpErr.Kind)
	}
}

func TestErrorCatalog_RuntimeTemplatesParse(t *testing.T) {
	for code, def := range ErrorCatalog {
		err := New(code, map[string]any{"Name": "n", "Char": "c", "Expected": "e", "Keyword": "k"})
		if err.Kind != def.Kind {
			t.Errorf("%s: kind = %s, want %s", code, err.Kind, def.Kind)
		}
		if strings.Contains(err.Message, "{{") {
			t.Errorf("%s: template not rendered: %q", code, err.Message)
		}
	}
}

func TestRunTimeErrors_UniformSeparator(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"RUN-0011", "RunTimeError at line 4, unknown error, could not execute program."},
		{"RUN-0012", "RunTimeError at line 4, not string literal."},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := NewRunTime(tt.code, 4, nil).String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}

	for code, def := range ErrorCatalog {
		if def.Kind != KindRunTime {
			continue
		}
		got := NewRunTime(code, 1, map[string]any{"Name": "n"}).String()
		if !strings.HasPrefix(got, "RunTimeError at line 1, ") {
			t.Errorf("%s: got %q", code, got)
		}
	}
}
