// Package errors provides structured error types for the minipy language.
//
// Every lexical, syntax and runtime failure is a *MiniPyError. The Error
// method renders the one-line diagnostic the command prints before it
// stops; the remaining fields exist for tooling (JSON output, the
// journal, editor integrations).
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Kind categorizes errors. Each kind has its own diagnostic shape.
type Kind string

const (
	KindInvalidCharacter Kind = "invalid-character" // Unrecognized source character
	KindInvalidSyntax    Kind = "invalid-syntax"    // No grammar alternative matched
	KindRunTime          Kind = "runtime"           // Type, bounds or lookup failure
	KindDefault          Kind = "default"           // Anything else
)

// FatalSuffix is appended to a diagnostic when the run is aborted.
const FatalSuffix = "Error encountered, program stopped."

// MiniPyError represents any error raised while running a program.
type MiniPyError struct {
	Kind    Kind           `json:"kind"`           // Error category
	Code    string         `json:"code"`           // Catalog code (e.g., "RUN-0004")
	Message string         `json:"message"`        // Description without location
	Line    int            `json:"line"`           // 1-based line (0 if unknown)
	Column  int            `json:"column"`         // 0-based column (-1 if unknown)
	File    string         `json:"file,omitempty"` // File path (if known)
	Data    map[string]any `json:"data,omitempty"` // Template variables
}

// Error implements the error interface.
func (e *MiniPyError) Error() string {
	return e.String()
}

// String renders the diagnostic line for the error kind.
func (e *MiniPyError) String() string {
	switch e.Kind {
	case KindInvalidCharacter:
		return fmt.Sprintf("InvalidCharacterError --> '%s' at line %d.", e.Message, e.Line)
	case KindInvalidSyntax:
		return fmt.Sprintf("InvalidSyntaxError at line %d, expected %s.", e.Line, e.Message)
	case KindRunTime:
		// Same separator for every runtime code
		return fmt.Sprintf("RunTimeError at line %d, %s.", e.Line, e.Message)
	default:
		return fmt.Sprintf("Error at line %d --> %s.", e.Line, e.Message)
	}
}

// Fatal returns the diagnostic followed by the stop notice, as printed
// by the command when a run is aborted.
func (e *MiniPyError) Fatal() string {
	return e.String() + " " + FatalSuffix
}

// PrettyString returns a multi-line formatted string for display.
func (e *MiniPyError) PrettyString() string {
	var sb strings.Builder

	switch e.Kind {
	case KindInvalidCharacter:
		sb.WriteString("Invalid character")
	case KindInvalidSyntax:
		sb.WriteString("Syntax error")
	case KindRunTime:
		sb.WriteString("Runtime error")
	default:
		sb.WriteString("Error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d", e.Line))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d\n  ", e.Line))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)
	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *MiniPyError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *MiniPyError) WithFile(file string) *MiniPyError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *MiniPyError) WithPosition(line, column int) *MiniPyError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsSyntaxError returns true for errors raised before evaluation.
func (e *MiniPyError) IsSyntaxError() bool {
	return e.Kind == KindInvalidSyntax || e.Kind == KindInvalidCharacter
}

// IsRuntimeError returns true for errors raised by the evaluator.
func (e *MiniPyError) IsRuntimeError() bool {
	return e.Kind == KindRunTime
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Kind     Kind
	Template string // Message template with {{.placeholders}}
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Lexical errors
	"CHAR-0001": {Kind: KindInvalidCharacter, Template: "{{.Char}}"},
	"LEX-0001":  {Kind: KindDefault, Template: "unterminated string literal"},

	// Syntax errors. The template is the "expected ..." description.
	"SYNTAX-0001": {Kind: KindInvalidSyntax, Template: "{{.Expected}}"},
	"SYNTAX-0002": {Kind: KindInvalidSyntax, Template: "different syntax for keyword {{.Keyword}}"},
	"SYNTAX-0003": {Kind: KindInvalidSyntax, Template: "different syntax"},
	"SYNTAX-0004": {Kind: KindInvalidSyntax, Template: "end of line"},

	// Runtime errors
	"RUN-0001": {Kind: KindRunTime, Template: "index out of bounds"},
	"RUN-0002": {Kind: KindRunTime, Template: "could not execute code for list access"},
	"RUN-0003": {Kind: KindRunTime, Template: "invalid type"},
	"RUN-0004": {Kind: KindRunTime, Template: "'{{.Name}}' is not defined"},
	"RUN-0005": {Kind: KindRunTime, Template: "could not fetch '{{.Name}}' from symbol table"},
	"RUN-0006": {Kind: KindRunTime, Template: "failed to allocate data for '{{.Name}}' in symbol table"},
	"RUN-0007": {Kind: KindRunTime, Template: "this interpreter does not handle 2d lists"},
	"RUN-0008": {Kind: KindRunTime, Template: "invalid types"},
	"RUN-0009": {Kind: KindRunTime, Template: "expected list splice"},
	"RUN-0010": {Kind: KindRunTime, Template: "invalid type assignment"},
	"RUN-0011": {Kind: KindRunTime, Template: "unknown error, could not execute program"},
	"RUN-0012": {Kind: KindRunTime, Template: "not string literal"},
	"RUN-0013": {Kind: KindRunTime, Template: "'{{.Name}}' not defined"},
	"RUN-0014": {Kind: KindRunTime, Template: "lists may only contain ints or int variables, multiple dimensions are not supported"},
	"RUN-0015": {Kind: KindRunTime, Template: "integer overflow"},
}

// New creates an error from a catalog code.
func New(code string, data map[string]any) *MiniPyError {
	def, ok := ErrorCatalog[code]
	if !ok {
		// Unknown code - create a generic error
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &MiniPyError{
			Kind:    KindDefault,
			Code:    code,
			Message: msg,
			Column:  -1,
			Data:    data,
		}
	}

	return &MiniPyError{
		Kind:    def.Kind,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Column:  -1,
		Data:    data,
	}
}

// NewWithPosition creates an error from a catalog code at a source position.
func NewWithPosition(code string, line, column int, data map[string]any) *MiniPyError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSyntax creates an InvalidSyntax error whose description is expected.
func NewSyntax(expected string, line, column int) *MiniPyError {
	return NewWithPosition("SYNTAX-0001", line, column, map[string]any{"Expected": expected})
}

// NewRunTime creates a runtime error at line.
func NewRunTime(code string, line int, data map[string]any) *MiniPyError {
	return NewWithPosition(code, line, -1, data)
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}
