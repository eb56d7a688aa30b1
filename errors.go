package ocppskema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/reoring/ocppskema/i18n"
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

const (
	MaterializationFailed DiagnosticKind = iota
	TypeMismatch
	MissingRequiredField
	ConstraintViolation
	ConditionalRuleViolation
	UnknownEnumValue
)

func (k DiagnosticKind) String() string {
	switch k {
	case MaterializationFailed:
		return "MaterializationError"
	case TypeMismatch:
		return "TypeMismatch"
	case MissingRequiredField:
		return "MissingRequiredField"
	case ConstraintViolation:
		return "ConstraintViolation"
	case ConditionalRuleViolation:
		return "ConditionalRuleViolation"
	case UnknownEnumValue:
		return "UnknownEnumValue"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

// Diagnostic codes.
const (
	CodeInvalidType   = "invalid_type"
	CodeUnknownType   = "unknown_type"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidValue  = "invalid_value"
	CodeOverflow      = "overflow"
	CodeRequired      = "required"
	CodeRequiredIf    = "required_if"
	CodeUnknownKey    = "unknown_key"
	CodeInvalidEnum   = "invalid_enum"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodePattern       = "pattern"
	CodeParseError    = "parse_error"
	CodeDuplicateKey  = "duplicate_key"
	CodeTruncated     = "truncated"
)

// Diagnostic is a single soft validation finding. Rule-derived diagnostics
// carry the rule kind as Code and the rule name in Rule.
type Diagnostic struct {
	Path    string // JSON Pointer, e.g. /chargingProfile/chargingSchedule/0/id
	Kind    DiagnosticKind
	Code    string
	Message string
	// Raw is the offending input rendered as JSON, when there is one.
	Raw    string
	Params map[string]any
	Rule   string
	// Offset is the byte offset in the input for parse-level findings, -1 otherwise.
	Offset int64
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Code, d.Path, d.Message)
}

type diagnosticJSON struct {
	Path    string         `json:"path"`
	Kind    string         `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Rule    string         `json:"rule,omitempty"`
	Raw     string         `json:"raw,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Offset  *int64         `json:"offset,omitempty"`
}

// MarshalJSON renders the diagnostic with lower-case keys and the kind
// spelled out. Offset is omitted when unknown.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	dj := diagnosticJSON{
		Path:    d.Path,
		Kind:    d.Kind.String(),
		Code:    d.Code,
		Message: d.Message,
		Rule:    d.Rule,
		Raw:     d.Raw,
		Params:  d.Params,
	}
	if d.Offset >= 0 {
		off := d.Offset
		dj.Offset = &off
	}
	return json.Marshal(dj)
}

// Localized renders the diagnostic through the active i18n translator.
func (d Diagnostic) Localized() string {
	data := make(map[string]string, len(d.Params))
	for k, v := range d.Params {
		data[k] = fmt.Sprint(v)
	}
	return i18n.T(d.Code, data)
}

// Diagnostics is a collection of diagnostics that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(ds), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", ds[i].Code, ds[i].Path)
	}
	if len(ds) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(ds))
	}
	return b.String()
}

// AsDiagnostics extracts Diagnostics from an error using errors.As.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds, true
	}
	var me *MaterializationError
	if errors.As(err, &me) {
		return Diagnostics{me.Diagnostic()}, true
	}
	return nil, false
}

// SortByPath orders diagnostics by path, keeping traversal order within a
// path. Reports are already in traversal order; use this only for display.
func (ds Diagnostics) SortByPath() {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Path < ds[j].Path })
}

// MaterializationError reports that a cell's node could not be converted into
// its typed value. It is structural and scoped to one cell.
type MaterializationError struct {
	Path string
	// Kind is TypeMismatch when the node's shape is wrong and
	// MaterializationFailed when a primitive conversion failed.
	Kind     DiagnosticKind
	Code     string
	Expected string
	Got      string
	Raw      string
	Err      error
}

func (e *MaterializationError) Error() string {
	msg := fmt.Sprintf("ocppskema: %s at %s: expected %s, got %s", e.Code, pointerOrRoot(e.Path), e.Expected, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// Diagnostic converts the error into its diagnostic form.
func (e *MaterializationError) Diagnostic() Diagnostic {
	msg := fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return Diagnostic{
		Path:    pointerOrRoot(e.Path),
		Kind:    e.Kind,
		Code:    e.Code,
		Message: msg,
		Raw:     e.Raw,
		Params:  map[string]any{"expected": e.Expected, "got": e.Got},
		Offset:  -1,
	}
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
