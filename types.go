package ocppskema

// Severity expresses how a parse-level finding is treated.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "ignore"
}

// ParseSeverity accepts "ignore", "warn" and "error".
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "ignore":
		return Ignore, true
	case "warn":
		return Warn, true
	case "error":
		return Error, true
	}
	return 0, false
}

// Strictness configures enforcement of duplicate object keys.
type Strictness struct {
	OnDuplicateKey Severity
}

// ParseOpt bundles parsing options. Parsing is the only eager step: it
// produces the immutable document tree that cells are later bound to.
type ParseOpt struct {
	Strictness Strictness
	// MaxDepth limits container nesting; 0 disables the check.
	MaxDepth int
	// MaxBytes limits the input size; 0 disables the check.
	MaxBytes int64
	// OnIssue receives findings that do not abort parsing, such as
	// duplicate keys under Warn.
	OnIssue func(Diagnostic)
}

// DefaultMaxDepth is the nesting limit applied when no ParseOpt is given.
const DefaultMaxDepth = 64

// DefaultParseOpt rejects duplicate keys and limits nesting to
// DefaultMaxDepth.
func DefaultParseOpt() ParseOpt {
	return ParseOpt{
		Strictness: Strictness{OnDuplicateKey: Error},
		MaxDepth:   DefaultMaxDepth,
	}
}
