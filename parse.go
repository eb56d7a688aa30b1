package ocppskema

import (
	"context"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	"github.com/reoring/ocppskema/document"
	eng "github.com/reoring/ocppskema/internal/engine"
)

// ParseDocument consumes exactly one JSON value from src and returns its
// immutable document tree. No schema is involved. Failures are returned as
// Diagnostics with code parse_error, duplicate_key or truncated.
func ParseDocument(ctx context.Context, src Source, opts ...ParseOpt) (*document.Node, error) {
	if src == nil {
		return nil, parseFailure(CodeParseError, "/", "nil source", -1)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opt := resolveOpt(opts)
	enforced := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   issueSink(opt.OnIssue),
	})
	n, err := eng.DecodeNode(enforced)
	if err != nil {
		return nil, toDiagnostics(err, src.Location())
	}
	return n, nil
}

// StreamDocument parses one JSON value from r. When MaxBytes is set the size
// cap is enforced before decoding.
func StreamDocument(ctx context.Context, r io.Reader, opts ...ParseOpt) (*document.Node, error) {
	opt := resolveOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, parseFailure(CodeParseError, "/", err.Error(), -1)
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, parseFailure(CodeTruncated, "/", "max bytes exceeded", opt.MaxBytes)
		}
		return ParseDocument(ctx, JSONBytes(data), opt)
	}
	return ParseDocument(ctx, JSONReader(r), opt)
}

func resolveOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return DefaultParseOpt()
	}
	return opts[len(opts)-1]
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	}
	return eng.DupIgnore
}

func issueSink(fn func(Diagnostic)) func(eng.SimpleIssue) {
	if fn == nil {
		return nil
	}
	return func(si eng.SimpleIssue) {
		fn(Diagnostic{Path: si.Path, Kind: MaterializationFailed, Code: si.Code, Message: si.Message, Offset: -1})
	}
}

func toDiagnostics(err error, offset int64) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return parseFailure(ie.Code, ie.Path, ie.Message, offset)
	}
	var se *j.SyntaxError
	if errors.As(err, &se) {
		return parseFailure(CodeParseError, "/", se.Error(), se.Offset)
	}
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return parseFailure(CodeParseError, "/", "unexpected end of input", offset)
	case errors.Is(err, eng.ErrTrailingData):
		return parseFailure(CodeParseError, "/", "trailing data after document", offset)
	}
	return parseFailure(CodeParseError, "/", err.Error(), offset)
}

func parseFailure(code, path, msg string, offset int64) Diagnostics {
	return Diagnostics{{
		Path:    pointerOrRoot(path),
		Kind:    MaterializationFailed,
		Code:    code,
		Message: msg,
		Offset:  offset,
	}}
}

// Decode parses src and binds the document root to the registered type
// typeID. Only parsing happens eagerly; the returned cell is unresolved.
func Decode(ctx context.Context, reg Registry, typeID string, src Source, opts ...ParseOpt) (*Cell, error) {
	if reg == nil {
		return nil, errors.New("ocppskema: nil registry")
	}
	if _, ok := reg.Lookup(typeID); !ok {
		return nil, fmt.Errorf("ocppskema: unknown type %q", typeID)
	}
	n, err := ParseDocument(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	return NewCell(reg, typeID, n)
}

// DecodeBytes is Decode over an in-memory JSON document.
func DecodeBytes(ctx context.Context, reg Registry, typeID string, data []byte, opts ...ParseOpt) (*Cell, error) {
	return Decode(ctx, reg, typeID, JSONBytes(data), opts...)
}

// DecodeReader is Decode over a stream, honoring MaxBytes before decoding.
func DecodeReader(ctx context.Context, reg Registry, typeID string, r io.Reader, opts ...ParseOpt) (*Cell, error) {
	if reg == nil {
		return nil, errors.New("ocppskema: nil registry")
	}
	n, err := StreamDocument(ctx, r, opts...)
	if err != nil {
		return nil, err
	}
	return NewCell(reg, typeID, n)
}
