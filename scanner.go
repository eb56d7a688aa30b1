package ocppskema

import (
	"context"
	"errors"
	"io"

	"github.com/reoring/ocppskema/document"
	eng "github.com/reoring/ocppskema/internal/engine"
	"github.com/reoring/ocppskema/internal/stream"
)

// DocumentScanner reads consecutive JSON documents from one stream, such as
// a newline-delimited capture of OCPP-J frames. Each document is parsed with
// the same enforcement options as ParseDocument.
type DocumentScanner struct {
	src  Source
	docs *stream.Documents
}

// NewDocumentScanner returns a scanner over r.
func NewDocumentScanner(r io.Reader, opts ...ParseOpt) *DocumentScanner {
	opt := resolveOpt(opts)
	src := JSONReader(r)
	return &DocumentScanner{
		src: src,
		docs: stream.NewDocuments(engineTokenSource(src), eng.EnforceOptions{
			OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
			MaxDepth:    opt.MaxDepth,
			MaxBytes:    opt.MaxBytes,
			IssueSink:   issueSink(opt.OnIssue),
		}),
	}
}

// Next returns the next document. It returns io.EOF when the stream ends
// cleanly between documents; parse failures are Diagnostics and end the scan.
func (s *DocumentScanner) Next(ctx context.Context) (*document.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := s.docs.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, toDiagnostics(err, s.src.Location())
	}
	return n, nil
}

// Count reports how many documents have been returned.
func (s *DocumentScanner) Count() int { return s.docs.Count() }
