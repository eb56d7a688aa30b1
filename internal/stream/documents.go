// Package stream splits a token source carrying several top-level JSON
// values into individual document trees.
package stream

import (
	"github.com/reoring/ocppskema/document"
	eng "github.com/reoring/ocppskema/internal/engine"
)

// Documents decodes consecutive values from one token source. Enforcement
// state (duplicate keys, depth) is reset for every value; MaxBytes bounds the
// whole stream because offsets are absolute.
type Documents struct {
	inner eng.TokenSource
	opt   eng.EnforceOptions
	count int
	err   error
}

// NewDocuments returns a splitter over inner.
func NewDocuments(inner eng.TokenSource, opt eng.EnforceOptions) *Documents {
	return &Documents{inner: inner, opt: opt}
}

// Next decodes the next value. It returns io.EOF once the stream is exhausted
// between values. After any other error the splitter is stuck and keeps
// returning that error.
func (d *Documents) Next() (*document.Node, error) {
	if d.err != nil {
		return nil, d.err
	}
	first, err := d.inner.NextToken()
	if err != nil {
		d.err = err
		return nil, err
	}
	n, err := eng.DecodeNode(eng.WrapWithEnforcement(newSubtree(d.inner, first), d.opt))
	if err != nil {
		d.err = err
		return nil, err
	}
	d.count++
	return n, nil
}

// Count reports how many values have been decoded so far.
func (d *Documents) Count() int { return d.count }

// Location is the byte offset of the underlying source.
func (d *Documents) Location() int64 { return d.inner.Location() }
