package stream

import (
	"io"

	eng "github.com/reoring/ocppskema/internal/engine"
)

// subtree exposes exactly one value from a shared token source. The first
// token has already been read by the caller and is replayed before the rest
// of the value is pulled from inner. Once the value is complete it reports
// io.EOF without touching inner again.
type subtree struct {
	inner eng.TokenSource
	first *eng.Token
	depth int
	done  bool
}

func newSubtree(inner eng.TokenSource, first eng.Token) *subtree {
	return &subtree{inner: inner, first: &first}
}

func (s *subtree) NextToken() (eng.Token, error) {
	if s.done {
		return eng.Token{}, io.EOF
	}
	var tok eng.Token
	if s.first != nil {
		tok, s.first = *s.first, nil
	} else {
		t, err := s.inner.NextToken()
		if err != nil {
			return eng.Token{}, err
		}
		tok = t
	}
	switch tok.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		s.depth++
	case eng.KindEndObject, eng.KindEndArray:
		if s.depth > 0 {
			s.depth--
		}
	}
	if s.depth == 0 {
		s.done = true
	}
	return tok, nil
}

func (s *subtree) Location() int64 { return s.inner.Location() }
