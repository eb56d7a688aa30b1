package engine

import (
	"errors"
	"io"

	"github.com/reoring/ocppskema/document"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrTrailingData is returned when a complete value is followed by more tokens.
var ErrTrailingData = errors.New("engine: trailing data after document")

// DecodeNode builds a document tree from the token source. It consumes
// exactly one value and rejects trailing tokens.
func DecodeNode(src TokenSource) (*document.Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	n, err := decodeValue(src, tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); err == nil {
		return nil, ErrTrailingData
	} else if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return n, nil
}

func decodeValue(src TokenSource, tok Token) (*document.Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return document.String(tok.String), nil
	case KindNumber:
		return document.Number(tok.Number), nil
	case KindBool:
		return document.Bool(tok.Bool), nil
	case KindNull:
		return document.Null(), nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func decodeObject(src TokenSource) (*document.Node, error) {
	var members []document.Member
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndObject {
			return document.Object(members...), nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		members = append(members, document.Member{Key: tok.String, Value: v})
	}
}

func decodeArray(src TokenSource) (*document.Node, error) {
	var items []*document.Node
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndArray {
			return document.Array(items...), nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func eofAsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
