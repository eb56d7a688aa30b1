package ocppskema

import (
	"strconv"
	"strings"
)

// Path is a JSON Pointer (RFC 6901) identifying a location in a document.
// The zero value is the document root.
type Path struct {
	p string
}

// RootPath returns the document root.
func RootPath() Path { return Path{} }

// ParsePath parses a JSON Pointer. "" and "/" both denote the root; a
// missing leading slash is tolerated.
func ParsePath(s string) Path {
	switch {
	case s == "" || s == "/":
		return Path{}
	case s[0] != '/':
		return Path{p: "/" + s}
	}
	return Path{p: s}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")
var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// Field appends an object member name.
func (p Path) Field(name string) Path {
	return Path{p: p.p + "/" + pointerEscaper.Replace(name)}
}

// Index appends an array index.
func (p Path) Index(i int) Path {
	return Path{p: p.p + "/" + strconv.Itoa(i)}
}

// IsRoot reports whether p is the document root.
func (p Path) IsRoot() bool { return p.p == "" }

// Pointer renders p. The root renders as "/".
func (p Path) Pointer() string {
	if p.p == "" {
		return "/"
	}
	return p.p
}

func (p Path) String() string { return p.Pointer() }

// Segments returns the unescaped reference tokens of p.
func (p Path) Segments() []string {
	if p.p == "" {
		return nil
	}
	parts := strings.Split(p.p[1:], "/")
	for i, s := range parts {
		parts[i] = pointerUnescaper.Replace(s)
	}
	return parts
}
