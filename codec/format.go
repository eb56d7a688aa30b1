package codec

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Checker validates a string against a named format.
type Checker func(s string) error

// Format names understood by the built-in checkers.
const (
	FormatNameDateTime = "date-time"
	FormatNameISO4217  = "iso4217"
	FormatNameURI      = "uri"
)

var (
	formatsMu sync.RWMutex
	formats   = map[string]Checker{
		FormatNameDateTime: func(s string) error { _, err := ParseDateTime(s); return err },
		FormatNameISO4217:  checkCurrency,
		FormatNameURI:      checkURI,
	}
)

// RegisterFormat installs or replaces a format checker. Registries consult
// the checker set when they are built, so register formats first.
func RegisterFormat(name string, c Checker) {
	if name == "" || c == nil {
		return
	}
	formatsMu.Lock()
	formats[name] = c
	formatsMu.Unlock()
}

// LookupFormat returns the checker registered under name.
func LookupFormat(name string) (Checker, bool) {
	formatsMu.RLock()
	c, ok := formats[name]
	formatsMu.RUnlock()
	return c, ok
}

// Formats lists registered format names in ascending order.
func Formats() []string {
	formatsMu.RLock()
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	formatsMu.RUnlock()
	sort.Strings(out)
	return out
}

// CheckFormat validates s against the named format. Unknown formats are an
// error.
func CheckFormat(name, s string) error {
	c, ok := LookupFormat(name)
	if !ok {
		return fmt.Errorf("codec: unknown format %q", name)
	}
	return c(s)
}

func checkURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("codec: invalid uri: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("codec: uri %q has no scheme", s)
	}
	return nil
}
