// Package catalog ships the OCPP 2.1 message catalogue as embedded data.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/reoring/ocppskema/schema"
)

//go:embed ocpp21.yaml
var ocpp21 []byte

var (
	defaultOnce sync.Once
	defaultReg  *schema.Catalog
	defaultErr  error
)

// Default returns the process-wide OCPP 2.1 registry. It is built once and
// never mutated afterwards.
func Default() *schema.Catalog {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Load()
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultReg
}

// Load builds a fresh registry from the embedded catalogue plus extra types.
func Load(extra ...*schema.Type) (*schema.Catalog, error) {
	types, err := schema.LoadYAML(ocpp21)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return schema.NewRegistry(append(types, extra...)...)
}

// LoadFiles builds a registry from the embedded catalogue extended with the
// types declared in the given YAML files, e.g. vendor DataTransfer payloads.
func LoadFiles(paths ...string) (*schema.Catalog, error) {
	var extra []*schema.Type
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		types, err := schema.LoadYAML(data)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", p, err)
		}
		extra = append(extra, types...)
	}
	return Load(extra...)
}

// RequestType names the payload type of a request for action.
func RequestType(action string) string { return action + "Request" }

// ResponseType names the payload type of a response for action.
func ResponseType(action string) string { return action + "Response" }
