package ocppskema

import (
	"context"

	"github.com/reoring/ocppskema/schema"
)

// Registry resolves type ids to descriptors. It is satisfied by
// *schema.Catalog.
type Registry = schema.Registry

// Check decodes data as typeID and validates it in the given mode. Parse
// failures are returned as the error; validation findings are in the report.
func Check(ctx context.Context, reg Registry, typeID string, data []byte, mode Mode, opts ...ParseOpt) (*Cell, *Report, error) {
	c, err := DecodeBytes(ctx, reg, typeID, data, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Validate(mode), nil
}

// Reencode decodes data as typeID and renders it back. Documents that fail
// to materialize are rejected with the MaterializationError.
func Reencode(ctx context.Context, reg Registry, typeID string, data []byte, opts ...ParseOpt) ([]byte, error) {
	c, err := DecodeBytes(ctx, reg, typeID, data, opts...)
	if err != nil {
		return nil, err
	}
	return c.Encode()
}
