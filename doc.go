// Package ocppskema decodes OCPP 2.1 JSON payloads into lazily materialized,
// memoizing cells and validates them against a registry of datatype
// descriptors.
//
// Parsing is the only eager step. Decode returns an unresolved Cell bound to
// the document root; each cell converts its node into a typed Value on first
// access, at most once, and caches the outcome. Validation comes in two
// modes, Shallow and Deep, each computed once per cell and returned as a
// Report that lists every finding rather than stopping at the first.
//
// Layout:
//
//   - schema: type descriptors, registry and YAML loader
//   - rules: field conditions and cross-field relations
//   - catalog: the embedded OCPP 2.1 datatype catalogue
//   - document: the immutable JSON tree
//   - codec: date-time parsing and string formats
//   - ocppj: OCPP-J message framing
//   - jsonschema: JSON Schema export of registered types
//
// Typical usage:
//
//	reg := catalog.Default()
//	cell, err := ocppskema.DecodeBytes(ctx, reg, "BootNotificationRequest", data)
//	if err != nil {
//		return err // parse failure
//	}
//	rep := cell.Validate(ocppskema.Shallow)
//	for _, d := range rep.Diagnostics() {
//		log.Println(d)
//	}
package ocppskema
