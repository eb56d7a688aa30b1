// Package middleware decodes and validates OCPP JSON request bodies for
// net/http handlers, chi routers included.
package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reoring/ocppskema"
)

type ctxKeyCell struct{}

// ContextWithCell attaches a decoded cell to ctx.
func ContextWithCell(ctx context.Context, c *ocppskema.Cell) context.Context {
	return context.WithValue(ctx, ctxKeyCell{}, c)
}

// CellFromContext returns the cell stored by Decode or Validate.
func CellFromContext(ctx context.Context) (*ocppskema.Cell, bool) {
	c, ok := ctx.Value(ctxKeyCell{}).(*ocppskema.Cell)
	return c, ok
}

// TypeFunc picks the payload type of a request. An empty result is answered
// with 404.
type TypeFunc func(*http.Request) string

// StaticType always returns typeID.
func StaticType(typeID string) TypeFunc {
	return func(*http.Request) string { return typeID }
}

// Options configures Decode and Validate.
type Options struct {
	Registry ocppskema.Registry
	Type     TypeFunc
	Parse    ocppskema.ParseOpt
	// MaxBody caps the request body; zero means no cap.
	MaxBody int64
	// OnParseFailure, when set, observes bodies rejected with 400.
	OnParseFailure func(*http.Request, error)
}

// ErrorPayload shapes diagnostics for JSON responses.
func ErrorPayload(msg string, ds ocppskema.Diagnostics) map[string]any {
	if ds == nil {
		ds = ocppskema.Diagnostics{}
	}
	return map[string]any{"error": msg, "diagnostics": ds}
}

// Decode parses the request body as the type chosen by opts.Type and stores
// the unresolved cell in the request context. Unknown types get 404, bodies
// over MaxBody 413 and parse failures 400.
func Decode(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := decode(w, r, opts)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithCell(r.Context(), c)))
		})
	}
}

// Validate is Decode followed by validation in mode. Requests whose payload
// has findings are rejected with 422 and never reach next.
func Validate(opts Options, mode ocppskema.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := decode(w, r, opts)
			if !ok {
				return
			}
			if rep := c.Validate(mode); !rep.IsValid() {
				WriteJSON(w, http.StatusUnprocessableEntity, ErrorPayload("payload is invalid", rep.Diagnostics()))
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithCell(r.Context(), c)))
		})
	}
}

func decode(w http.ResponseWriter, r *http.Request, opts Options) (*ocppskema.Cell, bool) {
	typeID := ""
	if opts.Type != nil {
		typeID = opts.Type(r)
	}
	if typeID == "" || opts.Registry == nil {
		WriteJSON(w, http.StatusNotFound, ErrorPayload("unknown type", nil))
		return nil, false
	}
	if _, ok := opts.Registry.Lookup(typeID); !ok {
		WriteJSON(w, http.StatusNotFound, ErrorPayload("unknown type "+typeID, nil))
		return nil, false
	}
	body := r.Body
	if opts.MaxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, opts.MaxBody)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorPayload("request body too large", nil))
			return nil, false
		}
		WriteJSON(w, http.StatusBadRequest, ErrorPayload(err.Error(), nil))
		return nil, false
	}
	c, err := ocppskema.DecodeBytes(r.Context(), opts.Registry, typeID, data, opts.Parse)
	if err != nil {
		if opts.OnParseFailure != nil {
			opts.OnParseFailure(r, err)
		}
		ds, _ := ocppskema.AsDiagnostics(err)
		WriteJSON(w, http.StatusBadRequest, ErrorPayload("payload could not be parsed", ds))
		return nil, false
	}
	return c, true
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
