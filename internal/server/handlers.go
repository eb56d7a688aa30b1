package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/jsonschema"
	"github.com/reoring/ocppskema/middleware"
	"github.com/reoring/ocppskema/ocppj"
)

const transport = "http"

type validateResponse struct {
	Type        string                `json:"type"`
	Mode        string                `json:"mode"`
	Valid       bool                  `json:"valid"`
	Diagnostics ocppskema.Diagnostics `json:"diagnostics"`
}

type frameResponse struct {
	Valid       bool                  `json:"valid"`
	MessageType string                `json:"messageType,omitempty"`
	MessageID   string                `json:"messageId,omitempty"`
	Action      string                `json:"action,omitempty"`
	Type        string                `json:"type,omitempty"`
	Error       string                `json:"error,omitempty"`
	Diagnostics ocppskema.Diagnostics `json:"diagnostics"`
	Reply       *ocppj.Frame          `json:"reply,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func nonNil(ds ocppskema.Diagnostics) ocppskema.Diagnostics {
	if ds == nil {
		return ocppskema.Diagnostics{}
	}
	return ds
}

func writeJSON(w http.ResponseWriter, status int, v any) { middleware.WriteJSON(w, status, v) }

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("messages") == "true" {
		var ids []string
		for _, t := range s.opts.Catalog.Messages() {
			ids = append(ids, t.ID)
		}
		writeJSON(w, http.StatusOK, ids)
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Catalog.IDs())
}

func (s *Server) exportSchema(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "type")
	if _, ok := s.opts.Catalog.Lookup(typeID); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown type " + typeID})
		return
	}
	sch, err := jsonschema.Export(s.opts.Catalog, typeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

// mode reads ?mode=, defaulting to the configured mode.
func (s *Server) mode(r *http.Request) (ocppskema.Mode, bool) {
	q := r.URL.Query().Get("mode")
	if q == "" {
		return s.opts.Mode, true
	}
	return ocppskema.ParseMode(q)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	return data, true
}

// validate runs behind middleware.Decode, which has already parsed the body.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, ok := middleware.CellFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "no decoded payload"})
		return
	}
	mode, ok := s.mode(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mode must be shallow or deep"})
		return
	}
	typeID := c.Type().ID
	rep := c.Validate(mode)
	s.opts.Metrics.ObserveReport(transport, typeID, mode, rep, time.Since(start))
	s.opts.Logger.Debug().
		Str("request_id", GetRequestID(r.Context())).
		Str("type", typeID).
		Str("mode", mode.String()).
		Int("diagnostics", rep.Len()).
		Msg("validated")

	writeJSON(w, http.StatusOK, validateResponse{
		Type:        typeID,
		Mode:        mode.String(),
		Valid:       rep.IsValid(),
		Diagnostics: nonNil(rep.Diagnostics()),
	})
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	mode, ok := s.mode(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mode must be shallow or deep"})
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	out := ocppj.Check(r.Context(), s.opts.Catalog, data, r.URL.Query().Get("pending"), mode, s.opts.Parse)
	resp := frameResponse{Valid: out.Valid(), Reply: out.Reply, Type: out.TypeID, Diagnostics: ocppskema.Diagnostics{}}
	if f := out.Frame; f != nil {
		resp.MessageType = f.Type.String()
		resp.MessageID = f.MessageID
		resp.Action = f.Action
	}
	if out.Report != nil {
		s.opts.Metrics.ObserveReport(transport, out.TypeID, mode, out.Report, time.Since(start))
		resp.Diagnostics = nonNil(out.Report.Diagnostics())
	}
	status := http.StatusOK
	if out.Err != nil {
		s.opts.Metrics.ObserveParseFailure(transport, out.Err)
		resp.Error = out.Err.Error()
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}
