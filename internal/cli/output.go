package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/reoring/ocppskema"
)

// printer renders verdicts in text or JSON lines.
type printer struct {
	w         io.Writer
	json      bool
	localized bool
}

func newPrinter(w io.Writer, format string, localized bool) (*printer, error) {
	switch format {
	case "text", "":
		return &printer{w: w, localized: localized}, nil
	case "json":
		return &printer{w: w, json: true, localized: localized}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text or json)", format)
}

// record is one JSON output line.
type record struct {
	Input       string                `json:"input"`
	Document    int                   `json:"document"`
	Type        string                `json:"type,omitempty"`
	MessageType string                `json:"messageType,omitempty"`
	MessageID   string                `json:"messageId,omitempty"`
	Valid       bool                  `json:"valid"`
	Error       string                `json:"error,omitempty"`
	Diagnostics ocppskema.Diagnostics `json:"diagnostics,omitempty"`
	Reply       json.RawMessage       `json:"reply,omitempty"`
}

func (p *printer) print(r record) error {
	if p.json {
		out, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", out)
		return err
	}

	label := fmt.Sprintf("%s#%d", r.Input, r.Document)
	if r.MessageType != "" {
		label += fmt.Sprintf(" %s %s", r.MessageType, r.MessageID)
	}
	if r.Type != "" {
		label += " " + r.Type
	}
	switch {
	case r.Error != "":
		fmt.Fprintf(p.w, "%s: error: %s\n", label, r.Error)
	case r.Valid:
		fmt.Fprintf(p.w, "%s: valid\n", label)
	default:
		fmt.Fprintf(p.w, "%s: %d finding(s)\n", label, len(r.Diagnostics))
	}
	for _, d := range r.Diagnostics {
		msg := d.Message
		if p.localized {
			msg = d.Localized()
		}
		fmt.Fprintf(p.w, "  %-40s %-22s %s\n", d.Path, d.Code, msg)
	}
	if len(r.Reply) > 0 {
		fmt.Fprintf(p.w, "  reply: %s\n", r.Reply)
	}
	return nil
}
