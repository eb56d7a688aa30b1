package ocppskema

import "strings"

// Report is an ordered, immutable collection of diagnostics. Order is
// traversal order: root before leaves, fields in declaration order, array
// elements by index. A nil *Report is an empty, valid report.
type Report struct {
	diags []Diagnostic
}

// NewReport builds a report from diagnostics in the given order.
func NewReport(ds ...Diagnostic) *Report {
	return &Report{diags: append([]Diagnostic(nil), ds...)}
}

// Diagnostics returns a copy of the diagnostics.
func (r *Report) Diagnostics() Diagnostics {
	if r == nil || len(r.diags) == 0 {
		return nil
	}
	return append(Diagnostics(nil), r.diags...)
}

func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.diags)
}

// IsValid reports whether the report holds no diagnostics.
func (r *Report) IsValid() bool { return r.Len() == 0 }

// First returns the first diagnostic, for fail-fast callers.
func (r *Report) First() (Diagnostic, bool) {
	if r.Len() == 0 {
		return Diagnostic{}, false
	}
	return r.diags[0], true
}

// ByKind groups diagnostics by kind, each group in report order.
func (r *Report) ByKind() map[DiagnosticKind][]Diagnostic {
	out := map[DiagnosticKind][]Diagnostic{}
	for _, d := range r.all() {
		out[d.Kind] = append(out[d.Kind], d)
	}
	return out
}

// Count returns the number of diagnostics of kind.
func (r *Report) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.all() {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns a report restricted to the given kinds.
func (r *Report) Filter(kinds ...DiagnosticKind) *Report {
	out := &Report{}
	for _, d := range r.all() {
		for _, k := range kinds {
			if d.Kind == k {
				out.diags = append(out.diags, d)
				break
			}
		}
	}
	return out
}

// At returns the diagnostics whose path equals pointer.
func (r *Report) At(pointer string) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.all() {
		if d.Path == pointer {
			out = append(out, d)
		}
	}
	return out
}

// Merge returns a new report with r's diagnostics followed by those of others.
func (r *Report) Merge(others ...*Report) *Report {
	n := r.Len()
	for _, o := range others {
		n += o.Len()
	}
	out := &Report{diags: make([]Diagnostic, 0, n)}
	out.diags = append(out.diags, r.all()...)
	for _, o := range others {
		out.diags = append(out.diags, o.all()...)
	}
	return out
}

// Err returns nil for a valid report and the diagnostics as an error otherwise.
func (r *Report) Err() error {
	if r.IsValid() {
		return nil
	}
	return r.Diagnostics()
}

func (r *Report) String() string {
	if r.IsValid() {
		return "valid"
	}
	parts := make([]string, len(r.diags))
	for i, d := range r.diags {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

func (r *Report) all() []Diagnostic {
	if r == nil {
		return nil
	}
	return r.diags
}
