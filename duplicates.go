package ocppskema

import (
	eng "github.com/reoring/ocppskema/internal/engine"
)

// DetectDuplicateKeys lists every repeated object key in data without
// rejecting the document. maxIssues caps the result; a negative value means
// no cap. Malformed input is returned as the error.
func DetectDuplicateKeys(data []byte, maxIssues int) (Diagnostics, error) {
	var found Diagnostics
	src := eng.WrapWithEnforcement(engineTokenSource(JSONBytes(data)), eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		IssueSink: func(si eng.SimpleIssue) {
			if maxIssues >= 0 && len(found) >= maxIssues {
				return
			}
			found = append(found, Diagnostic{Path: si.Path, Kind: MaterializationFailed, Code: si.Code, Message: si.Message, Offset: -1})
		},
	})
	if _, err := eng.DecodeNode(src); err != nil {
		return found, toDiagnostics(err, src.Location())
	}
	return found, nil
}
