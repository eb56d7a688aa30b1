package ocppj

import (
	"errors"
	"fmt"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/document"
)

// ErrorCode is an OCPP-J CALLERROR code.
type ErrorCode string

const (
	FormatViolation               ErrorCode = "FormatViolation"
	GenericError                  ErrorCode = "GenericError"
	InternalError                 ErrorCode = "InternalError"
	MessageTypeNotSupported       ErrorCode = "MessageTypeNotSupported"
	NotImplemented                ErrorCode = "NotImplemented"
	NotSupported                  ErrorCode = "NotSupported"
	OccurrenceConstraintViolation ErrorCode = "OccurrenceConstraintViolation"
	PropertyConstraintViolation   ErrorCode = "PropertyConstraintViolation"
	ProtocolError                 ErrorCode = "ProtocolError"
	RpcFrameworkError             ErrorCode = "RpcFrameworkError"
	SecurityError                 ErrorCode = "SecurityError"
	TypeConstraintViolation       ErrorCode = "TypeConstraintViolation"
)

// Error is a framing or binding failure carrying the code to answer with.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocppj: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("ocppj: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCodeFor picks the CALLERROR code for a validation report from its
// first diagnostic. A valid report yields "".
func ErrorCodeFor(rep *ocppskema.Report) ErrorCode {
	d, ok := rep.First()
	if !ok {
		return ""
	}
	return errorCodeForDiagnostic(d)
}

func errorCodeForDiagnostic(d ocppskema.Diagnostic) ErrorCode {
	switch d.Kind {
	case ocppskema.TypeMismatch:
		return TypeConstraintViolation
	case ocppskema.MaterializationFailed:
		switch d.Code {
		case ocppskema.CodeParseError, ocppskema.CodeDuplicateKey, ocppskema.CodeTruncated:
			return FormatViolation
		}
		return TypeConstraintViolation
	case ocppskema.MissingRequiredField:
		return OccurrenceConstraintViolation
	case ocppskema.ConditionalRuleViolation:
		if d.Code == "ordered" {
			return PropertyConstraintViolation
		}
		return OccurrenceConstraintViolation
	case ocppskema.ConstraintViolation:
		if d.Code == ocppskema.CodeUnknownKey {
			return FormatViolation
		}
		return PropertyConstraintViolation
	case ocppskema.UnknownEnumValue:
		return PropertyConstraintViolation
	}
	return GenericError
}

// maxDescription bounds errorDescription as recommended for OCPP 2.x.
const maxDescription = 255

// maxDetails bounds the number of diagnostics echoed in errorDetails.
const maxDetails = 16

// ErrorFor answers a CALL with a CALLERROR describing rep, or a CALLRESULT
// with a CALLRESULTERROR. It returns nil for a valid report.
func ErrorFor(f *Frame, rep *ocppskema.Report) *Frame {
	code := ErrorCodeFor(rep)
	if code == "" {
		return nil
	}
	d, _ := rep.First()
	e := NewCallError(f.MessageID, code, truncate(d.String()), detailsFor(rep))
	if f.Type == CallResult {
		e.Type = CallResultError
	}
	return e
}

func detailsFor(rep *ocppskema.Report) *document.Node {
	ds := rep.Diagnostics()
	if len(ds) > maxDetails {
		ds = ds[:maxDetails]
	}
	items := make([]*document.Node, len(ds))
	for i, d := range ds {
		items[i] = document.Object(
			document.Member{Key: "path", Value: document.String(d.Path)},
			document.Member{Key: "kind", Value: document.String(d.Kind.String())},
			document.Member{Key: "code", Value: document.String(d.Code)},
			document.Member{Key: "message", Value: document.String(d.Message)},
		)
	}
	return document.Object(
		document.Member{Key: "diagnostics", Value: document.Array(items...)},
		document.Member{Key: "total", Value: document.Int(int64(rep.Len()))},
	)
}

// ErrorForFailure answers a frame that could not be parsed or bound.
// messageID may be empty when the frame was unreadable.
func ErrorForFailure(messageID string, err error) *Frame {
	var fe *Error
	if errors.As(err, &fe) {
		return NewCallError(messageID, fe.Code, truncate(fe.Message), nil)
	}
	return NewCallError(messageID, GenericError, truncate(err.Error()), nil)
}

func truncate(s string) string {
	if len(s) > maxDescription {
		return s[:maxDescription]
	}
	return s
}
