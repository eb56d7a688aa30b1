package ocppj

import (
	"context"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/document"
)

// Outcome is the result of checking one frame.
type Outcome struct {
	// Frame is nil when the input could not be read as a frame.
	Frame *Frame
	// TypeID is the payload type the frame was bound to.
	TypeID string
	// Report is nil when the payload was never validated.
	Report *ocppskema.Report
	// Reply is the error frame to send back, if any. SEND frames and
	// error frames never get one.
	Reply *Frame
	// Err is the framing or binding failure.
	Err error
}

// Valid reports whether the frame was read, bound and validated cleanly.
// Error frames carry no payload and are valid once framed.
func (o Outcome) Valid() bool {
	return o.Err == nil && (o.Report == nil || o.Report.IsValid())
}

// Check parses data as a frame, binds its payload and validates it in mode.
// pendingAction names the CALL a CALLRESULT answers.
func Check(ctx context.Context, reg ocppskema.Registry, data []byte, pendingAction string, mode ocppskema.Mode, opts ...ocppskema.ParseOpt) Outcome {
	n, err := ocppskema.ParseDocument(ctx, ocppskema.JSONBytes(data), opts...)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Err: err}
		}
		fe := &Error{Code: FormatViolation, Message: err.Error(), Err: err}
		return Outcome{Err: fe, Reply: ErrorForFailure("", fe)}
	}
	return CheckNode(reg, n, pendingAction, mode)
}

// CheckNode is Check over an already parsed document.
func CheckNode(reg ocppskema.Registry, n *document.Node, pendingAction string, mode ocppskema.Mode) Outcome {
	f, err := FromNode(n)
	if err != nil {
		return Outcome{Err: err, Reply: ErrorForFailure(rawMessageID(n), err)}
	}
	out := Outcome{Frame: f}
	if f.Type == CallError || f.Type == CallResultError {
		return out
	}
	c, err := f.Bind(reg, pendingAction)
	if err != nil {
		out.Err = err
		if f.Type == Call {
			out.Reply = ErrorForFailure(f.MessageID, err)
		}
		return out
	}
	out.TypeID = c.Type().ID
	out.Report = c.Validate(mode)
	if f.Type != Send {
		out.Reply = ErrorFor(f, out.Report)
	}
	return out
}

// rawMessageID extracts the message id of a malformed frame when it is
// readable, so the error can still be correlated.
func rawMessageID(n *document.Node) string {
	if n.Kind() != document.KindArray || n.Len() < 2 {
		return ""
	}
	id := n.Index(1)
	if id.Kind() != document.KindString || len(id.Text()) > MaxMessageIDLength {
		return ""
	}
	return id.Text()
}
