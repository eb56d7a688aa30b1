// Package ocppj implements OCPP-J RPC framing: the JSON arrays that carry
// OCPP payloads over WebSocket, their message ids and their error codes.
package ocppj

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/document"
)

// MessageType is the first element of every frame.
type MessageType int

const (
	Call            MessageType = 2
	CallResult      MessageType = 3
	CallError       MessageType = 4
	CallResultError MessageType = 5
	Send            MessageType = 6
)

func (t MessageType) String() string {
	switch t {
	case Call:
		return "CALL"
	case CallResult:
		return "CALLRESULT"
	case CallError:
		return "CALLERROR"
	case CallResultError:
		return "CALLRESULTERROR"
	case Send:
		return "SEND"
	}
	return "MessageType(" + strconv.Itoa(int(t)) + ")"
}

// ParseMessageType accepts the symbolic names and the numeric ids.
func ParseMessageType(s string) (MessageType, bool) {
	for t := Call; t <= Send; t++ {
		if s == t.String() || s == strconv.Itoa(int(t)) {
			return t, true
		}
	}
	return 0, false
}

// arity is the element count of each frame kind.
func (t MessageType) arity() int {
	switch t {
	case Call, Send:
		return 4
	case CallResult:
		return 3
	case CallError, CallResultError:
		return 5
	}
	return 0
}

// MaxMessageIDLength bounds the message id of OCPP 2.x frames.
const MaxMessageIDLength = 36

// Frame is a decoded OCPP-J message. Payload is set for CALL, CALLRESULT and
// SEND; the Error fields are set for CALLERROR and CALLRESULTERROR.
type Frame struct {
	Type      MessageType
	MessageID string
	Action    string
	Payload   *document.Node

	ErrorCode        ErrorCode
	ErrorDescription string
	ErrorDetails     *document.Node
}

// NewMessageID returns a fresh random message id.
func NewMessageID() string { return uuid.NewString() }

// NewCall builds a CALL frame with a fresh message id.
func NewCall(action string, payload *document.Node) *Frame {
	return &Frame{Type: Call, MessageID: NewMessageID(), Action: action, Payload: payload}
}

// NewSend builds an unconfirmed SEND frame with a fresh message id.
func NewSend(action string, payload *document.Node) *Frame {
	return &Frame{Type: Send, MessageID: NewMessageID(), Action: action, Payload: payload}
}

// NewCallResult answers the CALL identified by messageID.
func NewCallResult(messageID string, payload *document.Node) *Frame {
	return &Frame{Type: CallResult, MessageID: messageID, Payload: payload}
}

// NewCallError answers the CALL identified by messageID with an error.
// details defaults to an empty object.
func NewCallError(messageID string, code ErrorCode, description string, details *document.Node) *Frame {
	return &Frame{Type: CallError, MessageID: messageID, ErrorCode: code, ErrorDescription: description, ErrorDetails: details}
}

// Parse decodes a frame from data. Malformed JSON and malformed frames are
// reported as *Error with code FormatViolation or RpcFrameworkError.
func Parse(ctx context.Context, data []byte, opts ...ocppskema.ParseOpt) (*Frame, error) {
	n, err := ocppskema.ParseDocument(ctx, ocppskema.JSONBytes(data), opts...)
	if err != nil {
		if ds, ok := ocppskema.AsDiagnostics(err); ok {
			return nil, &Error{Code: FormatViolation, Message: ds.Error(), Err: err}
		}
		return nil, err
	}
	return FromNode(n)
}

// FromNode decodes a frame from an already parsed document.
func FromNode(n *document.Node) (*Frame, error) {
	if n.Kind() != document.KindArray || n.Len() < 3 {
		return nil, rpcError("frame must be an array of at least 3 elements")
	}
	typ, err := n.Index(0).Int64()
	if err != nil {
		return nil, rpcError("message type id must be an integer")
	}
	t := MessageType(typ)
	want := t.arity()
	if want == 0 {
		return nil, &Error{Code: MessageTypeNotSupported, Message: fmt.Sprintf("message type %d not supported", typ)}
	}
	if n.Len() != want {
		return nil, rpcError(fmt.Sprintf("%s frame must have %d elements, got %d", t, want, n.Len()))
	}
	id := n.Index(1)
	if id.Kind() != document.KindString || id.Text() == "" {
		return nil, rpcError("message id must be a non-empty string")
	}
	if len(id.Text()) > MaxMessageIDLength {
		return nil, rpcError(fmt.Sprintf("message id exceeds %d characters", MaxMessageIDLength))
	}
	f := &Frame{Type: t, MessageID: id.Text()}

	switch t {
	case Call, Send:
		action := n.Index(2)
		if action.Kind() != document.KindString || action.Text() == "" {
			return nil, rpcError("action must be a non-empty string")
		}
		f.Action = action.Text()
		f.Payload = n.Index(3)
		if f.Payload.Kind() != document.KindObject {
			return nil, &Error{Code: FormatViolation, Message: "payload must be an object"}
		}
	case CallResult:
		f.Payload = n.Index(2)
		if f.Payload.Kind() != document.KindObject {
			return nil, &Error{Code: FormatViolation, Message: "payload must be an object"}
		}
	case CallError, CallResultError:
		code, desc, details := n.Index(2), n.Index(3), n.Index(4)
		if code.Kind() != document.KindString || desc.Kind() != document.KindString {
			return nil, rpcError("error code and description must be strings")
		}
		if details.Kind() != document.KindObject {
			return nil, rpcError("error details must be an object")
		}
		f.ErrorCode = ErrorCode(code.Text())
		f.ErrorDescription = desc.Text()
		f.ErrorDetails = details
	}
	return f, nil
}

// Node renders the frame as a JSON array.
func (f *Frame) Node() *document.Node {
	items := []*document.Node{document.Int(int64(f.Type)), document.String(f.MessageID)}
	switch f.Type {
	case Call, Send:
		items = append(items, document.String(f.Action), orEmpty(f.Payload))
	case CallResult:
		items = append(items, orEmpty(f.Payload))
	case CallError, CallResultError:
		items = append(items, document.String(string(f.ErrorCode)), document.String(f.ErrorDescription), orEmpty(f.ErrorDetails))
	}
	return document.Array(items...)
}

// Encode renders the frame as compact JSON.
func (f *Frame) Encode() ([]byte, error) { return document.Marshal(f.Node()) }

// MarshalJSON implements json.Marshaler.
func (f *Frame) MarshalJSON() ([]byte, error) { return f.Encode() }

func orEmpty(n *document.Node) *document.Node {
	if n == nil || n.IsNull() {
		return document.Object()
	}
	return n
}

func rpcError(msg string) *Error { return &Error{Code: RpcFrameworkError, Message: msg} }
