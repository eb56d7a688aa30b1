package ocppj

import (
	"fmt"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/catalog"
)

// Bind binds the frame payload to its message type. CALL and SEND payloads
// are requests of Action; a CALLRESULT is the response of pendingAction, the
// action of the CALL it answers. The returned cell is unresolved.
func (f *Frame) Bind(reg ocppskema.Registry, pendingAction string) (*ocppskema.Cell, error) {
	var typeID string
	switch f.Type {
	case Call, Send:
		typeID = catalog.RequestType(f.Action)
	case CallResult:
		if pendingAction == "" {
			return nil, &Error{Code: ProtocolError, Message: "CALLRESULT without a pending action"}
		}
		typeID = catalog.ResponseType(pendingAction)
	default:
		return nil, &Error{Code: ProtocolError, Message: fmt.Sprintf("%s frames carry no payload", f.Type)}
	}
	if _, ok := reg.Lookup(typeID); !ok {
		return nil, &Error{Code: NotImplemented, Message: fmt.Sprintf("action %q is not implemented", actionOf(f, pendingAction))}
	}
	return ocppskema.NewCell(reg, typeID, f.Payload)
}

func actionOf(f *Frame, pending string) string {
	if f.Type == CallResult {
		return pending
	}
	return f.Action
}
