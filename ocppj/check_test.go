package ocppj_test

import (
	"context"
	"errors"
	"testing"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/catalog"
	"github.com/reoring/ocppskema/ocppj"
)

func check(data, pending string) ocppj.Outcome {
	return ocppj.Check(context.Background(), catalog.Default(), []byte(data), pending, ocppskema.Deep)
}

func TestCheck_ValidCall(t *testing.T) {
	out := check(`[2,"m1","BootNotification",{"chargingStation":{"model":"M","vendorName":"V"},"reason":"PowerUp"}]`, "")
	if !out.Valid() || out.Reply != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.TypeID != "BootNotificationRequest" || out.Frame.MessageID != "m1" {
		t.Fatalf("unexpected binding %s %+v", out.TypeID, out.Frame)
	}
}

func TestCheck_InvalidCallGetsCallError(t *testing.T) {
	out := check(`[2,"m2","Heartbeat",{"extra":1}]`, "")
	if out.Valid() || out.Err != nil {
		t.Fatalf("expected validation findings, got %+v", out)
	}
	if out.Reply == nil || out.Reply.Type != ocppj.CallError || out.Reply.MessageID != "m2" || out.Reply.ErrorCode != ocppj.FormatViolation {
		t.Fatalf("unexpected reply %+v", out.Reply)
	}
}

func TestCheck_InvalidResultGetsCallResultError(t *testing.T) {
	out := check(`[3,"m3",{"currentTime":"soon"}]`, "Heartbeat")
	if out.Reply == nil || out.Reply.Type != ocppj.CallResultError || out.Reply.ErrorCode != ocppj.TypeConstraintViolation {
		t.Fatalf("unexpected reply %+v", out.Reply)
	}
}

func TestCheck_SendHasNoReply(t *testing.T) {
	out := check(`[6,"m4","Heartbeat",{"extra":1}]`, "")
	if out.Valid() || out.Reply != nil {
		t.Fatalf("SEND must not be answered, got %+v", out)
	}
}

func TestCheck_ErrorFramesPassThrough(t *testing.T) {
	out := check(`[4,"m5","GenericError","boom",{}]`, "")
	if !out.Valid() || out.Report != nil || out.Frame.ErrorCode != ocppj.GenericError {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestCheck_Failures(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		pending string
		code    ocppj.ErrorCode
		replyID string
		reply   bool
	}{
		{name: "malformed json", data: `[2,"x"`, code: ocppj.FormatViolation, reply: true},
		{name: "bad arity keeps id", data: `[2,"m6","Heartbeat"]`, code: ocppj.RpcFrameworkError, replyID: "m6", reply: true},
		{name: "unknown action", data: `[2,"m7","FlyToMoon",{}]`, code: ocppj.NotImplemented, replyID: "m7", reply: true},
		{name: "result without pending", data: `[3,"m8",{}]`, code: ocppj.ProtocolError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := check(tc.data, tc.pending)
			var fe *ocppj.Error
			if !errors.As(out.Err, &fe) || fe.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, out.Err)
			}
			if !tc.reply {
				if out.Reply != nil {
					t.Fatalf("unexpected reply %+v", out.Reply)
				}
				return
			}
			if out.Reply == nil || out.Reply.ErrorCode != tc.code || out.Reply.MessageID != tc.replyID {
				t.Fatalf("unexpected reply %+v", out.Reply)
			}
		})
	}
}
