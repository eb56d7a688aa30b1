// Package bus validates OCPP-J frames exchanged over NATS request/reply.
package bus

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/internal/metrics"
	"github.com/reoring/ocppskema/ocppj"
	"github.com/reoring/ocppskema/schema"
)

// Message headers set on requests and replies.
const (
	// HeaderPendingAction names the CALL a CALLRESULT answers.
	HeaderPendingAction = "Ocpp-Pending-Action"
	HeaderValid         = "Ocpp-Valid"
	HeaderType          = "Ocpp-Type"
	HeaderErrorCode     = "Ocpp-Error-Code"
)

const transport = "nats"

// Options configures a Validator.
type Options struct {
	Registry schema.Registry
	Subject  string
	Queue    string
	// Forward, when set, receives every valid frame verbatim.
	Forward string
	Parse   ocppskema.ParseOpt
	Mode    ocppskema.Mode
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	// Timeout bounds the handling of one message; zero means no limit.
	Timeout time.Duration
}

// Validator answers frames published on a subject. A valid frame is echoed
// back unchanged; an invalid one is answered with the CALLERROR or
// CALLRESULTERROR it deserves, or an empty body when the frame kind has no
// error reply. The verdict is also carried in the reply headers.
type Validator struct {
	nc   *nats.Conn
	opts Options
	sub  *nats.Subscription
}

// NewValidator returns a validator bound to nc. A zero parse depth means
// ocppskema.DefaultMaxDepth.
func NewValidator(nc *nats.Conn, opts Options) *Validator {
	if opts.Parse.MaxDepth == 0 {
		opts.Parse.MaxDepth = ocppskema.DefaultMaxDepth
	}
	return &Validator{nc: nc, opts: opts}
}

// Start subscribes, joining the queue group when one is configured.
func (v *Validator) Start() error {
	if v.opts.Subject == "" {
		return errors.New("bus: empty subject")
	}
	var err error
	if v.opts.Queue != "" {
		v.sub, err = v.nc.QueueSubscribe(v.opts.Subject, v.opts.Queue, v.handle)
	} else {
		v.sub, err = v.nc.Subscribe(v.opts.Subject, v.handle)
	}
	if err != nil {
		return err
	}
	v.opts.Logger.Info().Str("subject", v.opts.Subject).Str("queue", v.opts.Queue).Msg("validator subscribed")
	return nil
}

// Stop drains the subscription.
func (v *Validator) Stop() error {
	if v.sub == nil {
		return nil
	}
	return v.sub.Drain()
}

// Run starts the validator and blocks until ctx is done.
func (v *Validator) Run(ctx context.Context) error {
	if err := v.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	if err := v.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

func (v *Validator) handle(msg *nats.Msg) {
	ctx := context.Background()
	if v.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()
	}

	pending := ""
	if msg.Header != nil {
		pending = msg.Header.Get(HeaderPendingAction)
	}
	start := time.Now()
	out := ocppj.Check(ctx, v.opts.Registry, msg.Data, pending, v.opts.Mode, v.opts.Parse)

	if out.Report != nil {
		v.opts.Metrics.ObserveReport(transport, out.TypeID, v.opts.Mode, out.Report, time.Since(start))
	}
	if out.Err != nil {
		v.opts.Metrics.ObserveParseFailure(transport, out.Err)
	}

	// Every verdict header is present; type and error code are empty when
	// they do not apply.
	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(HeaderValid, strconv.FormatBool(out.Valid()))
	reply.Header.Set(HeaderType, out.TypeID)
	reply.Header.Set(HeaderErrorCode, "")
	switch {
	case out.Valid():
		reply.Data = msg.Data
	case out.Reply != nil:
		reply.Header.Set(HeaderErrorCode, string(out.Reply.ErrorCode))
		data, err := out.Reply.Encode()
		if err != nil {
			v.opts.Logger.Error().Err(err).Msg("encode error frame")
			return
		}
		reply.Data = data
	}

	event := v.opts.Logger.Debug()
	if !out.Valid() {
		event = v.opts.Logger.Warn()
	}
	event.Str("subject", msg.Subject).Str("type", out.TypeID).Bool("valid", out.Valid()).Err(out.Err).Msg("frame checked")

	if out.Valid() && v.opts.Forward != "" {
		fwd := nats.NewMsg(v.opts.Forward)
		fwd.Data = msg.Data
		fwd.Header.Set(HeaderType, out.TypeID)
		if err := v.nc.PublishMsg(fwd); err != nil {
			v.opts.Logger.Error().Err(err).Str("subject", v.opts.Forward).Msg("forward failed")
		}
	}
	if msg.Reply == "" {
		return
	}
	if err := v.nc.PublishMsg(reply); err != nil {
		v.opts.Logger.Error().Err(err).Msg("reply failed")
	}
}
