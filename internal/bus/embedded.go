package bus

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EmbeddedOptions configures an in-process NATS server.
type EmbeddedOptions struct {
	// Port to listen on; -1 picks a random free port.
	Port int
	// InProcess skips the network listener entirely; clients connect
	// through the server handle.
	InProcess bool
	Logger    *zerolog.Logger
}

// StartEmbedded runs a NATS server inside the process and returns a client
// connected to it. The caller owns both and must close the connection and
// call Shutdown on the server.
func StartEmbedded(opts EmbeddedOptions) (*nats.Conn, *server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "ocppskema",
		Host:       "127.0.0.1",
		Port:       opts.Port,
		DontListen: opts.InProcess,
		NoSigs:     true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bus: embedded server: %w", err)
	}
	if opts.Logger != nil {
		ns.SetLogger(natsLogger{log: *opts.Logger}, false, false)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, nil, errors.New("bus: embedded server not ready")
	}

	var clientOpts []nats.Option
	if opts.InProcess {
		clientOpts = append(clientOpts, nats.InProcessServer(ns))
	}
	nc, err := nats.Connect(ns.ClientURL(), clientOpts...)
	if err != nil {
		ns.Shutdown()
		return nil, nil, fmt.Errorf("bus: connect embedded: %w", err)
	}
	return nc, ns, nil
}

// natsLogger adapts zerolog to the nats-server logger interface.
type natsLogger struct {
	log zerolog.Logger
}

func (l natsLogger) Noticef(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
func (l natsLogger) Warnf(format string, v ...any)   { l.log.Warn().Msgf(format, v...) }
func (l natsLogger) Errorf(format string, v ...any)  { l.log.Error().Msgf(format, v...) }
func (l natsLogger) Fatalf(format string, v ...any)  { l.log.Error().Msgf("nats fatal: "+format, v...) }
func (l natsLogger) Debugf(format string, v ...any)  { l.log.Debug().Msgf(format, v...) }
func (l natsLogger) Tracef(format string, v ...any)  { l.log.Trace().Msgf(format, v...) }
