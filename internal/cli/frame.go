package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/ocppj"
)

func newFrameCommand(a *app) *cobra.Command {
	var (
		mode    string
		format  string
		pending string
	)
	cmd := &cobra.Command{
		Use:   "frame [FILE|-]",
		Short: "Check a sequence of OCPP-J frames",
		Long: `Read concatenated OCPP-J frames (one per line in a capture, for instance)
and validate each payload. CALLRESULT frames are bound to the action of the
CALL with the same message id seen earlier in the input; --pending supplies
the action when the CALL is not part of the input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mode(mode)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd.OutOrStdout(), format, a.lang != "")
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			ctx := cmd.Context()
			sc := ocppskema.NewDocumentScanner(in, a.cfg.Parse.ParseOpt())
			calls := newPendingCalls()
			invalid := 0
			for i := 0; ; i++ {
				n, err := sc.Next(ctx)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					ds, ok := ocppskema.AsDiagnostics(err)
					if !ok {
						return err
					}
					invalid++
					if err := p.print(record{Input: name, Document: i, Error: "parse failed", Diagnostics: ds}); err != nil {
						return err
					}
					break
				}

				action := pending
				if f, err := ocppj.FromNode(n); err == nil && action == "" {
					action = calls.resolve(f)
				}
				out := ocppj.CheckNode(a.catalog, n, action, m)
				if !out.Valid() {
					invalid++
				}
				if err := p.print(frameRecord(name, i, out)); err != nil {
					return err
				}
			}
			a.log.Debug().Int("frames", sc.Count()).Int("invalid", invalid).Msg("frames checked")
			if invalid > 0 {
				return ErrInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "validation mode: shallow or deep (default from config)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&pending, "pending", "", "action answered by CALLRESULT frames")
	return cmd
}

func frameRecord(name string, i int, out ocppj.Outcome) record {
	r := record{Input: name, Document: i, Type: out.TypeID, Valid: out.Valid()}
	if f := out.Frame; f != nil {
		r.MessageType = f.Type.String()
		r.MessageID = f.MessageID
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	if out.Report != nil {
		r.Diagnostics = out.Report.Diagnostics()
	}
	if out.Reply != nil {
		if data, err := out.Reply.Encode(); err == nil {
			r.Reply = data
		}
	}
	return r
}

// pendingCalls remembers the action of every CALL until it is answered.
type pendingCalls struct {
	actions map[string]string
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{actions: map[string]string{}}
}

// resolve records CALL frames and returns the action a CALLRESULT or
// CALLERROR answers, forgetting it.
func (p *pendingCalls) resolve(f *ocppj.Frame) string {
	switch f.Type {
	case ocppj.Call:
		p.actions[f.MessageID] = f.Action
	case ocppj.CallResult, ocppj.CallError:
		action := p.actions[f.MessageID]
		delete(p.actions, f.MessageID)
		return action
	}
	return ""
}
