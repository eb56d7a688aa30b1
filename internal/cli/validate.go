package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema"
)

func newValidateCommand(a *app) *cobra.Command {
	var (
		mode   string
		format string
		stream bool
	)
	cmd := &cobra.Command{
		Use:   "validate TYPE [FILE|-]",
		Short: "Validate a JSON payload against a catalogue type",
		Long: `Decode FILE (stdin when omitted or "-") as TYPE and print every finding.
With --stream the input may hold several concatenated documents, each
validated separately.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeID := args[0]
			if _, ok := a.catalog.Lookup(typeID); !ok {
				return fmt.Errorf("unknown type %q", typeID)
			}
			m, err := a.mode(mode)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd.OutOrStdout(), format, a.lang != "")
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args[1:])
			if err != nil {
				return err
			}
			defer in.Close()

			ctx := cmd.Context()
			opt := a.cfg.Parse.ParseOpt()
			invalid := 0
			check := func(i int, c *ocppskema.Cell) error {
				rep := c.Validate(m)
				if !rep.IsValid() {
					invalid++
				}
				return p.print(record{Input: name, Document: i, Type: typeID, Valid: rep.IsValid(), Diagnostics: rep.Diagnostics()})
			}
			parseFailed := func(i int, err error) error {
				ds, ok := ocppskema.AsDiagnostics(err)
				if !ok {
					return err
				}
				invalid++
				return p.print(record{Input: name, Document: i, Type: typeID, Error: "parse failed", Diagnostics: ds})
			}

			if !stream {
				c, err := ocppskema.DecodeReader(ctx, a.catalog, typeID, in, opt)
				if err != nil {
					if err := parseFailed(0, err); err != nil {
						return err
					}
				} else if err := check(0, c); err != nil {
					return err
				}
			} else {
				sc := ocppskema.NewDocumentScanner(in, opt)
				for i := 0; ; i++ {
					n, err := sc.Next(ctx)
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						if err := parseFailed(i, err); err != nil {
							return err
						}
						break
					}
					c, err := ocppskema.NewCell(a.catalog, typeID, n)
					if err != nil {
						return err
					}
					if err := check(i, c); err != nil {
						return err
					}
				}
			}
			if invalid > 0 {
				return ErrInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "validation mode: shallow or deep (default from config)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&stream, "stream", false, "read several concatenated documents")
	return cmd
}

// mode resolves a --mode flag, falling back to the configured default.
func (a *app) mode(flag string) (ocppskema.Mode, error) {
	if flag == "" {
		return a.cfg.Parse.ValidationMode(), nil
	}
	m, ok := ocppskema.ParseMode(flag)
	if !ok {
		return 0, fmt.Errorf("invalid mode %q (want shallow or deep)", flag)
	}
	return m, nil
}
