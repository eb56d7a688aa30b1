package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/reoring/ocppskema"
)

func newDupKeysCommand(a *app) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "dupkeys [FILE|-]",
		Short: "List repeated object keys in a JSON document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd.OutOrStdout(), format, a.lang != "")
			if err != nil {
				return err
			}
			in, name, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			found, err := ocppskema.DetectDuplicateKeys(data, limit)
			r := record{Input: name, Valid: len(found) == 0 && err == nil, Diagnostics: found}
			if err != nil {
				ds, ok := ocppskema.AsDiagnostics(err)
				if !ok {
					return err
				}
				r.Error = "parse failed"
				r.Diagnostics = append(r.Diagnostics, ds...)
			}
			if err := p.print(r); err != nil {
				return err
			}
			if !r.Valid {
				return ErrInvalid
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", -1, "stop after this many duplicates (-1 for all)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}
