package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connorhough/sigclock/internal/faketime"
)

func newOffsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offset <value>",
		Short: "Parse a libfaketime relative offset",
		Long: `Parse a value as libfaketime would read it from FAKETIME or a faketimerc
file and print the resulting duration. Examples: +30m, -2h, +1d, +5.`,
		Args:               cobra.ExactArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := faketime.ParseOffset(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}
}
