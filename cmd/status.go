package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/connorhough/sigclock/internal/faketime"
	"github.com/connorhough/sigclock/internal/sigv4"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the detected libfaketime state and the signing clock",
		Long: `Show whether libfaketime is preloaded, where its offset comes from, the
offset currently in effect, and the process clock next to the clock used for
signing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := patchSigning(); err != nil {
				return err
			}
			resolver, err := faketime.Default()
			if err != nil {
				return err
			}
			return printStatus(cmd, resolver)
		},
	}
}

func printStatus(cmd *cobra.Command, resolver *faketime.Resolver) error {
	out := cmd.OutOrStdout()
	act := resolver.Activation()

	if !act.Active {
		fmt.Fprintln(out, "libfaketime: not loaded")
	} else {
		fmt.Fprintln(out, "libfaketime: loaded")
		fmt.Fprintf(out, "source:      %s\n", act.Source())
	}

	offset, err := resolver.Offset()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "offset:      %s\n", offset)

	process := time.Now().UTC()
	signing, err := sigv4.Time.UTCNow()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "process:     %s\n", process.Format(time.RFC3339))
	fmt.Fprintf(out, "signing:     %s\n", signing.Format(time.RFC3339))
	return nil
}
