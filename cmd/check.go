package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/connorhough/sigclock/internal/config"
	"github.com/connorhough/sigclock/internal/faketime"
	"github.com/connorhough/sigclock/internal/ntpcheck"
)

func newCheckCmd() *cobra.Command {
	var server string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the signing clock with an NTP server",
		Long: `Query an NTP server and report how far the signing clock is from it once
the libfaketime offset is removed. Fails when the remaining error exceeds the
five minutes AWS tolerates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := faketime.Default()
			if err != nil {
				return err
			}

			cfg := config.ResolveNTPConfig()
			if server != "" {
				cfg.Server = server
			}
			log.WithField("server", cfg.Server).Debug("Querying NTP server")

			report, err := ntpcheck.Check(ntpcheck.DefaultNTPClient{}, cfg.Server, cfg.Timeout, resolver.Offset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server:       %s (stratum %d, rtt %s)\n", report.Server, report.Stratum, report.RTT)
			fmt.Fprintf(out, "clock offset: %s\n", report.ClockOffset)
			fmt.Fprintf(out, "fake offset:  %s\n", report.FakeOffset)
			fmt.Fprintf(out, "residual:     %s\n", report.Residual)

			if !report.Within(ntpcheck.SigningTolerance) {
				return fmt.Errorf("signing clock is %s away from %s, more than %s", report.Residual, report.Server, ntpcheck.SigningTolerance)
			}
			return nil
		},
	}

	checkCmd.Flags().StringVar(&server, "server", "", "NTP server (overrides config)")

	return checkCmd
}
