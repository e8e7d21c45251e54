package cmd

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/connorhough/sigclock/internal/config"
	"github.com/connorhough/sigclock/internal/sigv4"
)

func newSignCmd() *cobra.Command {
	var (
		method  string
		service string
		region  string
		presign time.Duration
		legacy  bool
	)

	signCmd := &cobra.Command{
		Use:   "sign <url>",
		Short: "Sign a request and print its headers or a presigned URL",
		Long: `Sign a request for url with the corrected clock and print the headers to
send with it. With --presign, print a presigned URL instead.

Examples:
  sigclock sign https://bucket.s3.amazonaws.com/report.csv
  sigclock sign --presign 15m https://bucket.s3.amazonaws.com/report.csv
  sigclock sign --service sts --method POST https://sts.amazonaws.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := patchSigning(); err != nil {
				return err
			}

			cfg := config.ResolveAWSConfig()
			cfg.ApplyFlags(region)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log.WithFields(log.Fields{"service": service, "region": cfg.Region}).Debug("Resolved signing config")

			req, err := http.NewRequest(strings.ToUpper(method), args[0], nil)
			if err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}
			signer := sigv4.NewSigner(cfg.Credentials, cfg.Region, service)

			out := cmd.OutOrStdout()
			switch {
			case presign > 0 && legacy:
				u, err := signer.PresignV1(req, presign)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, u)
			case presign > 0:
				u, err := signer.Presign(req, presign)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, u)
			default:
				if legacy {
					err = signer.SignV1(req)
				} else {
					err = signer.Sign(req, nil)
				}
				if err != nil {
					return err
				}
				printHeaders(cmd, req.Header)
			}
			return nil
		},
	}

	signCmd.Flags().StringVar(&method, "method", http.MethodGet, "HTTP method")
	signCmd.Flags().StringVar(&service, "service", "s3", "service signing name")
	signCmd.Flags().StringVar(&region, "region", "", "region (overrides config)")
	signCmd.Flags().DurationVar(&presign, "presign", 0, "print a presigned URL valid for this long")
	signCmd.Flags().BoolVar(&legacy, "v1", false, "use the legacy S3 HMAC-SHA1 scheme")

	return signCmd
}

func printHeaders(cmd *cobra.Command, header http.Header) {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range header[name] {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, v)
		}
	}
}
