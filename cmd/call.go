package cmd

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/connorhough/sigclock/internal/awsapi"
	"github.com/connorhough/sigclock/internal/config"
)

// KMS rejects ListKeys limits above this
const maxListLimit = 1000

func newCallCmd() *cobra.Command {
	var (
		region string
		limit  int
	)

	callCmd := &cobra.Command{
		Use:   "call",
		Short: "List KMS keys and S3 buckets with signed requests",
		Long: `Call KMS ListKeys and S3 ListBuckets concurrently, signing both requests
with the corrected clock. Useful to confirm that requests are accepted while
libfaketime is active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > maxListLimit {
				return fmt.Errorf("--limit must be between 1 and %d, got %d", maxListLimit, limit)
			}
			if err := patchSigning(); err != nil {
				return err
			}

			cfg := config.ResolveAWSConfig()
			cfg.ApplyFlags(region)
			if err := cfg.Validate(); err != nil {
				return err
			}

			kms := awsapi.NewClient(cfg.Credentials, cfg.Region, "kms", cfg.Endpoint("kms"))
			s3 := awsapi.NewClient(cfg.Credentials, cfg.Region, "s3", cfg.Endpoint("s3"))
			log.WithFields(log.Fields{"kms": kms.Endpoint, "s3": s3.Endpoint}).Debug("Calling endpoints")

			var (
				mu      sync.Mutex
				keys    []awsapi.Key
				buckets []awsapi.Bucket
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				k, err := kms.ListKeys(ctx, limit)
				mu.Lock()
				keys = k
				mu.Unlock()
				return err
			})
			g.Go(func() error {
				b, err := s3.ListBuckets(ctx)
				mu.Lock()
				buckets = b
				mu.Unlock()
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range keys {
				fmt.Fprintln(out, key.KeyArn)
			}
			for i, bucket := range buckets {
				if i == limit {
					break
				}
				fmt.Fprintln(out, "s3://"+bucket.Name)
			}
			return nil
		},
	}

	callCmd.Flags().StringVar(&region, "region", "", "region (overrides config)")
	callCmd.Flags().IntVar(&limit, "limit", 3, "maximum number of keys and buckets to print")

	return callCmd
}
