package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"payloadseed/internal/config"
	"payloadseed/internal/contentstore"
	"payloadseed/internal/fetcher"
	"payloadseed/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check paths, disk space, the image source, and the content store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			results := runPreflight(cmd.Context(), cfg, store, fetcher.NewFromConfig(cfg))
			failed := preflight.Failed(results)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"checks": results, "passed": len(failed) == 0}); err != nil {
					return err
				}
			} else {
				printChecks(cmd.OutOrStdout(), results)
			}
			if len(failed) > 0 {
				return fmt.Errorf("preflight failed: %d of %d checks did not pass", len(failed), len(results))
			}
			return nil
		},
	}
}

func runPreflight(ctx context.Context, cfg *config.Config, store contentstore.Store, source preflight.Prober) []preflight.Result {
	return preflight.RunAll(ctx, cfg, preflight.Deps{Store: store, Source: source})
}
