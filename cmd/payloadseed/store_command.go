package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"payloadseed/internal/config"
	"payloadseed/internal/contentstore/sqlitestore"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the local content store",
	}
	storeCmd.AddCommand(newStoreStatsCommand(ctx))
	return storeCmd
}

func newStoreStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts for the sqlite backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendSQLite {
				return errors.New("store stats requires store.backend = \"sqlite\"")
			}

			store, err := sqlitestore.OpenFromConfig(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"path":          store.Path(),
					"users":         stats.Users,
					"media":         stats.Media,
					"media_bytes":   stats.MediaBytes,
					"centres":       stats.Centres,
					"centre_images": stats.CentreImages,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n\n", store.Path())
			fmt.Fprint(out, renderTable(
				[]string{"Collection", "Rows", "Size"},
				[][]string{
					{"users", strconv.FormatInt(stats.Users, 10), ""},
					{"media", strconv.FormatInt(stats.Media, 10), humanize.IBytes(uint64(stats.MediaBytes))},
					{"centres", strconv.FormatInt(stats.Centres, 10), ""},
					{"centre images", strconv.FormatInt(stats.CentreImages, 10), ""},
				},
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
