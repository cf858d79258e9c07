package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humzaiqbal/trash-tracker/internal/config"
	"github.com/humzaiqbal/trash-tracker/internal/syncer"
)

// withSynchronizer opens the configured store and catalog for a one-shot command.
func withSynchronizer(opts *options, fn func(*syncer.Synchronizer) error) error {
	cfg := opts.resolve()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	return fn(syncer.New(store, catalog))
}

func dumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the stored route document as-is",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSynchronizer(opts, func(s *syncer.Synchronizer) error {
				raw, err := s.Dump(cmd.Context())
				if err != nil {
					return err
				}
				var out bytes.Buffer
				if err := json.Indent(&out, raw, "", "  "); err != nil {
					out.Reset()
					out.Write(raw)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out.String())
				return nil
			})
		},
	}
}

func repairCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rebuild the route document from the catalog, keeping readable sign-ups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSynchronizer(opts, func(s *syncer.Synchronizer) error {
				routes, err := s.Rebuild(cmd.Context())
				if err != nil {
					return err
				}
				kept := 0
				for _, r := range routes {
					kept += len(r.People)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d routes, kept %d sign-ups\n", len(routes), kept)
				return nil
			})
		},
	}
}

func syncRoutesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-routes",
		Short: "Add any catalog routes missing from the stored document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSynchronizer(opts, func(s *syncer.Synchronizer) error {
				ctx := cmd.Context()
				local, err := s.Load(ctx)
				if err != nil {
					return err
				}
				routes, changed, err := s.SyncMissingRoutes(ctx, local)
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), "all catalog routes present")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "route list now has %d routes\n", len(routes))
				return nil
			})
		},
	}
}
