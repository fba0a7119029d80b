package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func checkpointCmd(root *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or reset the saved read position",
	}

	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the checkpoint of the configured job as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			store, closer, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			cp, ok, err := store.Load(cmd.Context(), cfg.JobName)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "no checkpoint for job %s\n", cfg.JobName)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cp)
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the checkpoint so the next run starts at the top of the file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			store, closer, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := store.Clear(cmd.Context(), cfg.JobName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checkpoint for job %s cleared\n", cfg.JobName)
			return nil
		},
	})
	return c
}
