package cli

import (
	"github.com/spf13/cobra"

	"readfile/logger"
	"readfile/pipeline"
)

func replayCmd(root *rootOptions) *cobra.Command {
	var spoolPath string

	c := &cobra.Command{
		Use:   "replay",
		Short: "Re-publish chunks that were spooled after a failed run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("spool") {
				cfg.SpoolPath = spoolPath
			}
			if err := cfg.ValidatePublisher(); err != nil {
				return err
			}

			spool := buildSpool(cfg)
			if spool == nil {
				logger.L().Info("replay.disabled")
				return nil
			}

			store, closer, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			snd := buildSender(cfg)
			defer snd.Close()

			res, err := pipeline.Replay(cmd.Context(), spool, snd, store, retryPolicy(cfg), cfg.PublishTimeout)
			logger.L().Info("replay.done", "chunks", res.Chunks, "records", res.Records, "remaining", res.Remaining)
			return err
		},
	}

	c.Flags().StringVar(&spoolPath, "spool", "", "spool file (SPOOL_PATH)")
	return c
}
