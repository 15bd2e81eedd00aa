package cli

import (
	"github.com/spf13/cobra"

	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/textfile"
	"github.com/jspencer/lens/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open a log file in the interactive viewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts, err := buildViewOptions(cfg)
		if err != nil {
			return err
		}

		sched := scheduler.New()
		defer sched.Stop()

		raw := textfile.Open(args[0], textfile.Options{
			PollInterval:  cfg.PollInterval(),
			LevelPatterns: cfg.LevelPatterns(),
		}, sched)
		defer raw.Close()

		return tui.Run(raw, opts, sched, cfg.View.Theme)
	},
}
