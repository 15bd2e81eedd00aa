package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/pipeline"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/source"
	"github.com/jspencer/lens/internal/textfile"
	"github.com/jspencer/lens/pkg/logformat"
)

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the filtered view of a log file and exit",
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

		raw := textfile.Open(args[0], textfile.Options{
			LevelPatterns: cfg.LevelPatterns(),
		}, nil)
		// One synchronous scan; cat does not tail.
		raw.RunOnce(context.Background())

		view := pipeline.Build(raw, opts, nil)
		defer view.Dispose()
		drain(view)

		total := source.Count(view.Source)
		for offset := 0; offset < total; offset += 1000 {
			count := total - offset
			if count > 1000 {
				count = 1000
			}
			rows := domain.LineIndices(domain.LogLineIndex(offset), count)
			buf := columns.NewMinimumBuffer(count)
			if err := view.Source.GetEntries(rows, buf, 0, source.DefaultQueryOptions); err != nil {
				return err
			}
			numbers := buf.Ints(columns.OriginalLineNumber)
			contents := buf.Strings(columns.RawContent)
			times := buf.Times(columns.Timestamp)
			for i := 0; i < count; i++ {
				ts := logformat.FormatTime(times[i])
				if ts != "" {
					ts += " "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s%s\n", numbers[i], ts, contents[i])
			}
		}
		return nil
	},
}

// drain runs the view's stages until they report full progress
func drain(view *pipeline.View) {
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		busy := false
		if g := view.Grouper(); g != nil {
			busy = g.RunOnce(ctx) == 0 || busy
		}
		if f := view.Filter(); f != nil {
			busy = f.RunOnce(ctx) == 0 || busy
		}
		if !busy && properties.GetFloat(view.Source, properties.PercentageProcessed) >= 1 {
			return
		}
		if !busy {
			time.Sleep(time.Millisecond)
		}
	}
}
