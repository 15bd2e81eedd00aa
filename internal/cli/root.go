// Package cli implements the lens command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jspencer/lens/internal/config"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath string
	multiline  bool
	pattern    string
	useRegex   bool
	minLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lens",
	Short: "A log viewing engine",
	Long: `lens continuously ingests growing log files and maintains derived
views over them: multi-line entries are fused into logical entries and
line- and entry-level filters select what you see. Views update
incrementally and stay consistent while the file grows, shrinks or is
replaced.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: lens.yaml in standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&multiline, "multiline", "m", false, "fuse continuation lines into multi-line entries")
	rootCmd.PersistentFlags().StringVarP(&pattern, "pattern", "p", "", "only show lines matching this pattern")
	rootCmd.PersistentFlags().BoolVar(&useRegex, "regex", false, "treat --pattern as a regular expression")
	rootCmd.PersistentFlags().StringVarP(&minLevel, "level", "l", "", "only show lines at or above this level")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catCmd)
}

// loadConfig resolves the configuration from flags and standard locations
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, ok := config.FindConfigFile()
		if !ok {
			return config.Default(), nil
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}
