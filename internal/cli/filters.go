package cli

import (
	"fmt"

	"github.com/jspencer/lens/internal/config"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/pipeline"
)

// buildViewOptions translates flags and config into pipeline options
func buildViewOptions(cfg *config.Config) (pipeline.ViewOptions, error) {
	opts := pipeline.ViewOptions{
		Multiline: multiline || cfg.View.Multiline,
	}

	var lineFilters []pipeline.LineFilter
	if pattern != "" {
		if useRegex {
			f, err := pipeline.NewRegexFilter(pattern)
			if err != nil {
				return opts, err
			}
			lineFilters = append(lineFilters, f)
		} else {
			lineFilters = append(lineFilters, pipeline.NewSubstringFilter(pattern))
		}
	}

	levelName := minLevel
	if levelName == "" {
		levelName = cfg.View.MinimumLevel
	}
	if levelName != "" {
		level, ok := domain.ParseLevel(levelName)
		if !ok {
			return opts, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidArgument, levelName)
		}
		if level != domain.LevelNone {
			lineFilters = append(lineFilters, pipeline.NewMinimumLevelFilter(level))
		}
	}

	switch len(lineFilters) {
	case 0:
	case 1:
		opts.LineFilter = lineFilters[0]
	default:
		opts.LineFilter = pipeline.NewAndFilter(lineFilters...)
	}
	return opts, nil
}
