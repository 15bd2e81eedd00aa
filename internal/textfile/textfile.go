// Package textfile implements the file-backed raw log source: a tailing
// reader that turns a growing text file into a listener-notifying,
// column-oriented log source. Truncation and deletion reset the source.
package textfile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
	"github.com/jspencer/lens/pkg/logformat"
)

// Options configures the file source.
type Options struct {
	// PollInterval is how often the file is checked for changes.
	PollInterval time.Duration
	// LevelPatterns overrides the level detection table.
	LevelPatterns logformat.LevelPatterns
}

// Source tails a text file into an in-memory log source. It implements
// source.LogSource by delegation.
type Source struct {
	*source.InMemory

	path     string
	detector *logformat.LevelDetector
	parser   *logformat.TimestampParser

	// Task-local scan state.
	offset  int64
	partial []byte
	missing bool

	interval time.Duration
	task     *scheduler.Handle
}

// Open creates a file source for path. When sched is non-nil the source
// polls on its own periodic task; otherwise the caller drives RunOnce.
// A missing file is not an error: the source stays empty with
// EmptyReasonSourceDoesNotExist until the file appears.
func Open(path string, opts Options, sched *scheduler.Scheduler) *Source {
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.DefaultPollInterval
	}
	s := &Source{
		InMemory: source.NewInMemory(),
		path:     path,
		detector: logformat.NewLevelDetector(opts.LevelPatterns),
		parser:   logformat.NewTimestampParser(),
		interval: opts.PollInterval,
	}
	s.PublishProperty(properties.Name, path)
	s.PublishProperty(properties.Format, "text")
	if sched != nil {
		s.task = sched.StartPeriodic("textfile:"+path, s)
	}
	return s
}

// RunOnce implements scheduler.Task: one poll of the underlying file.
func (s *Source) RunOnce(ctx context.Context) time.Duration {
	if err := s.scan(ctx); err != nil {
		log.Printf("textfile: scanning %s: %v", s.path, err)
	}
	return s.interval
}

// Close stops the polling task. The accumulated lines stay queryable.
func (s *Source) Close() {
	if s.task != nil {
		s.task.Stop()
	}
}

// Path returns the tailed file's path.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) scan(ctx context.Context) error {
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !s.missing {
			s.missing = true
			s.offset = 0
			s.partial = nil
			s.Clear()
			s.PublishProperty(properties.EmptyReason, domain.EmptyReasonSourceDoesNotExist)
		}
		return nil
	case err != nil:
		s.PublishProperty(properties.EmptyReason, domain.EmptyReasonSourceCannotBeAccessed)
		return err
	}

	if s.missing {
		s.missing = false
		s.PublishProperty(properties.EmptyReason, domain.EmptyReasonNone)
	}

	if info.Size() < s.offset {
		// Truncated: everything previously read is invalid.
		s.offset = 0
		s.partial = nil
		s.Clear()
	}
	s.PublishProperty(properties.Size, info.Size())
	s.PublishProperty(properties.LastModified, info.ModTime())

	if info.Size() == s.offset {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		s.PublishProperty(properties.EmptyReason, domain.EmptyReasonSourceCannotBeAccessed)
		return err
	}
	defer file.Close()

	if _, err := file.Seek(s.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.offset += int64(len(data))

	s.ingest(ctx, data)
	return nil
}

// ingest splits new bytes into lines and appends the complete ones. A
// trailing fragment without a newline is held back until it completes.
func (s *Source) ingest(ctx context.Context, data []byte) {
	data = append(s.partial, data...)
	s.partial = nil

	var lines []source.Line
	for {
		if ctx.Err() != nil {
			return
		}
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			s.partial = data
			break
		}
		raw := string(bytes.TrimSuffix(data[:nl], []byte{'\r'}))
		data = data[nl+1:]
		lines = append(lines, source.Line{
			Content:   raw,
			Level:     s.detector.Detect(raw),
			Timestamp: s.parser.Parse(raw),
		})
	}
	if len(lines) > 0 {
		s.Append(lines...)
	}
}
