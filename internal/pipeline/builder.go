package pipeline

import (
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// ViewOptions selects which stages a composed view runs.
type ViewOptions struct {
	// Multiline enables the grouping stage.
	Multiline bool
	// LineFilter keeps only matching physical lines; nil accepts all.
	LineFilter LineFilter
	// EntryFilter keeps only matching logical entries; nil accepts all.
	EntryFilter EntryFilter
}

// filtered reports whether a filter stage is needed at all.
func (o ViewOptions) filtered() bool {
	return o.LineFilter != nil || o.EntryFilter != nil
}

// View is a composed pipeline over a raw source. Dispose tears the stages
// down in downstream-first order; the raw source is left untouched.
type View struct {
	Source  source.LogSource
	grouper *Grouper
	filter  *FilterStage
}

// Build composes raw → (grouper) → (filter) per the options. With neither
// stage enabled the view is the raw source itself.
func Build(raw source.LogSource, opts ViewOptions, sched *scheduler.Scheduler) *View {
	v := &View{Source: raw}
	if opts.Multiline {
		v.grouper = NewGrouper(raw, sched)
		v.Source = v.grouper
	}
	if opts.filtered() {
		v.filter = NewFilterStage(v.Source, opts.LineFilter, opts.EntryFilter, sched)
		v.Source = v.filter
	}
	return v
}

// Filter returns the view's filter stage, or nil.
func (v *View) Filter() *FilterStage {
	return v.filter
}

// Grouper returns the view's grouping stage, or nil.
func (v *View) Grouper() *Grouper {
	return v.grouper
}

// Dispose releases the view's stages, listeners first.
func (v *View) Dispose() {
	if v.filter != nil {
		v.filter.Dispose()
	}
	if v.grouper != nil {
		v.grouper.Dispose()
	}
}
