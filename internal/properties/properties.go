// Package properties implements the typed key/value store log sources use
// to publish metadata such as processing progress and entry counts.
package properties

import (
	"time"

	"github.com/jspencer/lens/internal/domain"
)

// Descriptor is a typed property key with a default value. Descriptors are
// compared by name.
type Descriptor struct {
	Name     string
	Default  any
	ReadOnly bool
}

// Minimum property set every log source must expose.
var (
	// PercentageProcessed is the source's processing progress in [0, 1].
	PercentageProcessed = Descriptor{Name: "percentage_processed", Default: float64(0), ReadOnly: true}
	// LogEntryCount is the number of rows the source currently exposes.
	LogEntryCount = Descriptor{Name: "log_entry_count", Default: int(0), ReadOnly: true}
	// EmptyReason explains why the source has no content.
	EmptyReason = Descriptor{Name: "empty_reason", Default: domain.EmptyReasonNone, ReadOnly: true}
	// StartTimestamp is the first timestamp observed in the source.
	StartTimestamp = Descriptor{Name: "start_timestamp", Default: time.Time{}, ReadOnly: true}
	// EndTimestamp is the last timestamp observed in the source.
	EndTimestamp = Descriptor{Name: "end_timestamp", Default: time.Time{}, ReadOnly: true}
	// Created is when the underlying source came into existence.
	Created = Descriptor{Name: "created", Default: time.Time{}, ReadOnly: true}
	// LastModified is when the underlying source last changed.
	LastModified = Descriptor{Name: "last_modified", Default: time.Time{}, ReadOnly: true}
	// Size is the underlying source's size in bytes.
	Size = Descriptor{Name: "size", Default: int64(0), ReadOnly: true}
	// Format names the detected log format.
	Format = Descriptor{Name: "format", Default: "", ReadOnly: false}
	// Name identifies the source (typically a file path).
	Name = Descriptor{Name: "name", Default: "", ReadOnly: true}
)

// MinimumDescriptors returns the minimum property set.
func MinimumDescriptors() []Descriptor {
	return []Descriptor{
		PercentageProcessed, LogEntryCount, EmptyReason,
		StartTimestamp, EndTimestamp, Created, LastModified,
		Size, Format, Name,
	}
}

// GetFloat reads a float64 property value, falling back to the default.
func GetFloat(src Getter, d Descriptor) float64 {
	if v, ok := src.GetProperty(d).(float64); ok {
		return v
	}
	v, _ := d.Default.(float64)
	return v
}

// GetInt reads an int property value, falling back to the default.
func GetInt(src Getter, d Descriptor) int {
	if v, ok := src.GetProperty(d).(int); ok {
		return v
	}
	v, _ := d.Default.(int)
	return v
}

// GetString reads a string property value, falling back to the default.
func GetString(src Getter, d Descriptor) string {
	if v, ok := src.GetProperty(d).(string); ok {
		return v
	}
	v, _ := d.Default.(string)
	return v
}

// GetTime reads a time property value, falling back to the default.
func GetTime(src Getter, d Descriptor) time.Time {
	if v, ok := src.GetProperty(d).(time.Time); ok {
		return v
	}
	v, _ := d.Default.(time.Time)
	return v
}

// Getter is the read side of a property store. Both *Bag and LogSource
// satisfy it.
type Getter interface {
	GetProperty(d Descriptor) any
}
