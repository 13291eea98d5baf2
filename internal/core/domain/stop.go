package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Stop is a transit stop registered locally. Its LocationID is assigned by
// the upstream transit API.
type Stop struct {
	LocationID    int64    `json:"stop_id"`
	Name          *string  `json:"name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	NextDeparture *string  `json:"next_departure"`
	LastUpdated   *string  `json:"last_updated"`
	LinkSelfHref  string   `json:"-"`
}

// Location is a single upstream stop search result.
type Location struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Point GeoPoint `json:"location"`
}

// DepartureEntry is one row of an upstream departure board. Every field is optional.
type DepartureEntry struct {
	Platform     *string `json:"platform,omitempty"`
	Direction    *string `json:"direction,omitempty"`
	OperatorName *string `json:"operator_name,omitempty"`
}

// OperatorProfile is a generated summary of an operator serving a stop.
type OperatorProfile struct {
	OperatorName string `json:"operator_name"`
	Information  string `json:"information"`
}

// StopField enumerates the columns a caller may patch.
type StopField string

const (
	FieldName          StopField = "name"
	FieldLatitude      StopField = "latitude"
	FieldLongitude     StopField = "longitude"
	FieldNextDeparture StopField = "next_departure"
	FieldLastUpdated   StopField = "last_updated"
)

// ParseStopField resolves a caller-supplied name to a StopField.
func ParseStopField(name string) (StopField, bool) {
	switch f := StopField(name); f {
	case FieldName, FieldLatitude, FieldLongitude, FieldNextDeparture, FieldLastUpdated:
		return f, true
	}
	return "", false
}

// IsNumeric reports whether the field holds a coordinate.
func (f StopField) IsNumeric() bool {
	return f == FieldLatitude || f == FieldLongitude
}

// FieldUpdate is one validated field assignment.
type FieldUpdate struct {
	Field StopField
	Value any
}

// TimestampLayout is the layout of server-generated last_updated values.
const TimestampLayout = "2006-01-02-15:04:05"

// Caller-supplied last_updated values have no separator between date and
// time. Kept as-is for client compatibility.
var patchTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\d{2}:\d{2}:\d{2}$`)

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ValidPatchTimestamp reports whether v is an acceptable caller-supplied last_updated.
func ValidPatchTimestamp(v string) bool {
	return patchTimestampPattern.MatchString(v)
}

// FormatNextDeparture renders the next_departure summary.
func FormatNextDeparture(platform, direction string) string {
	return fmt.Sprintf("Platform %s towards %s", platform, direction)
}
