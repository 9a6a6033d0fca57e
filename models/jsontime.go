package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONTime accepts the timestamp shapes clients send: RFC3339, RFC3339 without a zone,
// with milli/microseconds, or a bare date.
type JSONTime time.Time

var jsonTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (jt *JSONTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("JSONTime.UnmarshalJSON: expected string: %w", err)
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	*jt = JSONTime(t)
	return nil
}

// MarshalJSON always emits full RFC3339.
func (jt JSONTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(jt).Format(time.RFC3339))
}

// Time converts back to time.Time in UTC.
func (jt JSONTime) Time() time.Time {
	return time.Time(jt).UTC()
}

// ParseTime tries each accepted layout in turn. Layouts without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range jsonTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("JSONTime: cannot parse %q", s)
}
