// Package jsontime provides time types with human-friendly wire formats:
// Unix serializes as Unix seconds, Duration as a duration string. Both
// also implement the encoding.Text interfaces, so they work in YAML
// configuration files as well as JSON payloads.
package jsontime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Unix is a time.Time that serializes to/from Unix seconds.
type Unix time.Time

// Now returns the current time as Unix.
func Now() Unix {
	return Unix(time.Now())
}

// Time returns the underlying time.Time value.
func (u Unix) Time() time.Time { return time.Time(u) }

// Seconds returns the time as fractional Unix seconds.
func (u Unix) Seconds() float64 {
	return float64(time.Time(u).UnixNano()) / 1e9
}

// FromSeconds builds a Unix from fractional Unix seconds.
func FromSeconds(s float64) Unix {
	return Unix(time.Unix(0, int64(s*1e9)))
}

// IsZero reports whether u is the zero time instant.
func (u Unix) IsZero() bool { return time.Time(u).IsZero() }

// Before reports whether u is before t.
func (u Unix) Before(t Unix) bool { return time.Time(u).Before(time.Time(t)) }

// After reports whether u is after t.
func (u Unix) After(t Unix) bool { return time.Time(u).After(time.Time(t)) }

// Add returns the time u+d.
func (u Unix) Add(d time.Duration) Unix { return Unix(time.Time(u).Add(d)) }

func (u Unix) String() string { return time.Time(u).String() }

// MarshalJSON implements json.Marshaler.
func (u Unix) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(u).Unix())
}

// UnmarshalJSON implements json.Unmarshaler. Fractional seconds are
// accepted and kept.
func (u *Unix) UnmarshalJSON(b []byte) error {
	var s float64
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("jsontime: unix seconds: %w", err)
	}
	*u = FromSeconds(s)
	return nil
}

// Duration is a time.Duration that serializes as a duration string
// ("1h30m"); an integer nanosecond count is also accepted on input.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(s))
	}
	var ns int64
	if err := json.Unmarshal(b, &ns); err != nil {
		return fmt.Errorf("jsontime: duration: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// MarshalText implements encoding.TextMarshaler (used by YAML).
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (used by YAML).
func (d *Duration) UnmarshalText(b []byte) error {
	dur, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("jsontime: duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}
