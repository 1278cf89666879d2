package timestamp

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the canonical form exposed to callers.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Seconds is the store-native timestamp shape (epoch seconds plus nanoseconds).
type Seconds struct {
	Seconds     int64 `json:"seconds" yaml:"seconds"`
	Nanoseconds int64 `json:"nanoseconds" yaml:"nanoseconds"`
}

// FromTime converts t into the store-native shape.
func FromTime(t time.Time) Seconds {
	return Seconds{Seconds: t.Unix(), Nanoseconds: int64(t.Nanosecond())}
}

// Millis extracts epoch milliseconds from any timestamp representation the
// store may hand back. Absent or unparseable values yield 0.
func Millis(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case time.Time:
		if t.IsZero() {
			return 0
		}
		return t.UnixMilli()
	case *time.Time:
		if t == nil {
			return 0
		}
		return Millis(*t)
	case Seconds:
		return t.Seconds*1000 + t.Nanoseconds/1_000_000
	case *Seconds:
		if t == nil {
			return 0
		}
		return Millis(*t)
	case map[string]any:
		if _, ok := t["seconds"]; !ok {
			return 0
		}
		return Millis(Seconds{Seconds: toInt64(t["seconds"]), Nanoseconds: toInt64(t["nanoseconds"])})
	case int:
		return int64(t)
	case int64:
		return t
	case int32:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int64(t)
	case string:
		return parseString(t)
	case *string:
		if t == nil {
			return 0
		}
		return parseString(*t)
	}
	return 0
}

// ISO normalizes v to the canonical ISO-8601 string, or nil when v carries no
// usable instant.
func ISO(v any) *string {
	ms := Millis(v)
	if ms == 0 {
		return nil
	}
	s := time.UnixMilli(ms).UTC().Format(ISOLayout)
	return &s
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	// numeric strings are treated as epoch millis
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	}
	return 0
}
