package util

import (
	"strconv"
	"strings"
	"time"
)

func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatSeconds renders a duration as seconds with microsecond precision.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

// FormatStat renders a heap counter. Negative values mean the backend could
// not provide the counter and render as an empty cell.
func FormatStat(v int64) string {
	if v < 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func FormatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseInt accepts underscores as digit separators, so "1_200_000" works.
func ParseInt(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
}

func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func ParseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}
