package server

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errInvalidTime = errors.New("invalid_time")

// optional runs parse on a trimmed query value. Blank values yield nil.
func optional[T any](raw string, parse func(string) (T, error)) (*T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	return optional(raw, strconv.ParseBool)
}

func parseOptionalInt(raw string) (*int, error) {
	return optional(raw, strconv.Atoi)
}

// parseOptionalTime takes RFC3339 or YYYY-MM-DD. Dates are UTC and, when
// endOfDay is set, land on the last nanosecond of that day.
func parseOptionalTime(raw string, endOfDay bool) (*time.Time, error) {
	return optional(raw, func(s string) (time.Time, error) {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, nil
		}
		day, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
		if err != nil {
			return time.Time{}, errInvalidTime
		}
		if endOfDay {
			return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return day, nil
	})
}
