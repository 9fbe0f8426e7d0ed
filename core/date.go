// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"strings"
	"time"
)

const (
	// DateLayout is the canonical layout of Document.DateString.
	DateLayout = "2006-01-02"

	compactLayout  = "20060102150405"
	compactTLayout = "20060102T150405Z"
)

// DateKind tags the variant held by a DateInput.
type DateKind int

const (
	// DateAbsent is the fallback variant; it normalizes to the current time.
	DateAbsent DateKind = iota
	// DateTime holds a structured time value.
	DateTime
	// DateCompact holds a YYYYMMDDHHMMSS string (or YYYYMMDDTHHMMSSZ).
	DateCompact
	// DateText holds any other string; its first 10 characters are read as YYYY-MM-DD.
	DateText
)

func (k DateKind) String() string {
	switch k {
	case DateTime:
		return "time"
	case DateCompact:
		return "compact"
	case DateText:
		return "text"
	default:
		return "absent"
	}
}

// DateInput is a source-supplied date in one of the recognized shapes.
// The zero value is DateAbsent.
type DateInput struct {
	kind DateKind
	t    time.Time
	s    string
}

// NoDate returns the fallback variant.
func NoDate() DateInput {
	return DateInput{}
}

// DateFromTime wraps a structured time value. A zero time is treated as absent.
func DateFromTime(t time.Time) DateInput {
	if t.IsZero() {
		return DateInput{}
	}
	return DateInput{kind: DateTime, t: t}
}

// DateFromTimePtr wraps an optional time value, as exposed by feed parsers.
func DateFromTimePtr(t *time.Time) DateInput {
	if t == nil {
		return DateInput{}
	}
	return DateFromTime(*t)
}

// DateFromString classifies a raw date string.
// Blank strings are absent, compact numeric timestamps are DateCompact,
// everything else is DateText.
func DateFromString(s string) DateInput {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateInput{}
	}
	if isCompact(s) {
		return DateInput{kind: DateCompact, s: s}
	}
	return DateInput{kind: DateText, s: s}
}

// Kind returns the variant tag.
func (d DateInput) Kind() DateKind {
	return d.kind
}

// String returns the raw form of the input, for logging.
func (d DateInput) String() string {
	switch d.kind {
	case DateTime:
		return d.t.Format(time.RFC3339)
	case DateCompact, DateText:
		return d.s
	default:
		return ""
	}
}

// NormalizeDate converts a date input into a canonical (YYYY-MM-DD, unix seconds) pair.
// It never fails: absent or unusable input falls back to the current time.
func NormalizeDate(d DateInput) (string, int64) {
	return NormalizeDateAt(d, time.Now())
}

// NormalizeDateAt is NormalizeDate with an explicit fallback time.
// All dates are expressed in UTC.
func NormalizeDateAt(d DateInput, now time.Time) (string, int64) {
	t, ok := d.resolve()
	if !ok || t.Unix() <= 0 {
		t = now
	}
	t = t.UTC()
	return t.Format(DateLayout), t.Unix()
}

func (d DateInput) resolve() (time.Time, bool) {
	switch d.kind {
	case DateTime:
		return d.t, true
	case DateCompact:
		layout := compactLayout
		if len(d.s) == len(compactTLayout) {
			layout = compactTLayout
		}
		t, err := time.ParseInLocation(layout, d.s, time.UTC)
		return t, err == nil
	case DateText:
		if len(d.s) < len(DateLayout) {
			return time.Time{}, false
		}
		t, err := time.ParseInLocation(DateLayout, d.s[:len(DateLayout)], time.UTC)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

// isCompact reports whether s looks like YYYYMMDDHHMMSS or YYYYMMDDTHHMMSSZ.
func isCompact(s string) bool {
	switch len(s) {
	case len(compactLayout):
		return allDigits(s)
	case len(compactTLayout):
		return s[8] == 'T' && s[15] == 'Z' && allDigits(s[:8]) && allDigits(s[9:15])
	default:
		return false
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
