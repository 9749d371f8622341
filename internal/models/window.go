package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RecordLayout is how window bounds are stored and exported
	RecordLayout = "2006-01-02 15:04:05"
	// QueryLayout is the sdate/edate format historicdata.json expects
	QueryLayout = "2006-01-02-15-04-05"
)

var ErrInvalidWindow = errors.New("invalid date window")

var (
	qualifiedLayouts = []string{QueryLayout, RecordLayout, "2006/01/02 15:04:05", "2006/01/02-15-04-05"}
	dateLayouts      = []string{"2006-01-02", "2006/01/02"}
)

// Window is the inclusive time range of a historic query
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow accepts fully qualified timestamps or calendar dates. A calendar
// date expands to 00:00:00 for the start and 23:59:59 for the end.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseBound(start, false)
	if err != nil {
		return Window{}, err
	}
	e, err := parseBound(end, true)
	if err != nil {
		return Window{}, err
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, e.Format(RecordLayout), s.Format(RecordLayout))
	}
	return Window{Start: s, End: e}, nil
}

func parseBound(v string, endOfDay bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range qualifiedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			if endOfDay {
				t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidWindow, v)
}

func (w Window) StartString() string { return w.Start.Format(RecordLayout) }
func (w Window) EndString() string   { return w.End.Format(RecordLayout) }
func (w Window) QueryStart() string  { return w.Start.Format(QueryLayout) }
func (w Window) QueryEnd() string    { return w.End.Format(QueryLayout) }
