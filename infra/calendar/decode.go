// Package calendar imports busy time from iCalendar (RFC 5545) files.
package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/kilianp07/studyplan/core/logger"
	"github.com/kilianp07/studyplan/core/model"
)

// ErrInvalidFormat is returned when the payload is not an iCalendar stream.
var ErrInvalidFormat = errors.New("invalid iCalendar format")

// eventNamespace seeds deterministic IDs for events without a UID.
var eventNamespace = uuid.MustParse("0b6f8f2e-6a34-4d0c-9d7e-3f1f3d2c9a41")

// Stats counts what happened to the components of a calendar.
type Stats struct {
	Components  int `json:"components"`
	Events      int `json:"events"`
	Included    int `json:"included"`
	Cancelled   int `json:"cancelled"`
	MissingTime int `json:"missing_time"`
	Invalid     int `json:"invalid"`
	AllDay      int `json:"all_day"`
	Duplicates  int `json:"duplicates"`
	Recurring   int `json:"recurring"`
	GeneratedID int `json:"generated_id"`
}

// Filtered returns the number of events that were dropped.
func (s Stats) Filtered() int {
	return s.Cancelled + s.MissingTime + s.Invalid + s.AllDay + s.Duplicates
}

// Decoder converts VEVENT components into busy events.
type Decoder struct {
	// Location resolves floating times without TZID. Defaults to time.Local.
	Location *time.Location
	// KeepAllDay keeps events spanning whole days instead of skipping them.
	KeepAllDay bool
	Log        logger.Logger
}

// Decode parses r with the default Decoder.
func Decode(r io.Reader, userID string) ([]model.Event, Stats, error) {
	return Decoder{}.Decode(r, userID)
}

// Decode parses every calendar in r. Recurring events contribute their first
// occurrence only. The result is sorted by start.
func (d Decoder) Decode(r io.Reader, userID string) ([]model.Event, Stats, error) {
	var stats Stats
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Log == nil {
		d.Log = logger.NopLogger{}
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, fmt.Errorf("read calendar: %w", err)
	}
	if err := validateFormat(body); err != nil {
		return nil, stats, err
	}

	dec := ical.NewDecoder(bytes.NewReader(body))
	var events []model.Event
	seenIDs := map[string]bool{}
	seenKeys := map[string]bool{}
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("decode calendar: %w", err)
		}
		for _, comp := range cal.Children {
			stats.Components++
			if comp.Name != ical.CompEvent {
				continue
			}
			stats.Events++
			normalizeTimezones(comp)
			ev, ok := d.parseEvent(comp, userID, &stats)
			if !ok {
				continue
			}
			key := ev.Title + "|" + ev.Start.Format(time.RFC3339)
			if seenIDs[ev.ID] || seenKeys[key] {
				stats.Duplicates++
				d.Log.Debugw("duplicate event skipped", map[string]any{"uid": ev.ID, "title": ev.Title})
				continue
			}
			seenIDs[ev.ID] = true
			seenKeys[key] = true
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	stats.Included = len(events)
	d.Log.Debugw("calendar decoded", map[string]any{
		"user_id":  userID,
		"events":   stats.Events,
		"included": stats.Included,
		"filtered": stats.Filtered(),
	})
	return events, stats, nil
}

func (d Decoder) parseEvent(comp *ical.Component, userID string, stats *Stats) (model.Event, bool) {
	ev := model.Event{UserID: userID}
	if p := comp.Props.Get(ical.PropUID); p != nil {
		ev.ID = p.Value
	}
	if p := comp.Props.Get(ical.PropSummary); p != nil {
		ev.Title = p.Value
	}
	status := ""
	if p := comp.Props.Get(ical.PropStatus); p != nil {
		status = strings.ToUpper(p.Value)
	}
	if status == "CANCELLED" || isCancelledTitle(ev.Title) {
		stats.Cancelled++
		d.Log.Debugw("cancelled event skipped", map[string]any{"title": ev.Title})
		return ev, false
	}

	if p := comp.Props.Get(ical.PropDateTimeStart); p != nil {
		ev.Start, _ = d.parseDateTime(p)
	}
	if p := comp.Props.Get(ical.PropDateTimeEnd); p != nil {
		ev.End, _ = d.parseDateTime(p)
	} else if p := comp.Props.Get(ical.PropDuration); p != nil && !ev.Start.IsZero() {
		if dur, err := p.Duration(); err == nil {
			ev.End = ev.Start.Add(dur)
		}
	}
	if ev.Start.IsZero() || ev.End.IsZero() {
		stats.MissingTime++
		d.Log.Debugw("event without start or end skipped", map[string]any{"title": ev.Title})
		return ev, false
	}
	if ev.Start.After(ev.End) {
		stats.Invalid++
		d.Log.Debugw("event ending before it starts skipped", map[string]any{"title": ev.Title})
		return ev, false
	}
	if !d.KeepAllDay && isAllDay(ev.Interval) {
		stats.AllDay++
		return ev, false
	}
	if comp.Props.Get(ical.PropRecurrenceRule) != nil {
		stats.Recurring++
	}
	if ev.ID == "" {
		ev.ID = uuid.NewSHA1(eventNamespace, []byte(userID+"|"+ev.Start.UTC().Format(time.RFC3339)+"|"+ev.Title)).String()
		stats.GeneratedID++
	}
	return ev, true
}

var dateTimeFormats = []string{
	"20060102T150405",
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102",
}

func (d Decoder) parseDateTime(p *ical.Prop) (time.Time, error) {
	if t, err := p.DateTime(d.Location); err == nil {
		return t, nil
	}
	for _, layout := range dateTimeFormats {
		if t, err := time.ParseInLocation(layout, p.Value, d.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", p.Value)
}

func validateFormat(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return fmt.Errorf("%w: received HTML instead of iCalendar data", ErrInvalidFormat)
	}
	if !strings.HasPrefix(upper, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 40 {
			preview = preview[:40]
		}
		return fmt.Errorf("%w: expected BEGIN:VCALENDAR, got %q", ErrInvalidFormat, preview)
	}
	return nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func isCancelledTitle(title string) bool {
	clean := nonAlnum.ReplaceAllString(strings.ToLower(title), "")
	return strings.HasPrefix(clean, "canceled") || strings.HasPrefix(clean, "cancelled")
}

// isAllDay reports events spanning at least a whole day across dates.
func isAllDay(iv model.Interval) bool {
	return iv.Start.Format("2006-01-02") != iv.End.Format("2006-01-02") && iv.Duration() >= 24*time.Hour
}
