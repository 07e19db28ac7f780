package scheduling

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/physiocare/clinic/pkg/config"
	"github.com/physiocare/clinic/pkg/types"
)

// DefaultSlotLabels is the clinic's ordered list of treatment slots
var DefaultSlotLabels = []string{
	"7:00 AM - 8:30 AM",
	"9:00 AM - 10:30 AM",
	"10:30 AM - 12:00 PM",
	"12:00 PM - 1:30 PM",
	"2:00 PM - 3:30 PM",
	"3:30 PM - 5:00 PM",
}

// BreakLabel names the daily break window. No slot may overlap it.
const BreakLabel = "1:30 PM - 2:00 PM"

const clockLayout = "3:04 PM"

// Calendar enumerates bookable dates and the slot labels offered on each
type Calendar struct {
	labels        []string
	weekdayLimit  int
	saturdayLimit int
	horizonDays   int
	breakLabel    string
	breakStart    int
	breakEnd      int
	location      *time.Location
}

// CalendarOption customises a Calendar
type CalendarOption func(*Calendar)

// WithSlotLabels replaces the ordered slot label list
func WithSlotLabels(labels []string) CalendarOption {
	return func(c *Calendar) {
		c.labels = append([]string(nil), labels...)
	}
}

// WithLocation sets the time zone dates are resolved in
func WithLocation(loc *time.Location) CalendarOption {
	return func(c *Calendar) {
		c.location = loc
	}
}

// NewCalendar builds a calendar from the clinic rules
func NewCalendar(cfg config.ClinicConfig, opts ...CalendarOption) (*Calendar, error) {
	if cfg.WeekdaySlots < 0 || cfg.SaturdaySlots < 0 {
		return nil, fmt.Errorf("slot limits must not be negative, got weekday=%d saturday=%d",
			cfg.WeekdaySlots, cfg.SaturdaySlots)
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be at least one day, got %d", cfg.HorizonDays)
	}

	c := &Calendar{
		labels:        append([]string(nil), DefaultSlotLabels...),
		weekdayLimit:  cfg.WeekdaySlots,
		saturdayLimit: cfg.SaturdaySlots,
		horizonDays:   cfg.HorizonDays,
		breakLabel:    BreakLabel,
	}

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load clinic timezone %q: %w", cfg.Timezone, err)
		}
		c.location = loc
	} else {
		c.location = time.Local
	}

	start, end, err := parseSlotInterval(c.breakLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse break window: %w", err)
	}
	c.breakStart, c.breakEnd = start, end

	for _, opt := range opts {
		opt(c)
	}

	for _, label := range c.labels {
		if _, _, err := parseSlotInterval(label); err != nil {
			return nil, fmt.Errorf("invalid slot label %q: %w", label, err)
		}
	}

	return c, nil
}

// Location returns the time zone the calendar resolves dates in
func (c *Calendar) Location() *time.Location {
	return c.location
}

// SlotsForWeekday returns the labels offered on weekday. The label list is
// truncated to the weekday's limit first and the break window is removed
// from what remains.
func (c *Calendar) SlotsForWeekday(weekday time.Weekday) []string {
	limit := c.weekdayLimit
	switch weekday {
	case time.Sunday:
		return []string{}
	case time.Saturday:
		limit = c.saturdayLimit
	}
	if limit > len(c.labels) {
		limit = len(c.labels)
	}

	slots := make([]string, 0, limit)
	for _, label := range c.labels[:limit] {
		if c.inBreak(label) {
			continue
		}
		slots = append(slots, label)
	}
	return slots
}

// SlotsForDate returns the labels offered on a YYYY-MM-DD date
func (c *Calendar) SlotsForDate(date string) ([]string, error) {
	d, err := c.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return c.SlotsForWeekday(d.Weekday()), nil
}

// Offers reports whether label is bookable on date
func (c *Calendar) Offers(date, label string) (bool, error) {
	slots, err := c.SlotsForDate(date)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot == label {
			return true, nil
		}
	}
	return false, nil
}

// ParseDate parses a YYYY-MM-DD date in the clinic's time zone
func (c *Calendar) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(types.DateLayout, date, c.location)
	if err != nil {
		return time.Time{}, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date),
			map[string]interface{}{"date": date})
	}
	return d, nil
}

// BookableDates yields every date from today through the end of the
// horizon, skipping Sundays. Each range over the result starts again
// from today.
func (c *Calendar) BookableDates(today time.Time) iter.Seq[types.BookableDate] {
	local := today.In(c.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)
	horizon := c.horizonDays

	return func(yield func(types.BookableDate) bool) {
		for i := 0; i < horizon; i++ {
			d := start.AddDate(0, 0, i)
			if d.Weekday() == time.Sunday {
				continue
			}
			if !yield(types.BookableDate{
				Value:   d.Format(types.DateLayout),
				Label:   d.Format("Monday, Jan 2"),
				Weekday: d.Weekday().String(),
			}) {
				return
			}
		}
	}
}

func (c *Calendar) inBreak(label string) bool {
	if label == c.breakLabel {
		return true
	}
	start, end, err := parseSlotInterval(label)
	if err != nil {
		return false
	}
	return start < c.breakEnd && end > c.breakStart
}

// parseSlotInterval turns "9:00 AM - 10:30 AM" into minutes since midnight
func parseSlotInterval(label string) (int, int, error) {
	normalized := strings.ReplaceAll(label, "–", "-")
	from, to, found := strings.Cut(normalized, " - ")
	if !found {
		return 0, 0, fmt.Errorf("missing separator in %q", label)
	}

	start, err := time.Parse(clockLayout, strings.TrimSpace(from))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(clockLayout, strings.TrimSpace(to))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end time: %w", err)
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if endMin <= startMin {
		return 0, 0, fmt.Errorf("slot %q ends before it starts", label)
	}
	return startMin, endMin, nil
}
