// Package clock implements the Clock boundary (§6): monotonic/wall time
// plus a session-open/session-close predicate per supported venue. NSE and
// DOWJONES need different schedules (§9 open question); this package
// generalizes to a per-venue session table instead of hard-coding NSE hours.
package clock

import (
	"fmt"
	"time"
)

// Session describes one venue's trading window in its own local timezone,
// Monday-Friday, no holiday calendar (holiday handling is a non-goal; the
// core only needs an open/closed predicate per §6).
type Session struct {
	Location      *time.Location
	OpenHour      int
	OpenMinute    int
	CloseHour     int
	CloseMinute   int
}

// contains reports whether t (converted to the session's own timezone)
// falls within the open window on a trading day.
func (s Session) contains(t time.Time) bool {
	local := t.In(s.Location)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(local.Year(), local.Month(), local.Day(), s.OpenHour, s.OpenMinute, 0, 0, s.Location)
	close := time.Date(local.Year(), local.Month(), local.Day(), s.CloseHour, s.CloseMinute, 0, 0, s.Location)
	return !local.Before(open) && local.Before(close)
}

var (
	// istLocation/estLocation fall back to fixed offsets if the tzdata
	// database is unavailable in the runtime environment, so session
	// classification never silently breaks in a minimal container image.
	istLocation = mustLocation("Asia/Kolkata", 5*60+30)
	estLocation = mustLocation("America/New_York", -5*60)
)

func mustLocation(name string, fallbackOffsetMinutes int) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone(name, fallbackOffsetMinutes*60)
}

// Builtin venue sessions. NSE runs 09:15-15:30 IST; DOWJONES is tracked
// against regular NYSE cash-session hours, 09:30-16:00 America/New_York.
var builtinSessions = map[string]Session{
	"NSE":      {Location: istLocation, OpenHour: 9, OpenMinute: 15, CloseHour: 15, CloseMinute: 30},
	"DOWJONES": {Location: estLocation, OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
}

// Clock is the core's only source of wall-clock time and session state
// (§6). Constructed once and shared read-only across the generator and
// tracker loops.
type Clock interface {
	Now() time.Time
	// SessionOpen reports whether venue is currently in its trading
	// session. ok is false when venue has no known schedule (§7
	// CLOCK_UNKNOWN): callers must not guess in that case.
	SessionOpen(venue string, t time.Time) (open bool, ok bool)
}

// SystemClock is the production Clock, backed by wall-clock time and the
// builtin venue session table plus any operator-supplied overrides.
type SystemClock struct {
	sessions map[string]Session
}

// NewSystemClock constructs a SystemClock. extra lets operators register
// additional venues (or override builtins) via config without a rebuild.
func NewSystemClock(extra map[string]Session) *SystemClock {
	sessions := make(map[string]Session, len(builtinSessions)+len(extra))
	for venue, s := range builtinSessions {
		sessions[venue] = s
	}
	for venue, s := range extra {
		sessions[venue] = s
	}
	return &SystemClock{sessions: sessions}
}

func (c *SystemClock) Now() time.Time { return time.Now() }

func (c *SystemClock) SessionOpen(venue string, t time.Time) (bool, bool) {
	s, ok := c.sessions[venue]
	if !ok {
		return false, false
	}
	return s.contains(t), true
}

// FixedClock is a deterministic Clock for tests: Now() is pinned and
// session state is whatever the test wires in.
type FixedClock struct {
	At       time.Time
	Sessions map[string]bool // venue -> open; absent venue => unknown
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) SessionOpen(venue string, _ time.Time) (bool, bool) {
	open, ok := c.Sessions[venue]
	return open, ok
}

// VenueForSymbol derives the venue key for a symbol using the documented
// naming convention (NIFTY/BANKNIFTY trade on NSE, DOWJONES on the NYSE
// session), overridable by explicit config mapping upstream.
func VenueForSymbol(symbol string) string {
	switch symbol {
	case "DOWJONES":
		return "DOWJONES"
	default:
		return "NSE"
	}
}

// String renders a session for diagnostics/config dumps.
func (s Session) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d %s", s.OpenHour, s.OpenMinute, s.CloseHour, s.CloseMinute, s.Location)
}
