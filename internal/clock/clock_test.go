package clock

import (
	"testing"
	"time"
)

func TestSystemClock_SessionOpen_NSEWithinHours(t *testing.T) {
	c := NewSystemClock(nil)
	ist := istLocation
	// A Wednesday at 10:00 IST, well within NSE's 09:15-15:30 window.
	t1 := time.Date(2024, time.January, 10, 10, 0, 0, 0, ist)

	open, ok := c.SessionOpen("NSE", t1)
	if !ok {
		t.Fatal("expected NSE to be a known venue")
	}
	if !open {
		t.Error("expected NSE session open at 10:00 IST on a weekday")
	}
}

func TestSystemClock_SessionOpen_NSEOutsideHours(t *testing.T) {
	c := NewSystemClock(nil)
	ist := istLocation
	t1 := time.Date(2024, time.January, 10, 20, 0, 0, 0, ist) // well after close

	open, ok := c.SessionOpen("NSE", t1)
	if !ok {
		t.Fatal("expected NSE to be a known venue")
	}
	if open {
		t.Error("expected NSE session closed at 20:00 IST")
	}
}

func TestSystemClock_SessionOpen_WeekendAlwaysClosed(t *testing.T) {
	c := NewSystemClock(nil)
	ist := istLocation
	saturday := time.Date(2024, time.January, 13, 11, 0, 0, 0, ist) // a Saturday

	open, ok := c.SessionOpen("NSE", saturday)
	if !ok {
		t.Fatal("expected NSE to be a known venue")
	}
	if open {
		t.Error("expected NSE session closed on a Saturday")
	}
}

func TestSystemClock_SessionOpen_UnknownVenue(t *testing.T) {
	c := NewSystemClock(nil)
	_, ok := c.SessionOpen("NASDAQ", time.Now())
	if ok {
		t.Error("expected CLOCK_UNKNOWN (ok=false) for an unregistered venue")
	}
}

func TestSystemClock_SessionOpen_OperatorSuppliedVenueOverridesBuiltin(t *testing.T) {
	custom := map[string]Session{
		"NSE": {Location: estLocation, OpenHour: 0, OpenMinute: 0, CloseHour: 23, CloseMinute: 59},
	}
	c := NewSystemClock(custom)
	t1 := time.Date(2024, time.January, 10, 22, 0, 0, 0, estLocation)

	open, ok := c.SessionOpen("NSE", t1)
	if !ok || !open {
		t.Error("expected operator override to replace the builtin NSE session table")
	}
}

func TestVenueForSymbol(t *testing.T) {
	if got := VenueForSymbol("DOWJONES"); got != "DOWJONES" {
		t.Errorf("expected DOWJONES venue, got %q", got)
	}
	if got := VenueForSymbol("NIFTY50"); got != "NSE" {
		t.Errorf("expected NSE venue for an unrecognized-but-default symbol, got %q", got)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fc := FixedClock{At: at, Sessions: map[string]bool{"NSE": true}}

	if fc.Now() != at {
		t.Errorf("expected Now() to return the pinned time, got %v", fc.Now())
	}
	open, ok := fc.SessionOpen("NSE", time.Now())
	if !ok || !open {
		t.Error("expected FixedClock to report the wired session state regardless of timestamp argument")
	}
	if _, ok := fc.SessionOpen("DOWJONES", time.Now()); ok {
		t.Error("expected an absent venue to report CLOCK_UNKNOWN")
	}
}
