package timezone

import (
	"errors"
	"testing"
	"time"
)

func TestResolveValid(t *testing.T) {
	s := NewService()
	loc, err := s.Resolve("Europe/Berlin")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("location = %q, want %q", loc.String(), "Europe/Berlin")
	}

	again, err := s.Resolve("Europe/Berlin")
	if err != nil {
		t.Fatalf("resolve cached: %v", err)
	}
	if again != loc {
		t.Error("expected cached location to be reused")
	}
}

func TestResolveInvalid(t *testing.T) {
	var s Service
	for _, id := range []string{"", "   ", "Local", " Local ", "Mars/Olympus_Mons", "not a zone"} {
		if _, err := s.Resolve(id); !errors.Is(err, ErrUnknownTimezone) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnknownTimezone", id, err)
		}
		if s.Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}

func TestToLocalAndBack(t *testing.T) {
	s := NewService()
	utc := time.Date(2026, 7, 1, 7, 0, 0, 0, time.UTC)

	local, err := s.ToLocal(utc, "Europe/Berlin")
	if err != nil {
		t.Fatalf("to local: %v", err)
	}
	if local.Hour() != 9 {
		t.Errorf("local hour = %d, want 9 (CEST)", local.Hour())
	}

	wall := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	back, err := s.ToUTC(wall, "Europe/Berlin")
	if err != nil {
		t.Fatalf("to utc: %v", err)
	}
	if !back.Equal(utc) {
		t.Errorf("ToUTC = %v, want %v", back, utc)
	}
	if back.Location() != time.UTC {
		t.Errorf("ToUTC location = %v, want UTC", back.Location())
	}
}

func TestToUTCWinterOffset(t *testing.T) {
	s := NewService()
	wall := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	got, err := s.ToUTC(wall, "America/New_York")
	if err != nil {
		t.Fatalf("to utc: %v", err)
	}
	want := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ToUTC = %v, want %v", got, want)
	}
}

func TestConversionUnknownZone(t *testing.T) {
	s := NewService()
	if _, err := s.ToLocal(time.Now(), "Nowhere/Land"); err == nil {
		t.Error("expected error for unknown zone")
	}
	if _, err := s.ToUTC(time.Now(), "Nowhere/Land"); err == nil {
		t.Error("expected error for unknown zone")
	}
}
