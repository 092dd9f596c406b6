package textfmt

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"iso date", "2024-03-05", "5 de março de 2024"},
		{"iso date december", "2023-12-31", "31 de dezembro de 2023"},
		{"already formatted", "5 de março de 2024", "5 de março de 2024"},
		{"day first slash", "05/03/2024", "5 de março de 2024"},
		{"rfc3339 keeps utc day", "2024-03-05T23:30:00Z", "5 de março de 2024"},
		{"unparseable", "amanhã cedo", "amanhã cedo"},
		{"empty", "", ""},
		{"iso with spaces", " 2024-01-10 ", "10 de janeiro de 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDate(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatDateIdempotent(t *testing.T) {
	inputs := []string{"2024-03-05", "05/03/2024", "2024-03-05T10:00:00Z", "5 de março de 2024", "qualquer coisa", "2020-02-29"}
	for _, in := range inputs {
		once := FormatDate(in)
		twice := FormatDate(once)
		if once != twice {
			t.Errorf("FormatDate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFormatDateNoTimezoneDrift(t *testing.T) {
	orig := time.Local
	defer func() { time.Local = orig }()

	zones := []*time.Location{
		time.UTC,
		time.FixedZone("BRT", -3*3600),
		time.FixedZone("HST", -10*3600),
		time.FixedZone("NZST", 12*3600),
	}
	for _, loc := range zones {
		time.Local = loc
		if got := FormatDate("2024-03-05"); got != "5 de março de 2024" {
			t.Errorf("Zone %s: expected 5 de março de 2024, got %q", loc, got)
		}
	}
}

func TestShortDateTime(t *testing.T) {
	at := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	if got := ShortDateTime(at); got != "05/03/2024 às 14:07" {
		t.Errorf("Unexpected trailer timestamp %q", got)
	}
}
