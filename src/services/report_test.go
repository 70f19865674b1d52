package services

import (
	"strings"
	"testing"
	"time"

	"keytally/src/models"
)

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(models.Summary{LeftClicks: 2, RightClicks: 1, MiddleClicks: 0, TotalKeyPresses: 3})
	want := "Mouse Clicks - L: [2] R: [1] M: [0]\nTotal key presses: 3\nLast updated: never"
	if got != want {
		t.Fatalf("FormatSummary =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatCountsAlignsColumns(t *testing.T) {
	at := time.Date(2026, 10, 17, 10, 0, 0, 0, time.Local)
	out := FormatCounts([]models.InputCount{
		{InputName: "mouse_left", PressCount: 120, LastUpdated: at},
		{InputName: "a", PressCount: 7, LastUpdated: at},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("FormatCounts produced %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "INPUT       COUNT") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "a               7  2026-10-17 10:00:00") {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestFormatCountsEmpty(t *testing.T) {
	if got := FormatCounts(nil); got != "(no inputs recorded)\n" {
		t.Fatalf("FormatCounts(nil) = %q", got)
	}
}

func TestReporterWritesSections(t *testing.T) {
	var buf syncBuffer
	r := NewReporter(&buf)
	r.Loaded(models.Summary{TotalKeyPresses: 10})
	r.Counts([]models.InputCount{{InputName: "a", PressCount: 10}})
	r.Session(models.Summary{TotalKeyPresses: 11})

	out := buf.String()
	for _, want := range []string{"Previous data:", "Total key presses: 10", "Current Input Counts:", "Total metrics for the current session:", "Total key presses: 11"} {
		if !strings.Contains(out, want) {
			t.Fatalf("reporter output missing %q:\n%s", want, out)
		}
	}
}
