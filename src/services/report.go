package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"keytally/src/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// Reporter writes the human-facing console output. It is safe for
// concurrent use by the flush scheduler and the shutdown path.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) Status(msg string) {
	r.write(msg + "\n")
}

func (r *Reporter) Loaded(summary models.Summary) {
	r.write("Previous data:\n" + FormatSummary(summary) + "\n")
}

func (r *Reporter) Session(summary models.Summary) {
	r.write("Total metrics for the current session:\n" + FormatSummary(summary) + "\n")
}

func (r *Reporter) Counts(rows []models.InputCount) {
	r.write("\nCurrent Input Counts:\n" + FormatCounts(rows))
}

func (r *Reporter) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, s)
}

func FormatSummary(s models.Summary) string {
	lastUpdated := "never"
	if !s.LastUpdated.IsZero() {
		lastUpdated = formatStamp(s.LastUpdated)
	}
	return fmt.Sprintf(
		"Mouse Clicks - L: [%d] R: [%d] M: [%d]\nTotal key presses: %d\nLast updated: %s",
		s.LeftClicks, s.RightClicks, s.MiddleClicks, s.TotalKeyPresses, lastUpdated,
	)
}

// FormatCounts renders report rows as an aligned table, one row per line.
func FormatCounts(rows []models.InputCount) string {
	if len(rows) == 0 {
		return "(no inputs recorded)\n"
	}

	cells := make([][3]string, 0, len(rows)+1)
	cells = append(cells, [3]string{"INPUT", "COUNT", "LAST UPDATED"})
	for _, row := range rows {
		updated := "-"
		if !row.LastUpdated.IsZero() {
			updated = formatStamp(row.LastUpdated)
		}
		cells = append(cells, [3]string{string(row.InputName), strconv.FormatInt(row.PressCount, 10), updated})
	}

	var widths [3]int
	for _, c := range cells {
		for i, v := range c {
			if w := runewidth.StringWidth(v); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, c := range cells {
		b.WriteString(runewidth.FillRight(c[0], widths[0]))
		b.WriteString("  ")
		b.WriteString(runewidth.FillLeft(c[1], widths[1]))
		b.WriteString("  ")
		b.WriteString(c[2])
		b.WriteByte('\n')
	}
	return b.String()
}

func formatStamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}
