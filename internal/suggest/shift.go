package suggest

import (
	"strconv"
	"strings"
	"time"

	"github.com/joss/cellpilot/internal/domain"
)

// ActiveWindow resolves the shift window covering the local time.
// A window whose start is later than its end wraps past midnight.
// When no window matches, the first configured window applies; with
// nothing configured, unit weights.
func ActiveWindow(windows []domain.ShiftWindow, now time.Time) domain.ShiftWindow {
	if len(windows) == 0 {
		return domain.UnitShiftWindow()
	}

	minutes := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		start, okStart := parseClock(w.StartTime)
		end, okEnd := parseClock(w.EndTime)
		if !okStart || !okEnd {
			continue
		}
		if start > end {
			// Wraps midnight, e.g. 22:00-06:00.
			if minutes >= start || minutes < end {
				return w
			}
		} else if minutes >= start && minutes < end {
			return w
		}
	}
	return windows[0]
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
