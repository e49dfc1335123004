package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	ruleWidth  = 70
	clockStamp = "15:04:05.000"
)

// WriteSummary renders the end-of-ceremony summary.
func WriteSummary(w io.Writer, s Summary) error {
	var b strings.Builder
	res := s.Result
	rule := strings.Repeat("▲", ruleWidth)

	fmt.Fprintf(&b, "\n%s\n", rule)
	b.WriteString("COMPLETE WEATHER CEREMONY SUMMARY\n")
	fmt.Fprintf(&b, "%s\n", rule)

	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "Total mist events: %d\n", res.TotalMist)
	fmt.Fprintf(&b, "Total rain drops: %d\n", res.TotalShock)
	fmt.Fprintf(&b, "Thunder events: %d (max allowed: %d)\n", res.ThunderCount, res.ThunderCap)
	fmt.Fprintf(&b, "Total registered events: %d\n", len(res.Events))
	fmt.Fprintf(&b, "Net accumulation: %+.3f\n", res.NetDisplacement)

	disp := res.FinalDisplacement()
	fmt.Fprintf(&b, "Final state: %.3f (displacement: %+.3f)\n", res.FinalState, disp)
	if disp < 0 {
		b.WriteString("Lingering serene calm remains...\n")
	}

	if s.Shocks.Count > 0 {
		fmt.Fprintf(&b, "\nShock intensity: mean %.3f, sd %.3f, median %.3f, p90 %.3f, max %.3f\n",
			s.Shocks.Mean, s.Shocks.StdDev, s.Shocks.Median, s.Shocks.P90, s.Shocks.Max)
	}

	if len(s.Distribution) > 0 {
		b.WriteString("\nEvent Distribution:\n")
		for _, row := range s.Distribution {
			fmt.Fprintf(&b, "  %s: %3d (%5.1f%%)\n", padName(row.Name), row.Count, row.Percent)
		}
	}

	if len(s.MostIntense) > 0 {
		b.WriteString("\nMost Intense Shocks:\n")
		for i, ev := range s.MostIntense {
			fmt.Fprintf(&b, "  %d. %s - %s [%.3f]\n", i+1, ev.Timestamp.Format(clockStamp), padName(ev.DisplayName), ev.Intensity)
		}
	}

	if len(s.MostRelieving) > 0 {
		b.WriteString("\nMost Relieving Moments:\n")
		for i, ev := range s.MostRelieving {
			fmt.Fprintf(&b, "  %d. %s - %s [%.3f]\n", i+1, ev.Timestamp.Format(clockStamp), padName(ev.DisplayName), ev.Intensity)
		}
	}

	fmt.Fprintf(&b, "%s\n\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}

// padName left-aligns a display name to 24 runes; names carry emoji, so
// byte-width padding from %-24s would misalign them.
func padName(name string) string {
	return PadRight(name, 24)
}

// PadRight pads s with spaces to width runes.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
