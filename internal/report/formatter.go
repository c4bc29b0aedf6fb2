package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatText renders the report as a human-readable summary, suitable for
// terminal output or a notifier message.
func FormatText(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔭 Scouting report | %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Seed window:   %s → %s\n",
		r.SeedWindow.Start.Format("2006-01-02 15:04"), r.SeedWindow.End.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Recent window: %s → %s\n",
		r.RecentWindow.Start.Format("2006-01-02 15:04"), r.RecentWindow.End.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Seed accounts: %s\n\n", humanize.Comma(int64(r.SeedAccounts))))

	if len(r.Assets) == 0 {
		b.WriteString("No accumulation detected in the recent window.\n")
		return b.String()
	}

	b.WriteString("Top accumulated assets:\n")
	for i, row := range r.Assets {
		usd := "unpriced"
		if row.Priced {
			usd = "$" + humanize.CommafWithDigits(row.TotalUSD.InexactFloat64(), 2)
		}
		b.WriteString(fmt.Sprintf("  %2d. %-8s %14s  (%s units, %d accounts)\n",
			i+1, row.Symbol, usd,
			humanize.CommafWithDigits(row.TotalUnits.InexactFloat64(), 4),
			row.AccountCount))
	}
	return b.String()
}
