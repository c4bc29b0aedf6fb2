package report

import (
	"encoding/json"
	"fmt"
	"time"

	"chainscout/internal/model"
	"chainscout/internal/scout"
)

// Window is the JSON-friendly rendering of a time window.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report is the final scouting report payload.
type Report struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	SeedWindow   Window        `json:"seed_window"`
	RecentWindow Window        `json:"recent_window"`
	SeedAccounts int           `json:"seed_accounts"`
	Assets       model.Ranking `json:"assets"`
}

// FromResult assembles the report payload from an engine result.
func FromResult(res *scout.Result) *Report {
	return &Report{
		GeneratedAt:  res.FinishedAt,
		SeedWindow:   Window{Start: res.SeedWindow.Start, End: res.SeedWindow.End},
		RecentWindow: Window{Start: res.RecentWindow.Start, End: res.RecentWindow.End},
		SeedAccounts: len(res.Seeds),
		Assets:       res.Ranking,
	}
}

// JSON serializes the report for CLI output.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
