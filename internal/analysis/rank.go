package analysis

import (
	"fmt"
	"sort"

	"p2p-market-sim/internal/sim"
)

// RankedRun pairs a manifest entry with the summaries of its CSVs.
// Decisions is zero-valued when the run was not instrumented.
type RankedRun struct {
	Record    sim.RunRecord
	Summary   RunSummary
	Decisions DecisionSummary
}

// SummarizeManifest summarizes every run the manifest points at.
func SummarizeManifest(m *sim.Manifest) ([]RankedRun, error) {
	out := make([]RankedRun, 0, len(m.Runs))
	for _, rec := range m.Runs {
		s, err := SummarizeRun(rec.IntervalCSV)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", rec.RunID, err)
		}
		rr := RankedRun{Record: rec, Summary: s}
		if rec.DecisionCSV != "" {
			d, err := SummarizeDecisions(rec.DecisionCSV)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", rec.RunID, err)
			}
			rr.Decisions = d
		}
		out = append(out, rr)
	}
	return out, nil
}

// RankByEfficiency sorts runs descending by mean realized efficiency.
func RankByEfficiency(runs []RankedRun) []RankedRun {
	out := append([]RankedRun(nil), runs...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Summary.MeanWHat > out[j].Summary.MeanWHat
	})
	return out
}
