// Package analysis condenses run output back into comparable numbers:
// per-run summaries from the interval and decision CSVs, seed-pooled
// cell aggregates, and the welfare/compute frontier.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// RunSummary condenses one run's interval metrics CSV. Price
// percentiles are taken over the interval mean prices of intervals
// that actually traded.
type RunSummary struct {
	Intervals int
	Trades    int

	TradedKWh    float64
	PostedKWh    float64
	UnservedKWh  float64
	CurtailedKWh float64

	MeanW    float64
	MeanWHat float64

	PriceP05    float64
	PriceP95    float64
	PriceSpread float64
}

// DecisionSummary condenses one run's decision log. Every agent
// decides exactly once per interval, so the flat means equal the
// per-agent means.
type DecisionSummary struct {
	Decisions       int
	MeanWallMs      float64
	MeanOffersSeen  float64
	MeanSolverCalls float64
}

// SummarizeRun reads a runner-written interval metrics CSV.
func SummarizeRun(path string) (RunSummary, error) {
	records, err := readCSV(path)
	if err != nil {
		return RunSummary{}, err
	}
	cols, err := indexColumns(records[0],
		"trades", "traded_kwh", "posted_buy_kwh", "posted_sell_kwh",
		"unserved_kwh", "curtailment_kwh", "price_mean", "W", "W_hat")
	if err != nil {
		return RunSummary{}, fmt.Errorf("%s: %w", path, err)
	}

	var s RunSummary
	var sumW, sumWHat float64
	var prices []float64
	for _, row := range records[1:] {
		trades, err := strconv.Atoi(row[cols["trades"]])
		if err != nil {
			return RunSummary{}, fmt.Errorf("%s: bad trades value %q", path, row[cols["trades"]])
		}
		s.Intervals++
		s.Trades += trades
		s.TradedKWh += floatCell(row[cols["traded_kwh"]])
		s.PostedKWh += floatCell(row[cols["posted_buy_kwh"]]) + floatCell(row[cols["posted_sell_kwh"]])
		s.UnservedKWh += floatCell(row[cols["unserved_kwh"]])
		s.CurtailedKWh += floatCell(row[cols["curtailment_kwh"]])
		sumW += floatCell(row[cols["W"]])
		sumWHat += floatCell(row[cols["W_hat"]])
		if trades > 0 {
			prices = append(prices, floatCell(row[cols["price_mean"]]))
		}
	}
	if s.Intervals == 0 {
		return RunSummary{}, fmt.Errorf("%s: no interval rows", path)
	}

	s.MeanW = sumW / float64(s.Intervals)
	s.MeanWHat = sumWHat / float64(s.Intervals)

	if len(prices) > 0 {
		sort.Float64s(prices)
		s.PriceP05 = percentileSorted(prices, 0.05)
		s.PriceP95 = percentileSorted(prices, 0.95)
		s.PriceSpread = s.PriceP95 - s.PriceP05
	}
	return s, nil
}

// SummarizeDecisions reads a runner-written decision log CSV.
func SummarizeDecisions(path string) (DecisionSummary, error) {
	records, err := readCSV(path)
	if err != nil {
		return DecisionSummary{}, err
	}
	cols, err := indexColumns(records[0], "wall_ms", "offers_seen", "solver_calls")
	if err != nil {
		return DecisionSummary{}, fmt.Errorf("%s: %w", path, err)
	}

	var d DecisionSummary
	var wall, offers, solver float64
	for _, row := range records[1:] {
		d.Decisions++
		wall += floatCell(row[cols["wall_ms"]])
		offers += floatCell(row[cols["offers_seen"]])
		solver += floatCell(row[cols["solver_calls"]])
	}
	if d.Decisions == 0 {
		return d, nil
	}
	n := float64(d.Decisions)
	d.MeanWallMs = wall / n
	d.MeanOffersSeen = offers / n
	d.MeanSolverCalls = solver / n
	return d, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics file: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("metrics file is empty")
	}
	return records, nil
}

// indexColumns maps the wanted header names to their positions.
func indexColumns(header []string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	for i, h := range header {
		cols[h] = i
	}
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

// floatCell parses runner-written numeric cells; empty reads as zero.
func floatCell(s string) float64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
