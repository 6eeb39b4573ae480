package sim

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"p2p-market-sim/internal/model"
)

// WriteCellCSVs writes the run's interval metrics CSV into outDir, plus
// the decision log CSV when the run was instrumented. Returns the paths
// written; decisionPath is empty when there is no decision log.
func WriteCellCSVs(res *CellResult, outDir string) (intervalPath, decisionPath string, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", err
	}
	tag := res.Spec.Tag()

	intervalPath = filepath.Join(outDir, "interval_metrics_"+tag+".csv")
	if err := writeIntervalCSV(intervalPath, res.Intervals); err != nil {
		return "", "", err
	}

	if !res.Spec.InstrumentDecisions {
		return intervalPath, "", nil
	}
	decisionPath = filepath.Join(outDir, "decision_metrics_"+tag+".csv")
	if err := writeDecisionCSV(decisionPath, res.Decisions); err != nil {
		return "", "", err
	}
	return intervalPath, decisionPath, nil
}

func writeIntervalCSV(path string, rows []IntervalRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"t",
		"trades",
		"traded_kwh",
		"posted_buy_kwh",
		"posted_sell_kwh",
		"unserved_kwh",
		"curtailment_kwh",
		"price_mean",
		"price_var",
		"W",
		"W_bound",
		"W_hat",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.T),
			strconv.Itoa(r.Trades),
			fmtFloat(r.TradedKWh),
			fmtFloat(r.PostedBuyKWh),
			fmtFloat(r.PostedSellKWh),
			fmtFloat(r.UnservedKWh),
			fmtFloat(r.CurtailedKWh),
			fmtFloat(r.PriceMean),
			fmtFloat(r.PriceVar),
			fmtFloat(r.W),
			fmtFloat(r.WBound),
			fmtFloat(r.WHat),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func writeDecisionCSV(path string, rows []DecisionRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"run_id",
		"t",
		"agent_id",
		"agent_type",
		"action_type",
		"price_cperkwh",
		"qty_kwh",
		"offers_seen",
		"solver_calls",
		"learner_steps",
		"wall_ms",
		"mem_mb",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		// Idle decisions carry no order, so those cells stay empty.
		price, qty := "", ""
		if r.ActionType != string(model.ActionNone) {
			price = fmtFloat(r.Price)
			qty = fmtFloat(r.Qty)
		}
		row := []string{
			r.RunID,
			strconv.Itoa(r.T),
			r.AgentID,
			r.AgentType,
			r.ActionType,
			price,
			qty,
			strconv.Itoa(r.OffersSeen),
			strconv.Itoa(r.SolverCalls),
			strconv.Itoa(r.LearnerSteps),
			strconv.FormatFloat(r.WallMs, 'f', 3, 64),
			strconv.FormatFloat(r.MemMB, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
