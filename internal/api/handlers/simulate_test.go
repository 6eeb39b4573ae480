package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/api/models"
	"p2p-market-sim/internal/dataset"
	"p2p-market-sim/internal/sim"
)

const batteryYAML = `battery:
  name: home_5kw
  capacity_kwh: 13.5
  power_kw: 5
  round_trip_efficiency: 0.9
  min_soc: 0.1
`

func postJSON(t *testing.T, h gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return postRaw(t, h, raw)
}

func postRaw(t *testing.T, h gin.HandlerFunc, raw []byte) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/x", h)

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/x", h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRunSimulation(t *testing.T) {
	h := NewSimulateHandler(nil)

	w := postJSON(t, h.RunSimulation, models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec: sim.CellSpec{N: 4, Agent: "zi", Intervals: 3, Seed: 7},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "N4_zi_na_tauna_Kna_s7", resp.Tag)
	assert.Equal(t, 3, resp.Summary.Intervals)
	assert.GreaterOrEqual(t, resp.Summary.MeanWHat, 0.0)
	assert.LessOrEqual(t, resp.Summary.MeanWHat, 1.0+1e-9)
	assert.Nil(t, resp.Intervals)
	assert.Nil(t, resp.Decisions)
}

func TestRunSimulationIncludeSeries(t *testing.T) {
	h := NewSimulateHandler(nil)

	w := postJSON(t, h.RunSimulation, models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec: sim.CellSpec{N: 4, Agent: "zi", Intervals: 3, Seed: 7},
		},
		Options: models.SimulateOptions{IncludeIntervals: true, IncludeDecisions: true},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Intervals, 3)
	for i, row := range resp.Intervals {
		assert.Equal(t, i, row.T)
	}

	// Asking for decisions turns instrumentation on: one row per agent
	// per interval.
	require.Len(t, resp.Decisions, 12)
	for _, d := range resp.Decisions {
		assert.Equal(t, "zi", d.AgentType)
	}
}

func TestRunSimulationRejectsBadJSON(t *testing.T) {
	h := NewSimulateHandler(nil)

	w := postRaw(t, h.RunSimulation, []byte(`{"config":`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Error.Code)
}

func TestRunSimulationUnknownAgent(t *testing.T) {
	h := NewSimulateHandler(nil)

	w := postJSON(t, h.RunSimulation, models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec: sim.CellSpec{N: 2, Agent: "nope", Intervals: 1, Seed: 1},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_SPEC", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unknown agent type")
}

func TestRunSimulationMissingBatteryPreset(t *testing.T) {
	t.Setenv("BATTERY_DIR", t.TempDir())
	h := NewSimulateHandler(nil)

	w := postJSON(t, h.RunSimulation, models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec:        sim.CellSpec{N: 2, Agent: "zi", Intervals: 1, Seed: 1},
			BatteryFile: "missing",
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_BATTERY", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "failed to load battery preset")
}

func TestRunSimulationWithBatteryPreset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home_5kw.yaml"), []byte(batteryYAML), 0644))
	t.Setenv("BATTERY_DIR", dir)

	h := NewSimulateHandler(nil)
	w := postJSON(t, h.RunSimulation, models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec:        sim.CellSpec{N: 3, Agent: "optimizer", Intervals: 2, Seed: 5},
			BatteryFile: "home_5kw",
			Battery:     models.BatteryConfig{InitialSOC: 0.8},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SimulateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 2, resp.Summary.Intervals)
}

func TestRunSimulationCacheReplay(t *testing.T) {
	h := NewSimulateHandler(dataset.NewResponseCache(time.Minute))
	req := models.SimulateRequest{
		Config: models.SimulateConfig{
			Spec: sim.CellSpec{N: 3, Agent: "zi", Intervals: 2, Seed: 9},
		},
	}

	first := postJSON(t, h.RunSimulation, req)
	require.Equal(t, http.StatusOK, first.Code)
	second := postJSON(t, h.RunSimulation, req)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b models.SimulateResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	// A replay returns the stored response, run id included.
	assert.Equal(t, a.RunID, b.RunID)

	// Same request with the keys in another order hashes alike.
	reordered := postRaw(t, h.RunSimulation, []byte(
		`{"config":{"spec":{"seed":9,"intervals":2,"agent":"zi","N":3}}}`))
	require.Equal(t, http.StatusOK, reordered.Code)
	var c models.SimulateResponse
	require.NoError(t, json.Unmarshal(reordered.Body.Bytes(), &c))
	assert.Equal(t, a.RunID, c.RunID)

	req.Config.Spec.Seed = 10
	third := postJSON(t, h.RunSimulation, req)
	require.Equal(t, http.StatusOK, third.Code)
	var d models.SimulateResponse
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &d))
	assert.NotEqual(t, a.RunID, d.RunID)
}

func TestCompareSimulations(t *testing.T) {
	h := NewSimulateHandler(nil)

	w := postJSON(t, h.CompareSimulations, models.CompareRequest{
		BaseConfig: models.SimulateConfig{
			Spec: sim.CellSpec{N: 4, Agent: "zi", Intervals: 2, Seed: 3},
		},
		Variations: []models.SimulateVariation{
			{Name: "cda"},
			{Name: "call", Config: models.SimulateConfig{
				Spec: sim.CellSpec{Mechanism: sim.MechanismCall},
			}},
			{Name: "broken", Config: models.SimulateConfig{
				Spec: sim.CellSpec{Agent: "nope"},
			}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The broken variation is skipped, the rest run against the merged
	// base config.
	require.Len(t, resp.Comparison, 2)
	assert.Equal(t, "cda", resp.Comparison[0].Name)
	assert.Equal(t, "call", resp.Comparison[1].Name)
	for _, r := range resp.Comparison {
		assert.Equal(t, 2, r.Summary.Intervals)
	}
}

func TestMergeConfigOverlays(t *testing.T) {
	base := models.SimulateConfig{
		Spec:        sim.CellSpec{N: 8, Agent: "zi", Intervals: 6, Seed: 2},
		BatteryFile: "home_5kw",
		Battery:     models.BatteryConfig{CapacityKWh: 13.5},
	}
	override := models.SimulateConfig{
		Spec:    sim.CellSpec{N: 16, Mechanism: sim.MechanismCall},
		Battery: models.BatteryConfig{InitialSOC: 0.8},
	}

	merged := mergeConfig(base, override)
	assert.Equal(t, 16, merged.Spec.N)
	assert.Equal(t, "zi", merged.Spec.Agent)
	assert.Equal(t, 6, merged.Spec.Intervals)
	assert.Equal(t, sim.MechanismCall, merged.Spec.Mechanism)
	assert.Equal(t, "home_5kw", merged.BatteryFile)
	assert.Equal(t, 13.5, merged.Battery.CapacityKWh)
	assert.Equal(t, 0.8, merged.Battery.InitialSOC)

	// An empty override changes nothing.
	assert.Equal(t, base, mergeConfig(base, models.SimulateConfig{}))
}
