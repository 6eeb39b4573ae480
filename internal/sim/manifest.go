package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// ManifestEnv records where a sweep ran.
type ManifestEnv struct {
	Go        string `json:"go"`
	Platform  string `json:"platform"`
	CPUs      int    `json:"cpus"`
	Timestamp string `json:"timestamp"` // ISO 8601, UTC
}

// Manifest ties a sweep's config to its runs and environment. One
// manifest.json sits at the top of every sweep output directory.
type Manifest struct {
	Config SweepConfig `json:"config"`
	Env    ManifestEnv `json:"env"`
	Runs   []RunRecord `json:"runs"`
}

// WriteManifest writes manifest.json into outDir.
func WriteManifest(outDir string, cfg SweepConfig, runs []RunRecord) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	m := Manifest{
		Config: cfg,
		Env: ManifestEnv{
			Go:        runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			CPUs:      runtime.NumCPU(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Runs: runs,
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), raw, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest.json back, as written by WriteManifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
