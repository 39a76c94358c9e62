package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Rig.Prefix != "rig" {
		t.Errorf("expected prefix 'rig', got %s", cfg.Rig.Prefix)
	}
	if cfg.Rig.SpanCount != 5 {
		t.Errorf("expected span count 5, got %d", cfg.Rig.SpanCount)
	}
	if cfg.Rig.OffsetDistance != 1.0 {
		t.Errorf("expected offset distance 1.0, got %f", cfg.Rig.OffsetDistance)
	}
	if cfg.Rig.StretchDefault != 1.0 {
		t.Errorf("expected stretch default 1.0, got %f", cfg.Rig.StretchDefault)
	}
	if cfg.Rig.AllowCompress {
		t.Error("expected allow_compress to be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rigtool.yaml")

	yamlContent := `
rig:
  prefix: tail
  span_count: 9
  offset_distance: 2.5
  stretch_max: 1.5
  allow_compress: true

logging:
  level: debug
  log_file: rigtool.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath, Overrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Rig.Prefix != "tail" {
		t.Errorf("expected prefix 'tail', got %s", cfg.Rig.Prefix)
	}
	if cfg.Rig.SpanCount != 9 {
		t.Errorf("expected span count 9, got %d", cfg.Rig.SpanCount)
	}
	if cfg.Rig.OffsetDistance != 2.5 {
		t.Errorf("expected offset distance 2.5, got %f", cfg.Rig.OffsetDistance)
	}
	if cfg.Rig.StretchMax != 1.5 {
		t.Errorf("expected stretch max 1.5, got %f", cfg.Rig.StretchMax)
	}
	if !cfg.Rig.AllowCompress {
		t.Error("expected allow_compress true")
	}
	// Unset fields keep their defaults.
	if cfg.Rig.OffsetTolerance != 1e-4 {
		t.Errorf("expected default offset tolerance, got %g", cfg.Rig.OffsetTolerance)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
}

func TestOverridesWin(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "rigtool.yaml")

	yamlContent := `
rig:
  prefix: tail
  span_count: 9
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath, Overrides{Prefix: "spine", SpanCount: 4, Debug: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Rig.Prefix != "spine" {
		t.Errorf("expected override prefix 'spine', got %s", cfg.Rig.Prefix)
	}
	if cfg.Rig.SpanCount != 4 {
		t.Errorf("expected override span count 4, got %d", cfg.Rig.SpanCount)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level from override, got %s", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), Overrides{})
	if err == nil {
		t.Error("expected error for explicit missing config path")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Rig.Prefix = "saved"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(path, Overrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Rig.Prefix != "saved" {
		t.Errorf("expected round-tripped prefix 'saved', got %s", loaded.Rig.Prefix)
	}
}

func TestLoadCurveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.yaml")
	yamlContent := `
name: spine
degree: 3
closed: false
points:
  - [0, 0, 0]
  - [2.5, 0, 0]
  - [5, 0, 0]
  - [7.5, 0, 0]
  - [10, 0, 0]
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write curve file: %v", err)
	}

	cf, err := LoadCurveFile(path)
	if err != nil {
		t.Fatalf("LoadCurveFile failed: %v", err)
	}
	if cf.Name != "spine" {
		t.Errorf("expected name 'spine', got %s", cf.Name)
	}
	if cf.Degree != 3 || cf.Closed {
		t.Errorf("unexpected shape: degree %d closed %v", cf.Degree, cf.Closed)
	}

	pts := cf.Positions()
	if len(pts) != 5 {
		t.Fatalf("expected 5 positions, got %d", len(pts))
	}
	if pts[4].X != 10 {
		t.Errorf("expected last point X 10, got %f", pts[4].X)
	}
}

func TestLoadCurveFileRejectsBadDegree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.yaml")
	yamlContent := `
degree: 5
points:
  - [0, 0, 0]
  - [1, 0, 0]
  - [2, 0, 0]
  - [3, 0, 0]
  - [4, 0, 0]
  - [5, 0, 0]
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write curve file: %v", err)
	}

	if _, err := LoadCurveFile(path); err == nil {
		t.Error("expected error for degree 5")
	}
}

func TestLoadCurveFileRejectsTooFewPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.yaml")
	yamlContent := `
degree: 3
points:
  - [0, 0, 0]
  - [1, 0, 0]
`
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write curve file: %v", err)
	}

	if _, err := LoadCurveFile(path); err == nil {
		t.Error("expected error for 2 points at degree 3")
	}
}
