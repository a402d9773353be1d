package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mrsinham/rtfusion/internal/export"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Convert.Thresholds != def.Convert.Thresholds {
		t.Errorf("thresholds = %+v, want %+v", cfg.Convert.Thresholds, def.Convert.Thresholds)
	}
	if cfg.Import.MaxSeriesFiles != 100 {
		t.Errorf("max_series_files = %d, want 100", cfg.Import.MaxSeriesFiles)
	}

	cfg, err = LoadConfig("")
	if err != nil || cfg.Output.Format != export.FormatYAML {
		t.Errorf("LoadConfig(\"\") = %+v, %v", cfg, err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtfusion.yaml")
	content := `
work_dir: /tmp/rt
import:
  max_series_files: 250
convert:
  thresholds:
    corner: 2
    lesion_divisor: 10
logging:
  level: debug
  format: json
output:
  format: csv
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.WorkDir != "/tmp/rt" {
		t.Errorf("work_dir = %q", cfg.WorkDir)
	}
	if cfg.Import.MaxSeriesFiles != 250 || cfg.Import.HeaderCacheSize != 512 {
		t.Errorf("import = %+v", cfg.Import)
	}
	th := cfg.Convert.Thresholds
	if th.Corner != 2 || th.Reference != 8 || th.LesionDivisor != 10 {
		t.Errorf("thresholds = %+v, want corner 2, reference 8, divisor 10", th)
	}
	if cfg.Logging.Level != "debug" || cfg.Output.Format != export.FormatCSV {
		t.Errorf("logging = %+v, output = %+v", cfg.Logging, cfg.Output)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "import: [\n"},
		{name: "bad level", content: "logging:\n  level: loud\n"},
		{name: "bad format", content: "output:\n  format: xml\n"},
		{name: "zero divisor", content: "convert:\n  thresholds:\n    lesion_divisor: 0\n"},
		{name: "negative cache", content: "import:\n  header_cache_size: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig succeeded, want error")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rtfusion.yaml")
	cfg := DefaultConfig()
	cfg.WorkDir = "/scratch"
	cfg.Convert.Thresholds.Reference = 6

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.WorkDir != "/scratch" || got.Convert.Thresholds.Reference != 6 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := LoggingConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", log.GetLevel())
	}
	log.WithField("file", "a.dcm").Info("hello")
	log.Debug("hidden")
	out := buf.String()
	if !strings.Contains(out, `"file":"a.dcm"`) || strings.Contains(out, "hidden") {
		t.Errorf("unexpected log output: %s", out)
	}

	if _, err := (LoggingConfig{Level: "nope"}).NewLogger(&buf); err == nil {
		t.Error("NewLogger accepted an unknown level")
	}
}
