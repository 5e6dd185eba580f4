package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optscan/internal/dataprocessing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Ingestion.StaleAfter)
	assert.Equal(t, "none", cfg.Ingestion.StrikeFilter)
	assert.Equal(t, 0.05, cfg.Ingestion.CloseFloor)
	assert.NoError(t, cfg.validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad strike filter",
			mutate:  func(c *Config) { c.Ingestion.StrikeFilter = "otm-only" },
			wantErr: "invalid strike filter mode",
		},
		{
			name:    "zero stale-after",
			mutate:  func(c *Config) { c.Ingestion.StaleAfter = 0 },
			wantErr: "stale-after",
		},
		{
			name:    "no origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

func TestMergeConfigs_EnvWins(t *testing.T) {
	fileCfg := *Default()
	fileCfg.Server.Port = 9999
	fileCfg.Ingestion.SourceDir = "/from/file"
	fileCfg.Ingestion.StrikeFilter = "above"

	envCfg := Config{}
	envCfg.Server.Port = 3000

	merged := mergeConfigs(fileCfg, envCfg)
	assert.Equal(t, 3000, merged.Server.Port)
	assert.Equal(t, "/from/file", merged.Ingestion.SourceDir)
	assert.Equal(t, "above", merged.Ingestion.StrikeFilter)
}

func TestPipelineConfig(t *testing.T) {
	cfg := Default()
	cfg.Ingestion.SourceDir = "/data/source"
	cfg.Ingestion.MergedFile = "/data/reports/merged.csv"
	cfg.Ingestion.StrikeFilter = "within10pct"
	cfg.Ingestion.MinColumns = 20

	pc := cfg.PipelineConfig()
	assert.Equal(t, "/data/source", pc.SourceDir)
	assert.Equal(t, "/data/reports/merged.csv", pc.OutputPath)
	assert.Equal(t, dataprocessing.FilterWithin10Pct, pc.StrikeFilter)
	assert.Equal(t, 20, pc.MinColumns)
	assert.Equal(t, "fo", pc.ArchivePrefix)
	assert.Equal(t, "op", pc.FilePrefix)
}

func TestPathsUnder(t *testing.T) {
	p := pathsUnder("/opt/app")

	assert.Equal(t, filepath.Join("/opt/app", "data", "source"), p.SourceDir)
	assert.Equal(t, filepath.Join("/opt/app", "data", "reports", "merged.csv"), p.MergedCSV)
	assert.Equal(t, filepath.Join("/opt/app", "logs"), p.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	p := pathsUnder(t.TempDir())
	require.NoError(t, p.EnsureDirectories())

	assert.DirExists(t, p.SourceDir)
	assert.DirExists(t, p.ReportsDir)
	assert.DirExists(t, p.LogsDir)
}
