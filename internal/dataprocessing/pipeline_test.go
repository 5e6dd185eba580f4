package dataprocessing

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optscan/pkg/contracts/domain"
)

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range members {
		member, err := w.Create(name)
		require.NoError(t, err)
		_, err = member.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func bhavContent(rows ...string) string {
	content := bhavHeader + "\n"
	for _, row := range rows {
		content += row + "\n"
	}
	return content
}

func TestPipeline_MergesArchivesAndFolders(t *testing.T) {
	sourceDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "merged.csv")

	writeZip(t, filepath.Join(sourceDir, "fo010124.zip"), map[string]string{
		"op010124.csv": bhavContent(
			"OPTSTKRELIANCE25-JAN-2024CE2500,x,x,x,x,x,40,42,48,39,45,2480,x,x"),
		"notes.txt": "ignored",
	})

	folder := filepath.Join(sourceDir, "fo020124")
	require.NoError(t, os.Mkdir(folder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "op020124.csv"),
		[]byte(bhavContent(
			"OPTSTKRELIANCE25-JAN-2024CE2500,x,x,x,x,x,45,46,50,44,49,2510,x,x")), 0644))

	// An unrelated entry the scan must skip.
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "readme.txt"), []byte("x"), 0644))

	cfg := DefaultPipelineConfig(sourceDir, outputPath)
	pipeline := NewPipeline(cfg, discardLogger())

	var progressEvents int
	pipeline.OnProgress(func(message string, current, total int) { progressEvents++ })

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.EntriesScanned)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 0, summary.FilesSkipped)
	assert.Equal(t, 2, summary.Rows)
	assert.True(t, summary.Written)
	assert.Equal(t, outputPath, summary.OutputPath)
	assert.Positive(t, progressEvents)

	records, err := ReadMerged(outputPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Name-sorted entries put the 01-Jan archive first.
	assert.Equal(t, "01-JAN-2024", records[0].DateLabel())
	assert.Equal(t, "02-JAN-2024", records[1].DateLabel())
	assert.Equal(t, "RELIANCE", records[0].Ticker)
	assert.Equal(t, 2500.0, records[0].Strike)
	assert.True(t, records[1].HasUnderlying)
	assert.Equal(t, 2510.0, records[1].Underlying)
}

func TestPipeline_SkipsMalformedFilesWithoutFailing(t *testing.T) {
	sourceDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "merged.csv")

	folder := filepath.Join(sourceDir, "fo010124")
	require.NoError(t, os.Mkdir(folder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "op_short.csv"),
		[]byte("CONTRACT_D,CLOSE_PRIC\nOPTSTKA25-JAN-2024CE10,2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "op_good.csv"),
		[]byte(bhavContent("OPTSTKABC25-JAN-2024CE100,x,x,x,x,x,1,1,1,1,2,99,x,x")), 0644))

	pipeline := NewPipeline(DefaultPipelineConfig(sourceDir, outputPath), discardLogger())
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesProcessed)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, 1, summary.Rows)
	assert.True(t, summary.Written)
}

func TestPipeline_EmptySourceWritesNothing(t *testing.T) {
	sourceDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "merged.csv")

	pipeline := NewPipeline(DefaultPipelineConfig(sourceDir, outputPath), discardLogger())
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Rows)
	assert.False(t, summary.Written)
	assert.NoFileExists(t, outputPath)
}

func TestPipeline_CancelledContext(t *testing.T) {
	sourceDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(sourceDir, "fo010124"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := NewPipeline(DefaultPipelineConfig(sourceDir, filepath.Join(sourceDir, "merged.csv")), discardLogger())
	_, err := pipeline.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadMerged_RoundTrip(t *testing.T) {
	sourceDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "merged.csv")

	folder := filepath.Join(sourceDir, "fo150324")
	require.NoError(t, os.Mkdir(folder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "op150324.csv"),
		[]byte(bhavContent(
			"OPTIDXNIFTY28-MAR-2024PE21050.50,x,x,x,x,x,100,101,110,95,105,21000,x,x",
			"FUTSTKABC28-MAR-2024XX0,x,x,x,x,x,1,2,3,4,5,,x,x")), 0644))

	pipeline := NewPipeline(DefaultPipelineConfig(sourceDir, outputPath), discardLogger())
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	records, err := ReadMerged(outputPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	parsed := records[0]
	assert.Equal(t, domain.KindIndexOption, parsed.Kind)
	assert.Equal(t, "NIFTY", parsed.Ticker)
	assert.Equal(t, "28-MAR-2024", parsed.Expiry)
	assert.Equal(t, domain.TypePut, parsed.Type)
	assert.Equal(t, 21050.5, parsed.Strike)
	assert.Equal(t, 105.0, parsed.Close)
	assert.Equal(t, "15-MAR-2024", parsed.DateLabel())

	unparsed := records[1]
	assert.Equal(t, "FUTSTKABC28-MAR-2024XX0", unparsed.Symbol)
	assert.False(t, unparsed.Key().IsComplete())
	assert.False(t, unparsed.HasUnderlying)
}
