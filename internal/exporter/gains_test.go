package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"optscan/pkg/contracts/domain"
)

func sampleGains() []domain.GainRecord {
	return []domain.GainRecord{
		{
			ContractKey: domain.ContractKey{
				Ticker: "RELIANCE",
				Expiry: "25-JAN-2024",
				Type:   domain.TypeCall,
				Strike: 2500,
			},
			Kind:                 domain.KindStockOption,
			ReferenceLow:         39.2,
			LatestClose:          45.1,
			GainPercent:          15.051020408163264,
			Observations:         5,
			DisplayUnderlying:    2480,
			HasDisplayUnderlying: true,
		},
		{
			ContractKey: domain.ContractKey{
				Ticker: "NIFTY",
				Expiry: "29-FEB-2024",
				Type:   domain.TypePut,
				Strike: 21000,
			},
			Kind:         domain.KindIndexOption,
			ReferenceLow: 100,
			LatestClose:  150,
			GainPercent:  50,
			Observations: 2,
		},
	}
}

func TestWriteGainsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gains.csv")
	require.NoError(t, NewCSVWriter().WriteGainsCSV(path, sampleGains()))

	raw, err := readCSVRows(path)
	require.NoError(t, err)
	require.Len(t, raw, 3)

	assert.Equal(t, GainsHeader, raw[0])
	assert.Equal(t, []string{
		"RELIANCE", "25-JAN-2024", "CE", "2500", "OPTSTK",
		"39.2", "45.1", "15.05", "5", "2480",
	}, raw[1])
	// Missing underlying stays an empty cell.
	assert.Equal(t, "", raw[2][9])
	assert.Equal(t, "50.00", raw[2][7])
}

func TestWriteGainsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gains.xlsx")
	require.NoError(t, WriteGainsXLSX(path, sampleGains()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Gains"}, f.GetSheetList())

	rows, err := f.GetRows("Gains")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, GainsHeader, rows[0])
	assert.Equal(t, "RELIANCE", rows[1][0])

	// Numeric columns come back as numbers, not text.
	strike, err := f.GetCellValue("Gains", "D2")
	require.NoError(t, err)
	assert.Equal(t, "2500", strike)
	gain, err := f.GetCellValue("Gains", "H3")
	require.NoError(t, err)
	assert.Equal(t, "50", gain)
}
