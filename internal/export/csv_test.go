package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camillamonteiros/big-data/internal/models"
)

func sampleResult() *models.Result {
	return &models.Result{
		RunID:          "run-1",
		Query:          "Smart TV LG 32",
		OfficialPrice:  "R$ 1299.00",
		IndicatedPrice: "R$ 999,90 (3º) | R$ 1299.00 (Comprebel)",
		Records: []models.Product{
			{
				RawProduct: models.RawProduct{
					Title:        "Smart TV LG 32 oficial",
					Store:        "Comprebel (Oficial)",
					SoldQuantity: "Oficial",
					Link:         "https://ml/oficial",
					Principal:    "Smart TV LG 32",
				},
				PriceValue:   1299,
				PriceDisplay: "R$ 1299.00",
			},
			{
				RawProduct: models.RawProduct{
					Title:        "Smart TV LG 32 concorrente",
					Store:        "Loja X",
					SoldQuantity: "Novo | 37 vendidos",
					Link:         "https://ml/c1",
					Principal:    "Smart TV LG 32",
				},
				PriceValue:   999.90,
				PriceDisplay: "R$ 999,90",
				Verdict:      models.VerdictCompatible,
				Rank:         1,
			},
			{
				RawProduct: models.RawProduct{
					Title:        "Outra TV",
					SoldQuantity: models.SoldQuantityUnknown,
					Link:         "https://ml/c2",
					Principal:    "Smart TV LG 32",
				},
				PriceValue: math.Inf(1),
				Verdict:    models.VerdictIncompatible,
			},
		},
	}
}

func TestWriteColumnContract(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), false))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{
		"ranking", "concorrente", "Preço", "preço_oficial", "preço_indicado",
		"Loja", "qtd_vendida", "link", "principal", "compatibilidade",
	}, rows[0])

	official := rows[1]
	assert.Equal(t, "N/A", official[0])
	assert.Equal(t, "Smart TV LG 32 oficial", official[1])
	assert.Equal(t, "R$ 1299.00", official[2])
	assert.Equal(t, "", official[9], "official record is never classified")

	comp := rows[2]
	assert.Equal(t, "1", comp[0])
	assert.Equal(t, "R$ 999,90", comp[2])
	assert.Equal(t, "R$ 1299.00", comp[3])
	assert.Equal(t, "R$ 999,90 (3º) | R$ 1299.00 (Comprebel)", comp[4])
	assert.Equal(t, "SIM", comp[9])

	rejected := rows[3]
	assert.Equal(t, "N/A", rejected[0])
	assert.Equal(t, "NÃO", rejected[9])
	assert.Equal(t, models.SoldQuantityUnknown, rejected[6])
}

func TestWriteCompatibleOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(), true))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "only the accepted competitor survives the filter")

	assert.Equal(t, []string{
		"ranking", "concorrente", "Preço", "preço_indicado",
		"Loja", "qtd_vendida", "link", "principal", "compatibilidade",
	}, rows[0])

	assert.Equal(t, "Smart TV LG 32 concorrente", rows[1][1])
	assert.Equal(t, "R$ 999,90 (3º) | R$ 1299.00 (Comprebel)", rows[1][3])
}

func TestWriterCreatesFilesWithBOM(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.WriteAll(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resultado_final_run-1.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM))
	assert.True(t, strings.Contains(string(raw), "preço_indicado"))

	compatPath, err := w.WriteCompatible(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "produtos_compativeis_run-1.csv"), compatPath)
}

func TestWriteEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	result := &models.Result{RunID: "r", OfficialPrice: "N/A", IndicatedPrice: "N/A (3º) | N/A (Comprebel)"}

	require.NoError(t, Write(&buf, result, false))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
