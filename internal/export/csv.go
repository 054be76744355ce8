// Package export serializes a pipeline result to the CSV files consumed
// downstream. Column presence and order are an external contract.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Camillamonteiros/big-data/internal/models"
)

var allColumns = []string{
	"ranking", "concorrente", "Preço", "preço_oficial", "preço_indicado",
	"Loja", "qtd_vendida", "link", "principal", "compatibilidade",
}

// The compatible-only file drops the official-price column.
var compatibleColumns = []string{
	"ranking", "concorrente", "Preço", "preço_indicado",
	"Loja", "qtd_vendida", "link", "principal", "compatibilidade",
}

// Spreadsheet applications need the BOM to detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// WriteAll exports every record of the batch and returns the file path.
func (w *Writer) WriteAll(result *models.Result) (string, error) {
	path := filepath.Join(w.outputDir, fmt.Sprintf("resultado_final_%s.csv", result.RunID))
	return path, w.writeFile(path, result, false)
}

// WriteCompatible exports only the records the oracle accepted.
func (w *Writer) WriteCompatible(result *models.Result) (string, error) {
	path := filepath.Join(w.outputDir, fmt.Sprintf("produtos_compativeis_%s.csv", result.RunID))
	return path, w.writeFile(path, result, true)
}

func (w *Writer) writeFile(path string, result *models.Result, compatibleOnly bool) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.Write(utf8BOM); err != nil {
		f.Close()
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	if err := Write(f, result, compatibleOnly); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write streams the result as CSV onto w.
func Write(w io.Writer, result *models.Result, compatibleOnly bool) error {
	cw := csv.NewWriter(w)

	header := allColumns
	if compatibleOnly {
		header = compatibleColumns
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range result.Records {
		rec := &result.Records[i]
		if compatibleOnly && rec.Verdict != models.VerdictCompatible {
			continue
		}

		row := []string{
			rec.RankLabel(),
			rec.Title,
			rec.PriceDisplay,
			result.OfficialPrice,
			result.IndicatedPrice,
			rec.Store,
			rec.SoldQuantity,
			rec.Link,
			rec.Principal,
			string(rec.Verdict),
		}
		if compatibleOnly {
			// Drop the preço_oficial cell (index 3).
			row = append(row[:3], row[4:]...)
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
