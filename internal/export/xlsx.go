// Package export serializes the scanned-acta ledger into an XLSX workbook.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ofsdigital/acta-scanner/internal/acta"
)

const sheetName = "Actas Escaneadas"

// columnWidths carries the per-column display widths used in the workbook.
var columnWidths = map[string]float64{
	"Tomo":            8,
	"Libro":           8,
	"Foja":            8,
	"Acta":            10,
	"Entidad":         15,
	"Municipio":       20,
	"CURP":            20,
	"Registrado":      35,
	"Padre":           30,
	"Madre":           30,
	"FechaNacimiento": 15,
	"Sexo":            6,
	"FechaRegistro":   15,
	"Oficial":         10,
	"Folio":           15,
	"FechaEscaneo":    18,
}

// Workbook renders the given records, in the order given, into an XLSX
// workbook and returns its bytes.
func Workbook(records []acta.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	headers := acta.Headers()
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %s: %w", h, err)
		}
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		for colIdx, value := range rec.Row() {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	for i, h := range headers {
		width, ok := columnWidths[h]
		if !ok {
			width = 15
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, width)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for an export generated at ts, of the
// form actas_escaneadas_YYYYMMDD_HHMMSS.xlsx.
func Filename(ts time.Time) string {
	return "actas_escaneadas_" + ts.Format("20060102_150405") + ".xlsx"
}
