package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ofsdigital/acta-scanner/internal/acta"
)

func TestWorkbookRoundTrip(t *testing.T) {
	records := []acta.Record{
		{
			Folio: "123", CURP: "PELJ900201HTLRPN04", Registrado: "JUAN PEREZ LOPEZ",
			Entidad: "TLAXCALA", Sexo: "H", FechaEscaneo: "2025-03-14 09:26:53",
		},
		{Folio: "456", FechaEscaneo: "2025-03-14 09:20:00"},
	}

	data, err := Workbook(records)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Actas Escaneadas")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, acta.Headers(), rows[0])

	// Row order follows the input order.
	byHeader := map[string]string{}
	for i, h := range rows[0] {
		if i < len(rows[1]) {
			byHeader[h] = rows[1][i]
		}
	}
	assert.Equal(t, "123", byHeader["Folio"])
	assert.Equal(t, "JUAN PEREZ LOPEZ", byHeader["Registrado"])
	assert.Equal(t, "H", byHeader["Sexo"])
}

func TestWorkbookEmptyLedger(t *testing.T) {
	data, err := Workbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Actas Escaneadas")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "actas_escaneadas_20250314_092653.xlsx", Filename(ts))
}
