package acta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"padre1_to_padre", "padre1", "Padre"},
		{"padre2_to_madre", "Padre2", "Madre"},
		{"curp_cased", "CURP", "CURP"},
		{"curp_lower", "curp", "CURP"},
		{"cadena_to_folio", "Cadena", "Folio"},
		{"impreso_en_to_oficial", "Impreso en", "Oficial"},
		{"fecha_impresion_accented", "Fecha Impresión", "FechaRegistro"},
		{"fecha_impresion_plain", "Fecha Impresion", "FechaRegistro"},
		{"fecha_nacimiento_spaced", "Fecha Nacimiento", "FechaNacimiento"},
		{"registrado", "Registrado", "Registrado"},
		{"unmapped_passthrough", "Observaciones", "Observaciones"},
		{"unmapped_keeps_case", "oTrO", "oTrO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.raw))
		})
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	// Normalizing an already-canonical key must be a no-op.
	for _, canonical := range Headers() {
		assert.Equal(t, canonical, NormalizeKey(canonical), "key %q", canonical)
	}
}
