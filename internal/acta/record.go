// Package acta defines the canonical birth-certificate record schema and the
// parsers that normalize raw scanner output into it.
package acta

import "time"

// TimestampFormat is the layout used for FechaEscaneo. Lexicographic order on
// this layout matches chronological order.
const TimestampFormat = "2006-01-02 15:04:05"

// Record is the canonical unit of storage: every acta is normalized into these
// sixteen string fields. Fields missing from the source stay empty, so the
// schema is total.
type Record struct {
	Tomo            string `json:"Tomo"`
	Libro           string `json:"Libro"`
	Foja            string `json:"Foja"`
	Acta            string `json:"Acta"`
	Entidad         string `json:"Entidad"`
	Municipio       string `json:"Municipio"`
	CURP            string `json:"CURP"`
	Registrado      string `json:"Registrado"`
	Padre           string `json:"Padre"`
	Madre           string `json:"Madre"`
	FechaNacimiento string `json:"FechaNacimiento"`
	Sexo            string `json:"Sexo"`
	FechaRegistro   string `json:"FechaRegistro"`
	Oficial         string `json:"Oficial"`
	Folio           string `json:"Folio"`
	FechaEscaneo    string `json:"FechaEscaneo"`
}

// Headers returns the column order used everywhere a Record becomes a row.
func Headers() []string {
	return []string{
		"Tomo", "Libro", "Foja", "Acta", "Entidad", "Municipio",
		"CURP", "Registrado", "Padre", "Madre", "FechaNacimiento",
		"Sexo", "FechaRegistro", "Oficial", "Folio", "FechaEscaneo",
	}
}

// FromMap builds a total Record from a partial field map. Keys not in the
// canonical header set are dropped.
func FromMap(fields map[string]string) Record {
	return Record{
		Tomo:            fields["Tomo"],
		Libro:           fields["Libro"],
		Foja:            fields["Foja"],
		Acta:            fields["Acta"],
		Entidad:         fields["Entidad"],
		Municipio:       fields["Municipio"],
		CURP:            fields["CURP"],
		Registrado:      fields["Registrado"],
		Padre:           fields["Padre"],
		Madre:           fields["Madre"],
		FechaNacimiento: fields["FechaNacimiento"],
		Sexo:            fields["Sexo"],
		FechaRegistro:   fields["FechaRegistro"],
		Oficial:         fields["Oficial"],
		Folio:           fields["Folio"],
		FechaEscaneo:    fields["FechaEscaneo"],
	}
}

// Row returns the record's values in header order.
func (r Record) Row() []string {
	return []string{
		r.Tomo, r.Libro, r.Foja, r.Acta, r.Entidad, r.Municipio,
		r.CURP, r.Registrado, r.Padre, r.Madre, r.FechaNacimiento,
		r.Sexo, r.FechaRegistro, r.Oficial, r.Folio, r.FechaEscaneo,
	}
}

// Key returns the uniqueness identity of the record: Folio when present,
// otherwise CURP. Empty means the record cannot be identified and must not be
// stored.
func (r Record) Key() string {
	if r.Folio != "" {
		return r.Folio
	}
	return r.CURP
}

// now is swapped out by tests that need deterministic timestamps.
var now = time.Now

// Timestamp returns the current scan timestamp in the canonical layout.
func Timestamp() string {
	return now().Format(TimestampFormat)
}
