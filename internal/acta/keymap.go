package acta

import "strings"

// keyMap maps normalized QR labels to canonical column names. Labels arrive
// from heterogeneous scanner firmware with inconsistent casing, spacing and
// accents, so lookup happens on a folded form of the raw key.
var keyMap = map[string]string{
	"padre1":          "Padre",
	"padre2":          "Madre",
	"registrado":      "Registrado",
	"curp":            "CURP",
	"tomo":            "Tomo",
	"libro":           "Libro",
	"foja":            "Foja",
	"acta":            "Acta",
	"entidad":         "Entidad",
	"municipio":       "Municipio",
	"fechanacimiento": "FechaNacimiento",
	"sexo":            "Sexo",
	"fechaimpresion":  "FechaRegistro",
	"impresoen":       "Oficial",
	"cadena":          "Folio",
}

// NormalizeKey maps a raw QR field label to its canonical column name.
// Unmapped labels pass through unchanged, case as given.
func NormalizeKey(raw string) string {
	folded := strings.ToLower(raw)
	folded = strings.ReplaceAll(folded, " ", "")
	folded = strings.ReplaceAll(folded, "í", "i")
	folded = strings.ReplaceAll(folded, "ó", "o")
	if canonical, ok := keyMap[folded]; ok {
		return canonical
	}
	return raw
}
