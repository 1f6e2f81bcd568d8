package acta

import (
	"regexp"
	"strings"
)

// textField binds one labeled-field pattern to a canonical column and an
// optional post-processing step. The entries are independent: a field that is
// missing from the source text does not abort the others. New label variants
// are added here, not in parsing control flow.
type textField struct {
	field string
	re    *regexp.Regexp
	post  func(groups []string) string
}

func firstGroup(groups []string) string { return strings.TrimSpace(groups[0]) }

func dateGroup(groups []string) string { return ConvertDate(strings.TrimSpace(groups[0])) }

var textGrammar = []textField{
	{"CURP", regexp.MustCompile(`Clave Única de Registro de Población\s*([A-Z0-9]{18})`), firstGroup},
	{"Folio", regexp.MustCompile(`Identificador Electrónico\s*(\d+)`), firstGroup},
	{"Entidad", regexp.MustCompile(`Entidad de Registro\s*([A-ZÁÉÍÓÚÜÑ\s]+)`), firstGroup},
	{"Municipio", regexp.MustCompile(`Municipio de Registro\s*([A-ZÁÉÍÓÚÜÑ\s]+)`), firstGroup},
	{"Oficial", regexp.MustCompile(`Oficialía\s*(\d+)`), firstGroup},
	{"FechaRegistro", regexp.MustCompile(`Fecha de Registro\s*(\d{2}/\d{2}/\d{4})`), dateGroup},
	{"Libro", regexp.MustCompile(`Libro\s*(\d+)`), firstGroup},
	{"Acta", regexp.MustCompile(`Número de Acta\s*(\d+)`), firstGroup},
	{"Registrado", regexp.MustCompile(`(?s)Nombre\(s\):\s*([^\n]+)\s*Primer Apellido:\s*([^\n]+)\s*Segundo Apellido:\s*([^\n]+)`), joinName},
	{"Sexo", regexp.MustCompile(`Sexo:\s*([^\n]+)`), sexCode},
	{"FechaNacimiento", regexp.MustCompile(`Fecha de Nacimiento:\s*(\d{2}/\d{2}/\d{4})`), dateGroup},
}

func joinName(groups []string) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, strings.TrimSpace(g))
	}
	return strings.Join(parts, " ")
}

// sexCode derives the normalized sex code from the captured free text:
// "H" for hombre, "M" for mujer, otherwise the upper-cased text verbatim.
func sexCode(groups []string) string {
	s := strings.ToUpper(strings.TrimSpace(groups[0]))
	switch {
	case strings.Contains(s, "HOMB"):
		return "H"
	case strings.Contains(s, "MUJ"):
		return "M"
	default:
		return s
	}
}

// ParseActaText extracts acta fields from free-form PDF text. It is the
// fallback path for documents without a recoverable QR code.
//
// The second return value reports whether the result is usable: text that
// yields neither a CURP nor a Folio cannot identify a record, so the parser
// reports absence rather than a partial record.
func ParseActaText(text string) (Record, bool) {
	fields := map[string]string{}
	for _, tf := range textGrammar {
		m := tf.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		fields[tf.field] = tf.post(m[1:])
	}

	if fields["CURP"] == "" && fields["Folio"] == "" {
		return Record{}, false
	}

	fields["FechaEscaneo"] = Timestamp()
	return FromMap(fields), true
}

// ConvertDate reformats "DD/MM/YYYY" to "YYYY-MM-DD". Strings that are not
// slash-separated pass through unchanged; this is a defensive fallback, not a
// format validator.
func ConvertDate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
