package acta

import (
	"regexp"
	"strings"
)

// Scanner firmware sometimes runs two fields together without a delimiter.
// These repairs reinsert the missing comma in front of the labels known to be
// affected, so the tokenizer below sees a clean label boundary.
var qrRepairs = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)([^,])CURP`), "${1},CURP"},
	{regexp.MustCompile(`(?i)([^,])Padre`), "${1},Padre"},
}

// qrLabelRe matches a "Label:" token: a run of letters, digits, underscores
// and spaces terminated by a colon. The run cannot cross punctuation, so the
// value of one field never swallows the label of the next.
var qrLabelRe = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_ ]*?:`)

// ParseQR tokenizes a raw QR payload into a canonical Record.
//
// QR payloads are runs of "Label: value" segments with no single structured
// format. The payload is first repaired (missing commas reinserted), then
// scanned for label tokens; each field's value is the text between its label
// and the next one. Keys are canonicalized via NormalizeKey and later matches
// for the same canonical key overwrite earlier ones.
//
// ParseQR never fails: input too noisy to tokenize yields a record carrying
// only the scan timestamp. The comma repair does not fire on a label at the
// very start of the payload, so a glued prefix like "CURP:...Folio:" keeps
// the preceding value and its trailing label fused into one token.
func ParseQR(raw string) Record {
	for _, r := range qrRepairs {
		raw = r.pattern.ReplaceAllString(raw, r.replacement)
	}

	fields := map[string]string{}
	labels := qrLabelRe.FindAllStringIndex(raw, -1)
	for i, loc := range labels {
		key := strings.TrimSpace(raw[loc[0] : loc[1]-1])
		end := len(raw)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}
		value := strings.Trim(raw[loc[1]:end], " \t\r\n,;")
		fields[NormalizeKey(key)] = value
	}

	fields["FechaEscaneo"] = Timestamp()
	return FromMap(fields)
}
