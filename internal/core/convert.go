package core

// convert.go provides type coercion for spreadsheet cell values.
//
// These functions handle the messy reality of hand-maintained spreadsheets:
//   - Cells that arrive as native numbers, booleans or dates instead of text
//   - Italian number formatting (1.234,56) next to English (1,234.56) and plain decimals
//   - Dates typed as dd/mm/yyyy, or stored as spreadsheet serial numbers
//   - Excel formula prefixes (="value")
//   - Header spellings that differ in case, accents or separators
//
// All To* functions report ok=false for blank or unparseable input; the
// mapper treats that as an absent value.

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// thousandsRegex matches dot-grouped integers such as 1.234.567.
var thousandsRegex = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3}){2,}$`)

// commaThousandsRegex matches comma-grouped integers such as 1,234,567.
var commaThousandsRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3}){2,}$`)

// ambiguousCommaRegex matches 1,234: a thousands group or three decimals.
var ambiguousCommaRegex = regexp.MustCompile(`^[+-]?[1-9]\d{0,2},\d{3}$`)

// groupedRegex validates the integer part of a number written with both
// separators, after the grouping separator has been normalized to a dot.
var groupedRegex = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})*$`)

// serialEpoch is day zero of spreadsheet date serials.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateLayout is how dates are rendered in keys and templates.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order; day-first layouts follow Italian usage.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006", "2/1/2006",
	"02-01-2006", "2-1-2006",
	"02.01.2006", "2.1.2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// IsBlank reports whether v is nil or a string that is empty after trimming.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

// CleanCell removes common spreadsheet artifacts from a text value:
// - Trims whitespace
// - Unwraps the Excel text formula ="..."
// - Removes one matching pair of surrounding quotes
//
// Apostrophes inside or at one end of a value (Nicolo', 'Ndrangheta) are kept.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[2 : len(s)-1])
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// ToText renders a scalar as trimmed text.
func ToText(v any) (string, bool) {
	var s string
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s = CleanCell(val)
	case float64:
		s = FormatNumber(val)
	case float32:
		s = FormatNumber(float64(val))
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case bool:
		s = strconv.FormatBool(val)
	case time.Time:
		s = val.Format(DateLayout)
	default:
		s = strings.TrimSpace(fmt.Sprint(val))
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// ToNumber converts a scalar to float64.
// Strings may use a decimal comma and dot thousands separators (1.234,56),
// English grouping (1,234.56), plain decimals (1234.56), a currency symbol,
// or accounting negatives "(12)". With both separators the right-most one is
// the decimal separator. A lone comma group of three digits (1,234) could be
// either and is rejected.
func ToNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		return parseNumber(val)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	var ok bool
	if s, ok = normalizeSeparators(s); !ok {
		return 0, false
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator
// and no grouping separators remain.
func normalizeSeparators(s string) (string, bool) {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		intPart, frac := s[:comma], s[comma+1:]
		group := "."
		if dot > comma {
			intPart, frac = s[:dot], s[dot+1:]
			group = ","
		}
		if strings.ContainsAny(frac, ",.") {
			return "", false
		}
		intPart = strings.ReplaceAll(intPart, group, ".")
		if !groupedRegex.MatchString(intPart) {
			return "", false
		}
		return strings.ReplaceAll(intPart, ".", "") + "." + frac, true

	case comma >= 0:
		switch {
		case commaThousandsRegex.MatchString(s):
			return strings.ReplaceAll(s, ",", ""), true
		case ambiguousCommaRegex.MatchString(s):
			return "", false
		case strings.Count(s, ",") == 1:
			return strings.Replace(s, ",", ".", 1), true
		}
		return "", false

	case thousandsRegex.MatchString(s):
		return strings.ReplaceAll(s, ".", ""), true
	}
	return s, true
}

// ToBool converts a scalar to bool.
// Only true/1 and false/0 are accepted (case-insensitive, trimmed).
func ToBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return boolFromNumber(val)
	case int:
		return boolFromNumber(float64(val))
	case int64:
		return boolFromNumber(float64(val))
	case string:
		switch strings.ToLower(CleanCell(val)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func boolFromNumber(f float64) (bool, bool) {
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	default:
		return false, false
	}
}

// ToDate converts a scalar to a calendar date at UTC midnight.
// Numbers (and digit-only strings) are spreadsheet serials counted from 1899-12-30.
func ToDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return truncateDay(val), true
	case float64:
		return fromSerial(val)
	case int:
		return fromSerial(float64(val))
	case int64:
		return fromSerial(float64(val))
	case string:
		return parseDate(val)
	default:
		return time.Time{}, false
	}
}

func parseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	if isDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		return fromSerial(float64(n))
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

// fromSerial converts a spreadsheet serial; the fractional time of day is dropped.
func fromSerial(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 2958465 { // 9999-12-31
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(f))), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ToIdentifier validates a UUID and returns its canonical lower-case form.
func ToIdentifier(v any) (string, bool) {
	var s string
	switch val := v.(type) {
	case string:
		s = CleanCell(val)
	case uuid.UUID:
		return val.String(), true
	case [16]byte:
		return uuid.UUID(val).String(), true
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// Coerce converts a raw cell to the field's canonical type.
// Returns nil when the value is blank or cannot be converted.
func Coerce(spec FieldSpec, v any) any {
	if IsBlank(v) {
		return nil
	}

	switch spec.Type {
	case FieldNumber:
		if f, ok := ToNumber(v); ok {
			return f
		}
	case FieldBool:
		if b, ok := ToBool(v); ok {
			return b
		}
	case FieldDate:
		if t, ok := ToDate(v); ok {
			return t
		}
	case FieldIdentifier:
		if id, ok := ToIdentifier(v); ok {
			return id
		}
	default:
		s, ok := ToText(v)
		if !ok {
			return nil
		}
		if spec.Normalizer != nil {
			s = strings.TrimSpace(spec.Normalizer(s))
		}
		if s == "" {
			return nil
		}
		return s
	}
	return nil
}

// FormatNumber renders f in its shortest decimal form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FoldText trims and Unicode case-folds s.
func FoldText(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FoldHeader reduces a column header to a loose comparison form:
// case-folded, accents removed, only letters and digits kept.
// "Ragione Sociale", "ragione_sociale" and "RAGIONE-SOCIALE" all fold equal,
// as do "Città" and "citta".
func FoldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, h)
	if err != nil {
		stripped = h
	}

	var b strings.Builder
	for _, r := range cases.Fold().String(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// headerIndex resolves header spellings against one raw row.
type headerIndex struct {
	raw     RawRow
	loose   map[string]string   // folded header -> raw header
	present map[string]struct{} // folded headers, blank cells included
}

func newHeaderIndex(raw RawRow) headerIndex {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// First non-blank raw header wins a folded slot, in sorted order
	loose := make(map[string]string, len(keys))
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		folded := FoldHeader(k)
		if folded == "" {
			continue
		}
		present[folded] = struct{}{}
		if IsBlank(raw[k]) {
			continue
		}
		if _, taken := loose[folded]; !taken {
			loose[folded] = k
		}
	}
	return headerIndex{raw: raw, loose: loose, present: present}
}

// has reports whether the row carries a column under any of the spellings,
// even if its cell is blank.
func (idx headerIndex) has(spellings []string) bool {
	for _, h := range spellings {
		if _, ok := idx.raw[h]; ok {
			return true
		}
		if _, ok := idx.present[FoldHeader(h)]; ok {
			return true
		}
	}
	return false
}

// lookup returns the first present, non-blank value under the given spellings.
// Exact header matches are tried before loose ones.
func (idx headerIndex) lookup(spellings []string) (any, bool) {
	for _, h := range spellings {
		if v, ok := idx.raw[h]; ok && !IsBlank(v) {
			return v, true
		}
	}
	for _, h := range spellings {
		if k, ok := idx.loose[FoldHeader(h)]; ok {
			return idx.raw[k], true
		}
	}
	return nil, false
}
