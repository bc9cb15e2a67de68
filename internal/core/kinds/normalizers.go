package kinds

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/secops/internal/core"
)

// provinceNames maps Italian province names to their two-letter sigla.
var provinceNames = map[string]string{
	"agrigento": "AG", "alessandria": "AL", "ancona": "AN", "aosta": "AO",
	"arezzo": "AR", "ascoli piceno": "AP", "asti": "AT", "avellino": "AV",
	"bari": "BA", "barletta-andria-trani": "BT", "belluno": "BL", "benevento": "BN",
	"bergamo": "BG", "biella": "BI", "bologna": "BO", "bolzano": "BZ",
	"brescia": "BS", "brindisi": "BR", "cagliari": "CA", "caltanissetta": "CL",
	"campobasso": "CB", "caserta": "CE", "catania": "CT", "catanzaro": "CZ",
	"chieti": "CH", "como": "CO", "cosenza": "CS", "cremona": "CR",
	"crotone": "KR", "cuneo": "CN", "enna": "EN", "fermo": "FM",
	"ferrara": "FE", "firenze": "FI", "foggia": "FG", "forlì-cesena": "FC",
	"frosinone": "FR", "genova": "GE", "gorizia": "GO", "grosseto": "GR",
	"imperia": "IM", "isernia": "IS", "la spezia": "SP", "l'aquila": "AQ",
	"latina": "LT", "lecce": "LE", "lecco": "LC", "livorno": "LI",
	"lodi": "LO", "lucca": "LU", "macerata": "MC", "mantova": "MN",
	"massa-carrara": "MS", "matera": "MT", "messina": "ME", "milano": "MI",
	"modena": "MO", "monza e della brianza": "MB", "napoli": "NA", "novara": "NO",
	"nuoro": "NU", "oristano": "OR", "padova": "PD", "palermo": "PA",
	"parma": "PR", "pavia": "PV", "perugia": "PG", "pesaro e urbino": "PU",
	"pescara": "PE", "piacenza": "PC", "pisa": "PI", "pistoia": "PT",
	"pordenone": "PN", "potenza": "PZ", "prato": "PO", "ragusa": "RG",
	"ravenna": "RA", "reggio calabria": "RC", "reggio emilia": "RE", "rieti": "RI",
	"rimini": "RN", "roma": "RM", "rovigo": "RO", "salerno": "SA",
	"sassari": "SS", "savona": "SV", "siena": "SI", "siracusa": "SR",
	"sondrio": "SO", "sud sardegna": "SU", "taranto": "TA", "teramo": "TE",
	"terni": "TR", "torino": "TO", "trapani": "TP", "trento": "TN",
	"treviso": "TV", "trieste": "TS", "udine": "UD", "varese": "VA",
	"venezia": "VE", "verbano-cusio-ossola": "VB", "vercelli": "VC", "verona": "VR",
	"vibo valentia": "VV", "vicenza": "VI", "viterbo": "VT",
}

// provinceIndex holds provinceNames keyed by folded name, plus every sigla.
var provinceIndex, provinceSigle = func() (map[string]string, map[string]bool) {
	idx := make(map[string]string, len(provinceNames))
	sigle := make(map[string]bool, len(provinceNames))
	for name, sigla := range provinceNames {
		idx[core.FoldHeader(name)] = sigla
		sigle[sigla] = true
	}
	return idx, sigle
}()

// NormalizeProvincia converts a province name to its sigla ("Milano" -> "MI").
// Siglas are upper-cased; unrecognized values are returned trimmed.
func NormalizeProvincia(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")

	if upper := strings.ToUpper(s); provinceSigle[upper] {
		return upper
	}
	if sigla, ok := provinceIndex[core.FoldHeader(s)]; ok {
		return sigla
	}
	return s
}

// NormalizeCAP restores leading zeros lost by spreadsheets ("184" -> "00184").
func NormalizeCAP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 5 || !allDigits(s) {
		return s
	}
	return strings.Repeat("0", 5-len(s)) + s
}

// NormalizePartitaIVA strips separators and the IT country prefix, and
// restores leading zeros of numeric VAT numbers.
func NormalizePartitaIVA(s string) string {
	s = strings.ToUpper(stripSeparators(s))
	if rest := strings.TrimPrefix(s, "IT"); rest != s && allDigits(rest) {
		s = rest
	}
	if allDigits(s) && len(s) < 11 {
		s = strings.Repeat("0", 11-len(s)) + s
	}
	return s
}

// NormalizeCodiceFiscale upper-cases and removes separators.
func NormalizeCodiceFiscale(s string) string {
	return strings.ToUpper(stripSeparators(s))
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' || r == '-' || r == '/' {
			return -1
		}
		return r
	}, s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
