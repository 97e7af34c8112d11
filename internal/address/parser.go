package address

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"internship-router/internal/models"
)

// ParsedAddress is the structured form of a free-text address
type ParsedAddress struct {
	Raw         string                `json:"raw"`
	Street      string                `json:"street,omitempty"`
	HouseNumber string                `json:"house_number,omitempty"`
	PostalCode  string                `json:"postal_code,omitempty"`
	City        string                `json:"city,omitempty"`
	Country     models.Country        `json:"country,omitempty"`
	Quality     models.AddressQuality `json:"quality"`
	Issues      []string              `json:"issues,omitempty"`
}

var (
	// French postal codes are 5 digits, Luxembourg uses 4 with an optional L- prefix
	frPostalPat   = regexp.MustCompile(`\b\d{5}\b`)
	luPrefixedPat = regexp.MustCompile(`(?i)\bL[-\s]?\d{4}\b`)
	luBarePat     = regexp.MustCompile(`\b\d{4}\b`)

	// Pattern cascade, France: "street, 57000 Metz" / "street, Metz (57000)" / "street, Metz 57000"
	frPostalCityPat = regexp.MustCompile(`^(.*?)[\s,]+(\d{5})\s+([^,]+)$`)
	frCityParenPat  = regexp.MustCompile(`^(.*?)[\s,]+([^,()]+?)\s*\(\s*(\d{5})\s*\)$`)
	frCityPostalPat = regexp.MustCompile(`^(.+),\s*([^,\d]+?)\s+(\d{5})$`)

	// Pattern cascade, Luxembourg: same shapes around a 4-digit code
	luPostalCityPat = regexp.MustCompile(`(?i)^(.*?)[\s,]+((?:L[-\s]?)?\d{4})\s+([^,\d][^,]*)$`)
	luCityParenPat  = regexp.MustCompile(`(?i)^(.*?)[\s,]+([^,()]+?)\s*\(\s*((?:L[-\s]?)?\d{4})\s*\)$`)
	luCityPostalPat = regexp.MustCompile(`(?i)^(.+),\s*([^,\d]+?)\s+((?:L[-\s]?)?\d{4})$`)

	housePat = regexp.MustCompile(`(?i)^(\d+)\s*(bis|ter|quater)?\b[\s,]*(.*)$`)
	cedexPat = regexp.MustCompile(`(?i)\s*cedex(\s*\d+)?\s*$`)
)

// cityParticles are lowercase inside French and Luxembourgish place names
var cityParticles = map[string]bool{
	"de": true, "du": true, "des": true,
	"la": true, "le": true, "les": true, "lès": true,
	"sur": true, "sous": true, "en": true,
	"au": true, "aux": true, "et": true,
}

// Parse turns a free-text address into its structured parts. It is total:
// any input, including empty, yields a value with a quality tier and the
// list of parts that could not be recovered.
func Parse(raw string) ParsedAddress {
	pa := ParsedAddress{Raw: raw, Quality: models.QualityInvalid}

	working := strings.Join(strings.Fields(raw), " ")
	working = strings.Trim(working, " ,.")
	if working == "" {
		pa.Issues = append(pa.Issues, "empty address")
		return pa
	}

	working, pa.Country = stripCountrySegment(working)
	if pa.Country == models.CountryUnknown {
		pa.Country = detectCountryByPostal(working)
	}

	street, postal, city := splitParts(working, pa.Country)

	pa.PostalCode = normalizePostal(postal, pa.Country)
	pa.City = CleanCity(city)
	pa.HouseNumber, pa.Street = splitHouseNumber(street)

	pa.classify()
	return pa
}

// stripCountrySegment removes a trailing country designation ("..., France")
// and reports the country it named
func stripCountrySegment(s string) (string, models.Country) {
	idx := strings.LastIndex(s, ",")
	if idx < 0 {
		return s, models.CountryUnknown
	}

	last := strings.ToLower(strings.TrimSpace(s[idx+1:]))
	switch last {
	case "france":
		return strings.Trim(s[:idx], " ,"), models.CountryFrance
	case "luxembourg", "lux", "lux.", "grand-duché de luxembourg", "grand duché de luxembourg":
		return strings.Trim(s[:idx], " ,"), models.CountryLuxembourg
	}
	return s, models.CountryUnknown
}

// detectCountryByPostal applies the postal-shape decision table: an L-prefixed
// or 4-digit code means Luxembourg, a 5-digit code means France. Ambiguous
// bare 4-digit tokens therefore classify as Luxembourg.
func detectCountryByPostal(s string) models.Country {
	if luPrefixedPat.MatchString(s) {
		return models.CountryLuxembourg
	}
	if frPostalPat.MatchString(s) {
		return models.CountryFrance
	}
	if luBarePat.MatchString(s) {
		return models.CountryLuxembourg
	}
	return models.CountryUnknown
}

// splitParts applies the country's ordered pattern cascade: postal+city
// suffix, city (postal) suffix, city postal suffix, postal-anywhere with
// trailing-city heuristic, and finally comma segments. First match wins.
func splitParts(s string, country models.Country) (street, postal, city string) {
	postalCityPat, cityParenPat, cityPostalPat, anyPostal := frPostalCityPat, frCityParenPat, frCityPostalPat, frPostalPat
	if country == models.CountryLuxembourg {
		postalCityPat, cityParenPat, cityPostalPat, anyPostal = luPostalCityPat, luCityParenPat, luCityPostalPat, luPrefixedPat
	}

	if m := postalCityPat.FindStringSubmatch(s); m != nil {
		return m[1], m[2], m[3]
	}
	if m := cityParenPat.FindStringSubmatch(s); m != nil {
		return m[1], m[3], m[2]
	}
	if m := cityPostalPat.FindStringSubmatch(s); m != nil {
		return m[1], m[3], m[2]
	}

	loc := anyPostal.FindStringIndex(s)
	if loc == nil && country == models.CountryLuxembourg {
		loc = luBarePat.FindStringIndex(s)
	}
	if loc != nil {
		return postalOnlySplit(s, loc)
	}

	// No postal code anywhere: street from the first comma segment, city
	// from the last
	segments := strings.Split(s, ",")
	if len(segments) >= 2 {
		return strings.TrimSpace(segments[0]), "", strings.TrimSpace(segments[len(segments)-1])
	}
	return strings.TrimSpace(s), "", ""
}

// postalOnlySplit takes whatever precedes the postal code as street and
// whatever follows it, up to the next comma, as city
func postalOnlySplit(s string, loc []int) (street, postal, city string) {
	street = strings.Trim(s[:loc[0]], " ,")
	postal = s[loc[0]:loc[1]]
	after := strings.Trim(s[loc[1]:], " ,")
	if idx := strings.Index(after, ","); idx >= 0 {
		after = strings.TrimSpace(after[:idx])
	}
	return street, postal, after
}

// normalizePostal uppercases and hyphenates Luxembourg codes ("l 1430" -> "L-1430")
func normalizePostal(postal string, country models.Country) string {
	postal = strings.TrimSpace(postal)
	if postal == "" || country != models.CountryLuxembourg {
		return postal
	}
	digits := strings.TrimLeft(strings.ToUpper(postal), "L -")
	if len(digits) == 4 && luPrefixedPat.MatchString(strings.ToUpper(postal)) {
		return "L-" + digits
	}
	return digits
}

// splitHouseNumber extracts a leading house number (with bis/ter/quater
// suffixes) from the street part
func splitHouseNumber(street string) (number, rest string) {
	street = strings.Trim(street, " ,")
	m := housePat.FindStringSubmatch(street)
	if m == nil {
		return "", street
	}
	number = m[1]
	if m[2] != "" {
		number = fmt.Sprintf("%s %s", m[1], strings.ToLower(m[2]))
	}
	return number, strings.TrimSpace(m[3])
}

// classify assigns the quality tier from the recovered parts and records
// each missing part as a discrete issue
func (pa *ParsedAddress) classify() {
	if pa.Street == "" {
		pa.Issues = append(pa.Issues, "no street")
	}
	if pa.HouseNumber == "" {
		pa.Issues = append(pa.Issues, "no house number")
	}
	if pa.PostalCode == "" {
		pa.Issues = append(pa.Issues, "no postal code")
	}
	if pa.City == "" {
		pa.Issues = append(pa.Issues, "no city")
	}

	hasLocality := pa.PostalCode != "" || pa.City != ""
	switch {
	case pa.Street != "" && pa.HouseNumber != "" && pa.PostalCode != "" && pa.City != "":
		pa.Quality = models.QualityComplete
	case (pa.Street != "" && hasLocality) || (pa.PostalCode != "" && pa.City != ""):
		pa.Quality = models.QualityPartial
	case pa.Street != "" || pa.HouseNumber != "" || hasLocality:
		pa.Quality = models.QualityMinimal
	default:
		pa.Quality = models.QualityInvalid
	}
}

// HasLocality reports whether the address carries any city or postal
// information usable by degraded geocoding queries
func (pa *ParsedAddress) HasLocality() bool {
	return pa.City != "" || pa.PostalCode != ""
}

// CleanCity normalizes a city name: collapsed whitespace, cedex suffixes
// stripped, accent-preserving capitalization with linguistic particles kept
// lowercase inside the name
func CleanCity(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	s = cedexPat.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = capitalizeWord(w, i == 0)
	}
	return strings.Join(words, " ")
}

// capitalizeWord handles hyphenated names part by part ("saint-avold" -> "Saint-Avold")
func capitalizeWord(w string, first bool) string {
	parts := strings.Split(w, "-")
	for i, p := range parts {
		parts[i] = capitalizePart(p, first && i == 0)
	}
	return strings.Join(parts, "-")
}

func capitalizePart(p string, first bool) string {
	if p == "" {
		return p
	}
	lower := strings.ToLower(p)
	if !first && cityParticles[lower] {
		return lower
	}
	// Elided particles keep the lowercase prefix: "val d'ajol" -> "Val d'Ajol"
	if strings.IndexByte(lower, '\'') == 1 {
		prefix, rest := lower[:2], lower[2:]
		if !first && (prefix == "d'" || prefix == "l'") {
			return prefix + upperFirst(rest)
		}
		return upperFirst(prefix) + upperFirst(rest)
	}
	return upperFirst(lower)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
