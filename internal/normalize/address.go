package normalize

import (
	"regexp"
	"strings"
)

// streetWords expands USPS street suffix, unit and directional abbreviations.
var streetWords = map[string]string{
	"AVE": "AVENUE", "AV": "AVENUE", "AVN": "AVENUE",
	"BLVD": "BOULEVARD", "BLV": "BOULEVARD",
	"CIR": "CIRCLE", "CT": "COURT", "CTR": "CENTER", "CV": "COVE",
	"DR": "DRIVE", "EXPY": "EXPRESSWAY", "FWY": "FREEWAY",
	"HWY": "HIGHWAY", "HWAY": "HIGHWAY",
	"LN": "LANE", "LP": "LOOP", "PKWY": "PARKWAY", "PKY": "PARKWAY",
	"PL": "PLACE", "PLZ": "PLAZA", "RD": "ROAD", "RTE": "ROUTE",
	"SQ": "SQUARE", "ST": "STREET", "STR": "STREET", "TER": "TERRACE",
	"TRL": "TRAIL", "TPKE": "TURNPIKE", "WAY": "WAY", "XING": "CROSSING",
	"APT": "APARTMENT", "STE": "SUITE", "BLDG": "BUILDING", "FL": "FLOOR",
	"RM": "ROOM", "UNIT": "UNIT", "DEPT": "DEPARTMENT",
	"N": "NORTH", "S": "SOUTH", "E": "EAST", "W": "WEST",
	"NE": "NORTHEAST", "NW": "NORTHWEST", "SE": "SOUTHEAST", "SW": "SOUTHWEST",
}

var (
	reZip      = regexp.MustCompile(`\b(\d{5})(?:-?\d{4})?\b`)
	rePOBox    = regexp.MustCompile(`\bP\.?\s*O\.?\s*BOX\b|\bPOST OFFICE BOX\b`)
	reUnitHash = regexp.MustCompile(`\b(APT|APARTMENT|STE|SUITE|UNIT|RM|ROOM)\s*#`)
	reUnit     = regexp.MustCompile(`\b(APARTMENT|SUITE|UNIT|ROOM|FLOOR|BUILDING)\s+([0-9A-Z-]+)$`)
	reCityLine = regexp.MustCompile(`^(.*?),\s*([A-Z .]+?),?\s+([A-Z]{2})\s+(\d{5}(?:-?\d{4})?)$`)
	reHouseNum = regexp.MustCompile(`^(\d+[A-Z]?(?:-\d+)?)\s+(.*)$`)
)

// NormalizeAddress canonicalizes a street line: "123 N. Main St., Apt 4"
// becomes "123 NORTH MAIN STREET APARTMENT 4".
func NormalizeAddress(s string) string {
	s = rePOBox.ReplaceAllString(Fold(s), "PO BOX")
	s = reUnitHash.ReplaceAllString(s, "$1 ")
	s = strings.ReplaceAll(s, "#", " UNIT ")
	toks := strings.Fields(Clean(s))
	for i, t := range toks {
		t = stripToken(t)
		if full, ok := streetWords[t]; ok {
			t = full
		}
		toks[i] = t
	}
	return joinNonEmpty(toks...)
}

// NormalizeZip returns the five-digit ZIP code in s, restoring a leading zero
// dropped by spreadsheet exports ("2134" becomes "02134"). Non-US codes come
// back cleaned but otherwise unchanged.
func NormalizeZip(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := reZip.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	switch {
	case len(digits) == 4 && len(digits) == len(strings.ReplaceAll(s, " ", "")):
		return "0" + digits
	case len(digits) == 9:
		return digits[:5]
	case len(digits) == 8:
		return "0" + digits[:4]
	}
	return strings.ReplaceAll(Clean(s), " ", "")
}

// AddressComponents is a parsed US address. Empty fields were not found.
type AddressComponents struct {
	HouseNumber string
	Road        string
	Unit        string
	City        string
	State       string
	Zip         string
}

// Line returns the street line.
func (c AddressComponents) Line() string {
	return joinNonEmpty(c.HouseNumber, c.Road, c.Unit)
}

// Parser splits a one-line address into components.
type Parser interface {
	Parse(address string) AddressComponents
}

// DefaultParser is the regular-expression parser unless the binary is built
// with libpostal support.
var DefaultParser Parser = RegexParser{}

// RegexParser handles "<street>, <city>, <ST> <zip>" lines and bare street
// lines.
type RegexParser struct{}

// Parse implements Parser.
func (RegexParser) Parse(address string) AddressComponents {
	var c AddressComponents
	s := Fold(address)
	if s == "" {
		return c
	}
	if m := reCityLine.FindStringSubmatch(s); m != nil {
		s = m[1]
		c.City = NormalizeName(m[2])
		c.State = m[3]
		c.Zip = NormalizeZip(m[4])
	}
	line := NormalizeAddress(s)
	if m := reUnit.FindStringSubmatch(line); m != nil {
		c.Unit = strings.TrimSpace(m[0])
		line = strings.TrimSpace(strings.TrimSuffix(line, m[0]))
	}
	if m := reHouseNum.FindStringSubmatch(line); m != nil {
		c.HouseNumber = m[1]
		line = m[2]
	}
	c.Road = line
	return c
}

// FillAddress completes missing city, state and zip from a street field that
// carries the whole address, returning the cleaned street line.
func FillAddress(p Parser, street, city, state, zip string) (string, string, string, string) {
	if p == nil {
		p = DefaultParser
	}
	c := p.Parse(street)
	line := c.Line()
	if line == "" {
		line = NormalizeAddress(street)
	}
	if city == "" {
		city = c.City
	}
	if state == "" {
		state = c.State
	}
	if zip == "" {
		zip = c.Zip
	}
	return line, city, state, zip
}
