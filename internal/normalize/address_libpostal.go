//go:build libpostal

package normalize

import (
	postal "github.com/openvenues/gopostal/parser"
)

func init() {
	DefaultParser = LibpostalParser{}
}

// LibpostalParser parses addresses with libpostal. It requires the libpostal
// C library and its model files at runtime.
type LibpostalParser struct{}

// Parse implements Parser.
func (LibpostalParser) Parse(address string) AddressComponents {
	var c AddressComponents
	for _, comp := range postal.ParseAddress(address) {
		switch comp.Label {
		case "house_number":
			c.HouseNumber = Clean(comp.Value)
		case "road":
			c.Road = NormalizeAddress(comp.Value)
		case "unit", "level", "po_box":
			c.Unit = joinNonEmpty(c.Unit, NormalizeAddress(comp.Value))
		case "city":
			c.City = NormalizeName(comp.Value)
		case "state":
			c.State = NormalizeState(comp.Value)
		case "postcode":
			c.Zip = NormalizeZip(comp.Value)
		}
	}
	return c
}
