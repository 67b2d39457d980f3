package normalize

import (
	"testing"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "abbreviations and directional",
			input: "123 N. Main St., Apt 4",
			want:  "123 NORTH MAIN STREET APARTMENT 4",
		},
		{
			name:  "hash unit",
			input: "500 Elm Blvd #12",
			want:  "500 ELM BOULEVARD UNIT 12",
		},
		{
			name:  "suite hash",
			input: "77 Capitol Ave Ste #300",
			want:  "77 CAPITOL AVENUE SUITE 300",
		},
		{
			name:  "po box",
			input: "P.O. Box 1234",
			want:  "PO BOX 1234",
		},
		{
			name:  "accents",
			input: "12 Calle José",
			want:  "12 CALLE JOSE",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAddress(tt.input); got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeZip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"62704", "62704"},
		{"62704-1234", "62704"},
		{"627041234", "62704"},
		{"2134", "02134"},
		{"21341234", "02134"},
		{"", ""},
		{"K1A 0B1", "K1A0B1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeZip(tt.input); got != tt.want {
				t.Errorf("NormalizeZip(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegexParser(t *testing.T) {
	got := RegexParser{}.Parse("123 Main St Apt 4, Springfield, IL 62704-0001")
	want := AddressComponents{
		HouseNumber: "123",
		Road:        "MAIN STREET",
		Unit:        "APARTMENT 4",
		City:        "SPRINGFIELD",
		State:       "IL",
		Zip:         "62704",
	}
	if got != want {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
	if line := got.Line(); line != "123 MAIN STREET APARTMENT 4" {
		t.Errorf("Line() = %q", line)
	}
}

func TestFillAddress(t *testing.T) {
	line, city, state, zip := FillAddress(RegexParser{}, "9 Oak Ln, Austin, TX 78701", "", "", "")
	if line != "9 OAK LANE" || city != "AUSTIN" || state != "TX" || zip != "78701" {
		t.Errorf("FillAddress() = %q %q %q %q", line, city, state, zip)
	}

	// fields already present are kept
	line, city, _, _ = FillAddress(RegexParser{}, "9 Oak Ln", "Round Rock", "TX", "78664")
	if line != "9 OAK LANE" || city != "Round Rock" {
		t.Errorf("FillAddress() = %q %q", line, city)
	}
}
