package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Name
	}{
		{
			name:  "first last",
			input: "Robert Smith",
			want:  Name{Full: "ROBERT SMITH", First: "ROBERT", Last: "SMITH"},
		},
		{
			name:  "title middle suffix",
			input: "Dr. John Q. Public Jr.",
			want:  Name{Full: "JOHN Q PUBLIC JR", Title: "DR", First: "JOHN", Middle: "Q", Last: "PUBLIC", Suffix: "JR"},
		},
		{
			name:  "last comma first",
			input: "Smith, Mary Jo",
			want:  Name{Full: "MARY JO SMITH", First: "MARY", Middle: "JO", Last: "SMITH"},
		},
		{
			name:  "suffix before comma",
			input: "Smith Jr, John",
			want:  Name{Full: "JOHN SMITH JR", First: "JOHN", Last: "SMITH", Suffix: "JR"},
		},
		{
			name:  "preferred in parentheses",
			input: "Robert (Bob) Smith",
			want:  Name{Full: "ROBERT SMITH", First: "ROBERT", Last: "SMITH", Preferred: "BOB"},
		},
		{
			name:  "surname particle",
			input: "Anna van der Berg",
			want:  Name{Full: "ANNA VAN DER BERG", First: "ANNA", Last: "VAN DER BERG"},
		},
		{
			name:  "particle directly before last",
			input: "Maria De Leon",
			want:  Name{Full: "MARIA DE LEON", First: "MARIA", Last: "DE LEON"},
		},
		{
			name:  "single token",
			input: "Cher",
			want:  Name{Full: "CHER", Last: "CHER"},
		},
		{
			name:  "accents",
			input: "José Núñez",
			want:  Name{Full: "JOSE NUNEZ", First: "JOSE", Last: "NUNEZ"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseName(tt.input))
		})
	}
}

func TestNicknameMatch(t *testing.T) {
	assert.True(t, NicknameMatch("Bob", "Robert"))
	assert.True(t, NicknameMatch("ROBERT", "bob"))
	assert.True(t, NicknameMatch("Bob", "Rob"))
	assert.True(t, NicknameMatch("Mary", "mary"))
	assert.False(t, NicknameMatch("Bob", "William"))
	assert.False(t, NicknameMatch("", ""))
}

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Acme Corp.", "ACME CORPORATION"},
		{"Smith L.L.C.", "SMITH LIMITED LIABILITY COMPANY"},
		{"The Widget Co, Inc", "WIDGET COMPANY INCORPORATED"},
		{"Johnson & Johnson", "JOHNSON AND JOHNSON"},
		{"A B Smith", "A B SMITH"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCompany(tt.input), tt.input)
	}
}

func TestIsOrganization(t *testing.T) {
	assert.True(t, IsOrganization("Friends of Jane Doe"))
	assert.True(t, IsOrganization("Acme Holdings LLC"))
	assert.True(t, IsOrganization("Texas Realtors PAC"))
	assert.False(t, IsOrganization("Jane Doe"))
	assert.False(t, IsOrganization("Robert Smith Jr"))
}

func TestNormalizeState(t *testing.T) {
	tests := map[string]string{
		"tx":          "TX",
		"Texas":       "TX",
		"new york":    "NY",
		"Minnesotta":  "MN",
		"ZZ":          "",
		"":            "",
		"Pennsylvana": "PA",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeState(in), in)
	}
}

func TestNormalizeParty(t *testing.T) {
	tests := map[string]string{
		"DFL":                 "DEMOCRATIC",
		"Dem":                 "DEMOCRATIC",
		"r":                   "REPUBLICAN",
		"Republcan":           "REPUBLICAN",
		"Libertarian":         "LIBERTARIAN",
		"Legal Marijuana Now": "LEGAL MARIJUANA NOW",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeParty(in), in)
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" n/a "))
	assert.True(t, IsBlank("--"))
	assert.False(t, IsBlank("Smith"))
}
