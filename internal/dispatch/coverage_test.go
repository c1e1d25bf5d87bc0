package dispatch

import (
	"testing"

	"standardizer/internal/domain"
)

func TestSubstringCoverage(t *testing.T) {
	standardized := []domain.StandardizedAttribute{
		{StandardName: "Цвет"},
		{StandardName: "Вес нетто"},
	}

	cases := []struct {
		name     string
		original string
		covered  bool
	}{
		{"exact match", "Цвет", true},
		{"case insensitive", "цвет", true},
		{"original contains standard", "Цвет корпуса", true},
		{"standard contains original", "Вес", true},
		{"no overlap", "Гарантия", false},
		{"empty name", "", false},
	}

	policy := SubstringCoverage{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Covered(domain.ProductAttribute{Name: tc.original}, standardized)
			if got != tc.covered {
				t.Errorf("Covered(%q) = %v, want %v", tc.original, got, tc.covered)
			}
		})
	}
}

func TestSubstringCoverage_NoStandardized(t *testing.T) {
	policy := SubstringCoverage{}
	if policy.Covered(domain.ProductAttribute{Name: "Цвет"}, nil) {
		t.Error("attribute cannot be covered by an empty result")
	}
}
