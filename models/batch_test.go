package models

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestBatchABV(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		batch Batch
		want  *float64
	}{
		{"no final gravity", Batch{StartGravity: 1.050}, nil},
		{"no start gravity", Batch{FinalGravity: floatPtr(1.010)}, nil},
		{"typical wine", Batch{StartGravity: 1.090, FinalGravity: floatPtr(0.996)}, floatPtr(12.34)},
		{"no drop", Batch{StartGravity: 1.050, FinalGravity: floatPtr(1.050)}, floatPtr(0)},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.batch.ABV()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ABV() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("ABV() = %.2f, want %.2f", *got, *tt.want)
			}
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"kilograms", " KG ", UnitKilogram},
		{"liters", "l", UnitLiter},
		{"blank defaults to grams", "", UnitGram},
		{"unknown defaults to grams", "bushels", UnitGram},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeUnit(tt.value); got != tt.want {
				t.Fatalf("NormalizeUnit(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidProductType(t *testing.T) {
	t.Parallel()

	if !ValidProductType(ProductTypeWine) || !ValidProductType(ProductTypeMead) {
		t.Fatal("expected wine and mead to be valid product types")
	}
	if ValidProductType("CIDER") {
		t.Fatal("expected unknown product type to be rejected")
	}
	if got := NormalizeProductType(" mead "); got != ProductTypeMead {
		t.Fatalf("NormalizeProductType returned %q, want %q", got, ProductTypeMead)
	}
}
