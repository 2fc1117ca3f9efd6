package invoice_test

import (
	"testing"

	. "github.com/ladeflyt/grunnlag/internal/invoice"
)

func TestFormatAccounting(t *testing.T) {
	cases := []struct {
		Name   string
		Value  float64
		Expect string
	}{
		{Name: "Zero", Value: 0, Expect: "0,00"},
		{Name: "WholeNumber", Value: 5, Expect: "5,00"},
		{Name: "Cents", Value: 0.5, Expect: "0,50"},
		{Name: "SingleDigitCents", Value: 1.05, Expect: "1,05"},
		{Name: "Thousands", Value: 1234.56, Expect: "1 234,56"},
		{Name: "Millions", Value: 1234567.5, Expect: "1 234 567,50"},
		{Name: "ExactGroup", Value: 123456, Expect: "123 456,00"},
		{Name: "Negative", Value: -1234.56, Expect: "-1 234,56"},
		{Name: "RoundsUp", Value: 1.999, Expect: "2,00"},
		{Name: "RoundsHalfUp", Value: 0.005, Expect: "0,01"},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			if formatted := FormatAccounting(tc.Value); formatted != tc.Expect {
				t.Fatalf("expected %q, got %q", tc.Expect, formatted)
			}
		})
	}
}
