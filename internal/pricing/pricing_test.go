package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReferenceBreakdown(t *testing.T) {
	// subtotal=100.00 -> fee=10.00, tax=7.00, total=117.00
	sub := d("100.00")
	assert.True(t, ServiceFee(sub).Equal(d("10.00")), "fee=%s", ServiceFee(sub))
	assert.True(t, Tax(sub).Equal(d("7.00")), "tax=%s", Tax(sub))
	assert.True(t, Total(sub).Equal(d("117.00")), "total=%s", Total(sub))
}

func TestPerStageRounding(t *testing.T) {
	cases := []struct {
		subtotal string
		fee      string
		tax      string
		total    string
	}{
		{"0.00", "0.00", "0.00", "0.00"},
		{"19.99", "2.00", "1.40", "23.39"},
		{"33.35", "3.34", "2.33", "39.02"},  // fee 3.335 rounds half-up to 3.34
		{"12.50", "1.25", "0.88", "14.63"},  // tax 0.875 rounds half-up to 0.88
		{"45.45", "4.55", "3.18", "53.18"},  // fee 4.545 -> 4.55, tax 3.1815 -> 3.18
		{"999.99", "100.00", "70.00", "1169.99"},
	}
	for _, tc := range cases {
		sub := d(tc.subtotal)
		assert.True(t, ServiceFee(sub).Equal(d(tc.fee)), "subtotal=%s fee=%s want %s", tc.subtotal, ServiceFee(sub), tc.fee)
		assert.True(t, Tax(sub).Equal(d(tc.tax)), "subtotal=%s tax=%s want %s", tc.subtotal, Tax(sub), tc.tax)
		assert.True(t, Total(sub).Equal(d(tc.total)), "subtotal=%s total=%s want %s", tc.subtotal, Total(sub), tc.total)
	}
}

func TestTotalMatchesFormula(t *testing.T) {
	// total == round(subtotal + round(subtotal*0.10,2) + round(subtotal*0.07,2), 2)
	for _, s := range []string{"1.00", "7.77", "42.00", "123.45", "250.10", "10000.00"} {
		sub := d(s)
		expect := sub.
			Add(sub.Mul(d("0.10")).Round(2)).
			Add(sub.Mul(d("0.07")).Round(2)).
			Round(2)
		assert.True(t, Total(sub).Equal(expect), "subtotal=%s", s)
	}
}

func TestSubtotal(t *testing.T) {
	require.True(t, Subtotal(d("25.50"), 3).Equal(d("76.50")))
	require.True(t, Subtotal(d("0.01"), 100).Equal(d("1.00")))
}
