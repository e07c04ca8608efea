package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountScore(t *testing.T) {
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal literal %q: %v", s, err)
		}
		return v
	}

	t.Run("equal amounts score 1", func(t *testing.T) {
		assert.Equal(t, 1.0, AmountScore(d("150.00"), d("150.00"), 2.0))
	})

	t.Run("sign is ignored", func(t *testing.T) {
		// Documents carry positive totals, bank debits are negative.
		assert.Equal(t, 1.0, AmountScore(d("150.00"), d("-150.00"), 2.0))
	})

	t.Run("decays linearly within tolerance", func(t *testing.T) {
		// relDiff = 1/101, tolerance = 0.02
		got := AmountScore(d("100.00"), d("101.00"), 2.0)
		assert.InDelta(t, 1.0-(1.0/101.0)/0.02, got, 1e-9)
	})

	t.Run("zero outside tolerance", func(t *testing.T) {
		assert.Equal(t, 0.0, AmountScore(d("100.00"), d("103.00"), 2.0))
	})

	t.Run("zero tolerance means exact only", func(t *testing.T) {
		assert.Equal(t, 0.0, AmountScore(d("100.00"), d("100.01"), 0))
		assert.Equal(t, 1.0, AmountScore(d("100.00"), d("100.00"), 0))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t,
			AmountScore(d("100.00"), d("101.50"), 2.0),
			AmountScore(d("101.50"), d("100.00"), 2.0))
	})

	t.Run("both zero", func(t *testing.T) {
		assert.Equal(t, 1.0, AmountScore(decimal.Zero, decimal.Zero, 2.0))
	})
}

func TestDateScore(t *testing.T) {
	base := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.0, DateScore(base, base, 3))
	assert.Equal(t, 0.75, DateScore(base, base.AddDate(0, 0, 1), 3))
	assert.Equal(t, 0.5, DateScore(base, base.AddDate(0, 0, -2), 3))
	assert.Equal(t, 0.25, DateScore(base, base.AddDate(0, 0, 3), 3))
	assert.Equal(t, 0.0, DateScore(base, base.AddDate(0, 0, 4), 3))
	assert.Equal(t, 0.0, DateScore(base, base.AddDate(0, 0, 1), 0))
}

func TestMerchantScore(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		assert.Equal(t, 1.0, MerchantScore("żabka polska", "żabka polska"))
	})

	t.Run("empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, MerchantScore("", "żabka polska"))
		assert.Equal(t, 0.0, MerchantScore("żabka polska", ""))
	})

	t.Run("token subset scores high", func(t *testing.T) {
		got := MerchantScore("sklep abc", "sklep abc warszawa")
		assert.InDelta(t, 0.95, got, 1e-9)
	})

	t.Run("single typo stays strong", func(t *testing.T) {
		got := MerchantScore("biedronka", "biedrnka")
		assert.InDelta(t, 1.0-1.0/9.0, got, 1e-9)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, MerchantScore("biedronka", "orlen stacja 44"), 0.5)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"sklep abc", "sklep abc warszawa"},
			{"biedronka", "biedrnka"},
			{"uber eats", "uber"},
		}
		for _, p := range pairs {
			assert.Equal(t, MerchantScore(p[0], p[1]), MerchantScore(p[1], p[0]), "pair %v", p)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		got := MerchantScore("uber eats", "uber")
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}
