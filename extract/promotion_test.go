package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPromotion(t *testing.T) {
	p := DefaultProfile("test")

	testCases := []struct {
		name         string
		text         string
		context      string
		currentPrice float64
		wantKind     PromotionKind
		wantNil      bool
	}{
		{
			name:         "any N for amount",
			text:         "€2.00",
			context:      "Any 3 for €5.00",
			currentPrice: 2.00,
			wantKind:     MultiBuy,
		},
		{
			name:         "buy N get M free",
			text:         "€3.00",
			context:      "Buy 2 get 1 free",
			currentPrice: 3.00,
			wantKind:     MultiBuy,
		},
		{
			name:         "N for M units",
			text:         "€5.00",
			context:      "3 for 2 on all soft drinks",
			currentPrice: 5.00,
			wantKind:     MultiBuy,
		},
		{
			name:         "multi-buy outranks accompanying percentage",
			text:         "€2.00",
			context:      "Buy 3 for €6.00 25% off",
			currentPrice: 2.00,
			wantKind:     MultiBuy,
		},
		{
			name:         "was price",
			text:         "€3.99",
			context:      "Was €5.99",
			currentPrice: 3.99,
			wantKind:     TemporaryDiscount,
		},
		{
			name:         "percent off",
			text:         "€4.00",
			context:      "25% off marked items",
			currentPrice: 4.00,
			wantKind:     PercentageOff,
		},
		{
			name:         "save percent",
			text:         "€4.00",
			context:      "Save 30% this week",
			currentPrice: 4.00,
			wantKind:     PercentageOff,
		},
		{
			name:         "half price",
			text:         "€2.00",
			context:      "Half Price",
			currentPrice: 2.00,
			wantKind:     PercentageOff,
		},
		{
			name:         "save amount",
			text:         "€4.00",
			context:      "Save €2.50",
			currentPrice: 4.00,
			wantKind:     FixedAmountOff,
		},
		{
			name:         "amount off",
			text:         "€4.00",
			context:      "€1.00 off selected ranges",
			currentPrice: 4.00,
			wantKind:     FixedAmountOff,
		},
		{
			name:         "no promotion language",
			text:         "€3.49",
			context:      "",
			currentPrice: 3.49,
			wantNil:      true,
		},
		{
			name:         "percentage above bounds is noise",
			text:         "€4.00",
			context:      "95% off",
			currentPrice: 4.00,
			wantNil:      true,
		},
		{
			name:         "was price below current is noise",
			text:         "€3.99",
			context:      "Was €2.99",
			currentPrice: 3.99,
			wantNil:      true,
		},
		{
			name:         "implausible multi-buy quantity",
			text:         "€3.00",
			context:      "Any 12 for €30.00",
			currentPrice: 3.00,
			wantNil:      true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ClassifyPromotion(tc.text, tc.context, tc.currentPrice, p)
			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.NotEmpty(t, got.Text)
		})
	}
}

func TestClassifyPromotionDetails(t *testing.T) {
	p := DefaultProfile("test")

	t.Run("multi-buy carries quantity and matched text", func(t *testing.T) {
		got, err := ClassifyPromotion("€2.00", "Any 3 for €5.00", 2.00, p)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.Quantity)
		assert.Equal(t, 3, *got.Quantity)
		assert.Equal(t, "Any 3 for €5.00", got.Text)
	})

	t.Run("was price computes discount against current", func(t *testing.T) {
		got, err := ClassifyPromotion("€3.99", "Was €5.99", 3.99, p)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.OriginalPrice)
		assert.Equal(t, 5.99, *got.OriginalPrice)
		require.NotNil(t, got.DiscountValue)
		assert.Equal(t, 2.00, *got.DiscountValue)
	})

	t.Run("half price maps to fifty percent", func(t *testing.T) {
		got, err := ClassifyPromotion("€2.00", "Better than half price", 2.00, p)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.DiscountValue)
		assert.Equal(t, 50.0, *got.DiscountValue)
	})

	t.Run("classification is deterministic", func(t *testing.T) {
		first, err := ClassifyPromotion("€2.00", "Buy 3 for €6.00 25% off", 2.00, p)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			got, err := ClassifyPromotion("€2.00", "Buy 3 for €6.00 25% off", 2.00, p)
			require.NoError(t, err)
			assert.Equal(t, first, got)
		}
	})
}

func TestClassifyPromotionMembership(t *testing.T) {
	t.Run("loyalty marker with regular price in context", func(t *testing.T) {
		got, err := ClassifyPromotion("Clubcard Price €2.00", "Regular price €3.00", 2.00, TescoProfile())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, MembershipPrice, got.Kind)
		assert.Equal(t, "Clubcard Price", got.Text)
		require.NotNil(t, got.OriginalPrice)
		assert.Equal(t, 3.00, *got.OriginalPrice)
	})

	t.Run("non-members pay phrasing", func(t *testing.T) {
		got, err := ClassifyPromotion("Clubcard Price €2.00", "non-members pay €3.00", 2.00, TescoProfile())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, MembershipPrice, got.Kind)
		require.NotNil(t, got.OriginalPrice)
		assert.Equal(t, 3.00, *got.OriginalPrice)
	})

	t.Run("loyalty marker without member price in text", func(t *testing.T) {
		got, err := ClassifyPromotion("special offer", "Clubcard holders save in store", 1.00, TescoProfile())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("marker never fires without a loyalty scheme", func(t *testing.T) {
		got, err := ClassifyPromotion("Clubcard Price €2.00", "", 2.00, AldiProfile())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestClassifyPromotionAmbiguity(t *testing.T) {
	orig := func(v float64) HandlerFunc {
		return func(_ []string, _ MatchInput) *PromotionMatch {
			return &PromotionMatch{Text: "conflict", OriginalPrice: &v}
		}
	}
	anything := regexp.MustCompile(`.`)

	p := DefaultProfile("test")
	p.Families = []PromotionFamily{
		{Kind: TemporaryDiscount, Priority: 1, Rules: []PatternRule{{anything, orig(5.99)}}},
		{Kind: MembershipPrice, Priority: 1, Rules: []PatternRule{{anything, orig(6.99)}}},
	}

	_, err := ClassifyPromotion("€3.99", "whatever", 3.99, p)
	assert.ErrorIs(t, err, ErrAmbiguousPromotion)
}
