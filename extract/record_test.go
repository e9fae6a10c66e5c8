package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	p := DefaultProfile("test")

	t.Run("plain price", func(t *testing.T) {
		rec, err := Extract("€3.49", "", p)
		require.NoError(t, err)
		assert.Equal(t, 3.49, rec.Price)
		assert.Equal(t, "EUR", rec.Currency)
		assert.False(t, rec.HasPromotion())
		assert.Nil(t, rec.OriginalPrice)
		assert.Nil(t, rec.PromotionDiscountValue)
	})

	t.Run("multi-buy keeps unit price as primary", func(t *testing.T) {
		rec, err := Extract("€2.00", "Any 3 for €5.00", p)
		require.NoError(t, err)
		assert.Equal(t, 2.00, rec.Price)
		assert.Equal(t, MultiBuy, rec.PromotionKind)
		assert.Equal(t, "Any 3 for €5.00", rec.PromotionText)
		assert.Nil(t, rec.OriginalPrice)
	})

	t.Run("was price yields original and exact discount", func(t *testing.T) {
		rec, err := Extract("€3.99", "Was €5.99", p)
		require.NoError(t, err)
		assert.Equal(t, 3.99, rec.Price)
		assert.Equal(t, TemporaryDiscount, rec.PromotionKind)
		require.NotNil(t, rec.OriginalPrice)
		assert.Equal(t, 5.99, *rec.OriginalPrice)
		require.NotNil(t, rec.PromotionDiscountValue)
		assert.Equal(t, 2.00, *rec.PromotionDiscountValue)
	})

	t.Run("half price keeps percentage as discount value", func(t *testing.T) {
		rec, err := Extract("€2.00", "Half Price", p)
		require.NoError(t, err)
		assert.Equal(t, PercentageOff, rec.PromotionKind)
		require.NotNil(t, rec.PromotionDiscountValue)
		assert.Equal(t, 50.0, *rec.PromotionDiscountValue)
		assert.Nil(t, rec.OriginalPrice)
	})

	t.Run("per-unit price is never primary", func(t *testing.T) {
		_, err := Extract("€1.99/kg", "", p)
		assert.ErrorIs(t, err, ErrNoPriceFound)
	})

	t.Run("item price wins over adjacent per-unit price", func(t *testing.T) {
		rec, err := Extract("€4.50 (€1.99/kg)", "", p)
		require.NoError(t, err)
		assert.Equal(t, 4.50, rec.Price)
	})

	t.Run("no numeric content", func(t *testing.T) {
		_, err := Extract("currently unavailable", "", p)
		assert.ErrorIs(t, err, ErrNoPriceFound)
	})

	t.Run("original price out of range is rejected", func(t *testing.T) {
		_, err := Extract("€3.99", "was €1200.00", p)
		assert.ErrorIs(t, err, ErrPriceOutOfRange)
	})

	t.Run("mojibake input extracts like clean input", func(t *testing.T) {
		dirty, err := Extract("â‚¬3.49", "", p)
		require.NoError(t, err)
		clean, err := Extract("€3.49", "", p)
		require.NoError(t, err)
		assert.Equal(t, clean, dirty)
	})

	t.Run("membership price becomes primary with computed discount", func(t *testing.T) {
		rec, err := Extract("Clubcard Price €2.00", "Regular price €3.00", TescoProfile())
		require.NoError(t, err)
		assert.Equal(t, 2.00, rec.Price)
		assert.Equal(t, MembershipPrice, rec.PromotionKind)
		assert.Equal(t, "Clubcard Price", rec.PromotionText)
		require.NotNil(t, rec.OriginalPrice)
		assert.Equal(t, 3.00, *rec.OriginalPrice)
		require.NotNil(t, rec.PromotionDiscountValue)
		assert.Equal(t, 1.00, *rec.PromotionDiscountValue)
	})

	t.Run("lower of two qualified prices is primary", func(t *testing.T) {
		rec, err := Extract("€3.00 €2.00", "Clubcard Price", TescoProfile())
		require.NoError(t, err)
		assert.Equal(t, 2.00, rec.Price)
		assert.Equal(t, MembershipPrice, rec.PromotionKind)
	})
}

func TestAssembleRecord(t *testing.T) {
	p := DefaultProfile("test")

	t.Run("price out of range", func(t *testing.T) {
		_, err := AssembleRecord(1500.00, nil, p)
		assert.ErrorIs(t, err, ErrPriceOutOfRange)
	})

	t.Run("non-positive discount drops the promotion entirely", func(t *testing.T) {
		orig := 3.99
		rec, err := AssembleRecord(3.99, &PromotionMatch{
			Kind:          TemporaryDiscount,
			Text:          "Was 3.99",
			OriginalPrice: &orig,
		}, p)
		require.NoError(t, err)
		assert.Nil(t, rec.OriginalPrice)
		assert.Nil(t, rec.PromotionDiscountValue)
		assert.False(t, rec.HasPromotion())
	})

	t.Run("discount always equals rounded difference", func(t *testing.T) {
		orig := 5.99
		stale := 0.37
		rec, err := AssembleRecord(3.99, &PromotionMatch{
			Kind:          TemporaryDiscount,
			Text:          "Was 5.99",
			OriginalPrice: &orig,
			DiscountValue: &stale,
		}, p)
		require.NoError(t, err)
		require.NotNil(t, rec.PromotionDiscountValue)
		assert.Equal(t, 2.00, *rec.PromotionDiscountValue)
	})
}

func TestPriceRecordJSON(t *testing.T) {
	t.Run("plain record omits promotion fields", func(t *testing.T) {
		raw, err := json.Marshal(&PriceRecord{Price: 3.49, Currency: "EUR"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"price":3.49,"currency":"EUR"}`, string(raw))
	})

	t.Run("promotion record carries all fields", func(t *testing.T) {
		orig, disc := 5.99, 2.00
		raw, err := json.Marshal(&PriceRecord{
			Price:                  3.99,
			Currency:               "EUR",
			OriginalPrice:          &orig,
			PromotionKind:          TemporaryDiscount,
			PromotionText:          "Was €5.99",
			PromotionDiscountValue: &disc,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"price": 3.99,
			"currency": "EUR",
			"original_price": 5.99,
			"promotion_type": "temporary_discount",
			"promotion_text": "Was €5.99",
			"promotion_discount_value": 2.00
		}`, string(raw))
	})
}
