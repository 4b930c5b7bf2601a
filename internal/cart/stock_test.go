package cart

import (
	"math/rand/v2"
	"testing"

	"odil-be/internal/product"
	"odil-be/internal/stock"
	"odil-be/internal/variant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	blueKey variant.Key = "Color:Blue"
	redKey  variant.Key = "Color:Red"
)

func colourCase() product.Product {
	return product.Product{
		ID:             "case-1",
		Name:           "Case",
		SKU:            "C1",
		Price:          10,
		Variants:       variant.Groups{"Color": {"Red", "Blue"}},
		PriceOverrides: map[variant.Key]float64{blueKey: 12},
		Inventory:      map[variant.Key]int{blueKey: 1},
	}
}

func lookupOf(products ...product.Product) Lookup {
	return func(id string) (product.Product, bool) {
		for _, p := range products {
			if p.ID == id {
				return p, true
			}
		}
		return product.Product{}, false
	}
}

func TestAddCombinations(t *testing.T) {
	t.Run("Blue is clamped to its stock, Red is not", func(t *testing.T) {
		l := NewLedger()
		p := colourCase()

		res := AddCombinations(l, p, map[variant.Key]int{blueKey: 3, redKey: 2}, nil)

		assert.Equal(t, 3, res.Units)
		assert.Equal(t, []Trim{{Key: blueKey, Requested: 3, Allowed: 1}}, res.Trimmed)

		lines := l.Lines()
		require.Len(t, lines, 2)
		byKey := map[variant.Key]Line{lines[0].Key: lines[0], lines[1].Key: lines[1]}
		assert.Equal(t, 1, byKey[blueKey].Quantity)
		assert.Equal(t, 12.0, byKey[blueKey].Price)
		assert.Equal(t, 2, byKey[redKey].Quantity)
		assert.Equal(t, 10.0, byKey[redKey].Price)
		assert.Equal(t, variant.Selection{"Color": "Blue"}, byKey[blueKey].Selection)
	})

	t.Run("Stock already in the ledger counts", func(t *testing.T) {
		l := NewLedger()
		p := colourCase()
		AddCombinations(l, p, map[variant.Key]int{blueKey: 1}, nil)

		res := AddCombinations(l, p, map[variant.Key]int{blueKey: 1}, nil)
		assert.Equal(t, 0, res.Units)
		assert.Empty(t, res.Lines)
		assert.Equal(t, []Trim{{Key: blueKey, Requested: 1, Allowed: 0}}, res.Trimmed)
		assert.Equal(t, 1, l.TotalQuantity())
	})

	t.Run("Keys outside the combinations are ignored", func(t *testing.T) {
		l := NewLedger()
		res := AddCombinations(l, colourCase(), map[variant.Key]int{"Color:Green": 4, variant.BaseKey: 1}, nil)
		assert.Equal(t, 0, res.Units)
		assert.Empty(t, l.Lines())
	})

	t.Run("Restricted combinations", func(t *testing.T) {
		l := NewLedger()
		p := colourCase()
		groups := variant.Restrict(p.OptionGroups(), map[string][]string{"Color": {"Red"}})

		res := AddCombinations(l, p, map[variant.Key]int{blueKey: 1, redKey: 1}, variant.Combinations(groups))
		assert.Equal(t, 1, res.Units)
		assert.Equal(t, redKey, l.Lines()[0].Key)
	})

	t.Run("Product without options uses the base key", func(t *testing.T) {
		l := NewLedger()
		p := product.Product{ID: "cable", Price: 3, Inventory: map[variant.Key]int{variant.BaseKey: 5}}

		res := AddCombinations(l, p, map[variant.Key]int{"": 7}, nil)
		assert.Equal(t, 5, res.Units)
		assert.Equal(t, variant.BaseKey, l.Lines()[0].Key)
	})
}

func TestPriceSnapshot(t *testing.T) {
	l := NewLedger()
	p := colourCase()
	AddCombinations(l, p, map[variant.Key]int{redKey: 2}, nil)
	before := l.Subtotal()

	p.Price = 99
	p.PriceOverrides[redKey] = 50

	assert.Equal(t, before, l.Subtotal())
	assert.Equal(t, 10.0, l.Lines()[0].Price)
}

func TestStockMonotonicity(t *testing.T) {
	p := colourCase()
	p.Inventory = map[variant.Key]int{blueKey: 4, redKey: 6}
	ceilings := map[variant.Key]int{blueKey: 4, redKey: 6}
	keys := []variant.Key{blueKey, redKey}

	rng := rand.New(rand.NewPCG(7, 11))
	l := NewLedger()
	for step := 0; step < 500; step++ {
		switch rng.IntN(3) {
		case 0:
			key := keys[rng.IntN(len(keys))]
			AddCombinations(l, p, map[variant.Key]int{key: rng.IntN(5)}, nil)
		case 1:
			if n := len(l.Lines()); n > 0 {
				_, _, err := UpdateWithinStock(l, rng.IntN(n), rng.IntN(8), p)
				require.NoError(t, err)
			}
		case 2:
			if n := len(l.Lines()); n > 0 {
				require.NoError(t, l.Remove(rng.IntN(n)))
			}
		}

		for _, key := range keys {
			held := stock.CommittedElsewhere(l.Holdings(), p.ID, key, -1)
			require.LessOrEqual(t, held, ceilings[key], "step %d key %s", step, key)
		}
		require.NoError(t, ValidateStock(l, lookupOf(p)))
	}
}

func TestUpdateWithinStock(t *testing.T) {
	p := colourCase()
	p.Inventory = map[variant.Key]int{blueKey: 3}

	l := NewLedger()
	AddCombinations(l, p, map[variant.Key]int{blueKey: 1}, nil)

	applied, clamped, err := UpdateWithinStock(l, 0, 5, p)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.True(t, clamped)

	applied, clamped, err = UpdateWithinStock(l, 0, 2, p)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.False(t, clamped)

	applied, clamped, err = UpdateWithinStock(l, 0, -1, p)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.False(t, clamped)
	assert.Len(t, l.Lines(), 1)

	_, _, err = UpdateWithinStock(l, 4, 1, p)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestValidateStock(t *testing.T) {
	t.Run("Passes within stock", func(t *testing.T) {
		l := NewLedger()
		l.Add(Line{ProductID: "case-1", Key: blueKey, Quantity: 1})
		l.Add(Line{ProductID: "case-1", Key: redKey, Quantity: 40})
		assert.NoError(t, ValidateStock(l, lookupOf(colourCase())))
	})

	t.Run("Blocks lines above the stock left", func(t *testing.T) {
		l := NewLedger()
		l.Add(Line{ProductID: "case-1", Name: "Case", Key: redKey, Quantity: 1})
		l.Add(Line{ProductID: "case-1", Name: "Case", Key: blueKey, Quantity: 3})

		err := ValidateStock(l, lookupOf(colourCase()))
		require.ErrorIs(t, err, ErrStockExceeded)

		var serr *StockError
		require.ErrorAs(t, err, &serr)
		require.Len(t, serr.Lines, 1)
		assert.Equal(t, Shortfall{
			Index: 1, ProductID: "case-1", Name: "Case", Key: blueKey, Requested: 3, Remaining: 1,
		}, serr.Lines[0])
		assert.Contains(t, err.Error(), "Case wants 3, 1 left")

		assert.Equal(t, 3, l.Lines()[1].Quantity)
	})

	t.Run("Zero lines are skipped", func(t *testing.T) {
		l := NewLedger()
		l.Add(Line{ProductID: "gone", Quantity: 0})
		assert.NoError(t, ValidateStock(l, lookupOf()))
	})

	t.Run("Missing product blocks", func(t *testing.T) {
		l := NewLedger()
		l.Add(Line{ProductID: "gone", Name: "Old", Quantity: 1})
		assert.ErrorIs(t, ValidateStock(l, lookupOf()), ErrProductUnavailable)
	})
}
