package stock

import (
	"encoding/json"
	"testing"

	"odil-be/internal/variant"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	t.Run("Unlimited stays unlimited", func(t *testing.T) {
		assert.True(t, Remaining(Unlimited, 50).IsUnlimited())
	})

	t.Run("Subtracts committed", func(t *testing.T) {
		n, ok := Remaining(Finite(5), 2).Value()
		assert.True(t, ok)
		assert.Equal(t, 3, n)
	})

	t.Run("Never negative", func(t *testing.T) {
		n, ok := Remaining(Finite(2), 7).Value()
		assert.True(t, ok)
		assert.Equal(t, 0, n)
	})

	t.Run("Zero differs from unlimited", func(t *testing.T) {
		assert.NotEqual(t, Unlimited, Finite(0))
		assert.False(t, Finite(0).IsUnlimited())
	})
}

func TestClampRequest(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		remaining Limit
		want      int
		clamped   bool
	}{
		{"unlimited passes through", 40, Unlimited, 40, false},
		{"within stock", 2, Finite(3), 2, false},
		{"exactly stock", 3, Finite(3), 3, false},
		{"over stock", 3, Finite(1), 1, true},
		{"nothing left", 1, Finite(0), 0, true},
		{"negative request", -4, Finite(2), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ClampRequest(tt.requested, tt.remaining)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}

func TestCommittedElsewhere(t *testing.T) {
	blue := variant.Key("Color:Blue")
	holdings := []Holding{
		{ProductID: "p1", Key: blue, Quantity: 2},
		{ProductID: "p1", Key: "Color:Red", Quantity: 5},
		{ProductID: "p2", Key: blue, Quantity: 9},
		{ProductID: "p1", Key: blue, Quantity: 1},
		{ProductID: "p1", Key: "", Quantity: 4},
	}

	assert.Equal(t, 3, CommittedElsewhere(holdings, "p1", blue, -1))
	assert.Equal(t, 1, CommittedElsewhere(holdings, "p1", blue, 0))
	assert.Equal(t, 4, CommittedElsewhere(holdings, "p1", variant.BaseKey, -1))
	assert.Equal(t, 0, CommittedElsewhere(holdings, "p3", blue, -1))
}

func TestLimitJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Limit{"a": Unlimited, "b": Finite(3)})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":3}`, string(b))
}
