package catalogue

import (
	"testing"

	"odil-be/internal/variant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	t.Run("Every configured category has a schema", func(t *testing.T) {
		for _, cat := range DefaultConfig().Categories {
			s, err := SchemaFor(cat)
			require.NoError(t, err, cat)
			assert.Equal(t, cat, s.Category)
			assert.NotEmpty(t, s.Must, cat)
			assert.NotNil(t, s.Also, cat)
			assert.NotNil(t, s.Optional, cat)
		}
	})

	t.Run("Unknown category", func(t *testing.T) {
		_, err := SchemaFor("Drones")
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("Face ID only offers iPhone models", func(t *testing.T) {
		s, err := SchemaFor(CategoryFaceID)
		require.NoError(t, err)
		assert.Equal(t, []string{"iPhone"}, s.Must[0].AllowedBrands)
	})
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name     string
		draft    Draft
		problems []string
		wantErr  error
	}{
		{
			name:  "Valid cable",
			draft: Draft{Category: CategoryCables, Price: 2.5},
		},
		{
			name:     "Zero price",
			draft:    Draft{Category: CategoryCables, Price: "0"},
			problems: []string{"Price must be greater than 0"},
		},
		{
			name:     "Model picker needs a model",
			draft:    Draft{Category: CategoryPhoneCases, Price: 3.0},
			problems: []string{"Please select at least one model"},
		},
		{
			name:     "Phone needs a model name",
			draft:    Draft{Category: CategoryMobilePhones, Price: "abc"},
			problems: []string{"Price must be greater than 0", "Model is required"},
		},
		{
			name:    "Unknown category",
			draft:   Draft{Category: "Drones", Price: 1},
			wantErr: ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDraft(tt.draft)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case len(tt.problems) > 0:
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.problems, verr.Problems)
				assert.ErrorIs(t, err, ErrInvalidDraft)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildProduct(t *testing.T) {
	t.Run("Phone case with models and colours", func(t *testing.T) {
		p, err := BuildProduct(Draft{
			Category:    CategoryPhoneCases,
			Price:       "4.50",
			ModelsBrand: "iPhone",
			Values: FormValues{
				"models":   []any{"iPhone 13", "iPhone 14", "iPhone 13"},
				"material": "TPU",
				"color":    []any{"Black", " Blue "},
			},
			Inventory: map[string]any{"Color:Blue|Material:TPU|Model:iPhone 13": 2.0, "bad": "x"},
		})
		require.NoError(t, err)

		assert.Equal(t, "Case — iPhone 13 (TPU)", p.Name)
		assert.Equal(t, 4.5, p.Price)
		assert.Empty(t, p.ID)
		assert.Equal(t, variant.Groups{
			"Model":    {"iPhone 13", "iPhone 14"},
			"Material": {"TPU"},
			"Color":    {"Black", "Blue"},
			"Phone":    {"iPhone"},
		}, p.Variants)
		assert.Equal(t, []string{"TPU", "Black"}, p.Specs)
		assert.Equal(t, map[variant.Key]int{"Color:Blue|Material:TPU|Model:iPhone 13": 2}, p.Inventory)
	})

	t.Run("Explicit name is kept", func(t *testing.T) {
		p, err := BuildProduct(Draft{Category: CategoryChargers, Name: "  Travel Charger ", Price: 9})
		require.NoError(t, err)
		assert.Equal(t, "Travel Charger", p.Name)
	})

	t.Run("Scaffold name is replaced by the derived one", func(t *testing.T) {
		p, err := BuildProduct(Draft{
			Category: CategoryChargers,
			Name:     "Chargers —",
			Price:    9,
			Values:   FormValues{"wattage": "65W"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Charger — 65W", p.Name)
	})

	t.Run("Checkbox becomes a Yes option", func(t *testing.T) {
		p, err := BuildProduct(Draft{
			Category: CategoryChargingPorts,
			Price:    5,
			Values:   FormValues{"models": []string{"Galaxy S22"}, "type": "USB-C", "solderRequired": true},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Yes"}, p.Variants["Solder required"])
		assert.Equal(t, []string{"USB-C", "Solder"}, p.Specs)
	})

	t.Run("Derived specs are capped", func(t *testing.T) {
		p, err := BuildProduct(Draft{
			Category: CategoryMobilePhones,
			Price:    100,
			Values: FormValues{
				"model": "iPhone 13", "cond": "Used A", "sim": "Unlocked",
				"connect": "5G", "storage": "128GB", "ram": "4GB",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "iPhone 13 Used A", p.Name)
		assert.LessOrEqual(t, len(p.Specs), maxDerivedSpecs)
	})

	t.Run("Unknown category", func(t *testing.T) {
		_, err := BuildProduct(Draft{Category: "Drones"})
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})
}

func TestBaseCatalogue(t *testing.T) {
	base := Base()
	require.NotEmpty(t, base)

	seen := map[string]bool{}
	for _, p := range base {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.Category, p.ID)
		assert.GreaterOrEqual(t, p.Price, 0.0, p.ID)
	}

	t.Run("Price overrides are loaded", func(t *testing.T) {
		for _, p := range base {
			if p.ID == "sp-iph-14-hg-1pk" {
				key := variant.Key("Material:Hydrogel|Model:iPhone 14|Pack:2-Pack")
				assert.Equal(t, 4.8, p.PriceOverrides[key])
				return
			}
		}
		t.Fatal("hydrogel protector missing from base catalogue")
	})

	t.Run("Returns copies", func(t *testing.T) {
		first := Base()
		first[0].Name = "changed"
		assert.NotEqual(t, "changed", Base()[0].Name)
	})

	t.Run("Rejects duplicate ids", func(t *testing.T) {
		_, err := parseBase([]byte("products:\n  - {id: a}\n  - {id: a}\n"))
		assert.Error(t, err)
	})

	t.Run("Rejects missing ids", func(t *testing.T) {
		_, err := parseBase([]byte("products:\n  - {name: nameless}\n"))
		assert.Error(t, err)
	})
}
