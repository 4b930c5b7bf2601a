package handler

import (
	"net/http"

	"odil-be/internal/cart"
	"odil-be/internal/catalogue"
	"odil-be/internal/product"
	"odil-be/internal/stock"
	"odil-be/internal/variant"

	"github.com/gin-gonic/gin"
)

// ProductView is a product as the storefront shows it.
type ProductView struct {
	product.Product
	Family     string                `json:"family"`
	PriceRange product.Range         `json:"price_range"`
	Specs      []string              `json:"specs"`
	SpecPairs  []product.LabeledSpec `json:"spec_pairs"`
	SpecTags   []string              `json:"spec_tags"`
}

func viewOf(p product.Product) ProductView {
	pairs, tags := product.SpecSheet(p)
	return ProductView{
		Product:    p,
		Family:     product.FamilyOf(p),
		PriceRange: product.PriceRange(p),
		Specs:      product.DisplaySpecs(p),
		SpecPairs:  pairs,
		SpecTags:   tags,
	}
}

// CombinationView is one purchasable combination with its price and stock.
type CombinationView struct {
	Key       variant.Key       `json:"key"`
	Selection variant.Selection `json:"selection"`
	Price     float64           `json:"price"`
	Ceiling   stock.Limit       `json:"ceiling"`
	InCart    int               `json:"in_cart"`
	Remaining stock.Limit       `json:"remaining"`
}

func (h *Handler) ListCatalogue(c *gin.Context) {
	var q catalogue.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products := catalogue.Filter(h.catalogue.Products(c.Request.Context()), q)
	out := make([]ProductView, len(products))
	for i, p := range products {
		out[i] = viewOf(p)
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "total": len(out)})
}

func (h *Handler) ListFamilies(c *gin.Context) {
	cfg := h.catalogue.Config(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": catalogue.Families(cfg)})
}

func (h *Handler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	cfg := h.catalogue.Config(ctx)
	idx := catalogue.BuildIndex(h.catalogue.Products(ctx))
	c.JSON(http.StatusOK, gin.H{"data": catalogue.Categories(cfg, idx, c.Query("family"))})
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, ok := h.catalogue.Get(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": product.ErrProductNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, viewOf(p))
}

// ListCombinations expands the product's option groups and resolves each
// combination against what the caller's cart already holds.
func (h *Handler) ListCombinations(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.catalogue.Get(ctx, c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": product.ErrProductNotFound.Error()})
		return
	}

	var holdings []stock.Holding
	if sid := sessionID(c); sid != "" {
		err := h.cart.With(ctx, sid, func(l *cart.Ledger) error {
			holdings = l.Holdings()
			return nil
		})
		if err != nil {
			writeError(c, err)
			return
		}
	}

	groups := p.OptionGroups()
	combos := variant.Expand(groups)
	out := make([]CombinationView, len(combos))
	for i, combo := range combos {
		ceiling := product.StockCeiling(p, combo.Key)
		held := stock.CommittedElsewhere(holdings, p.ID, combo.Key, -1)
		out[i] = CombinationView{
			Key:       combo.Key,
			Selection: combo.Selection,
			Price:     product.UnitPrice(p, combo.Key),
			Ceiling:   ceiling,
			InCart:    held,
			Remaining: stock.Remaining(ceiling, held),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   out,
		"total":  len(out),
		"groups": variant.Labels(groups),
		"active": variant.FirstOfEach(groups),
	})
}
