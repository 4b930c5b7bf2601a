package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"odil-be/internal/cart"
	"odil-be/internal/logger"
	"odil-be/internal/metrics"
	"odil-be/internal/order"
	"odil-be/internal/product"
	"odil-be/internal/variant"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

type orderTestContext struct {
	product product.Product
	ledger  *cart.Ledger
	added   cart.AddResult
	receipt *order.Receipt
	err     error
}

func (c *orderTestContext) reset() {
	c.product = product.Product{}
	c.ledger = cart.NewLedger()
	c.added = cart.AddResult{}
	c.receipt = nil
	c.err = nil
}

func (c *orderTestContext) lookup(id string) (product.Product, bool) {
	if id == c.product.ID {
		return c.product, true
	}
	return product.Product{}, false
}

// Given steps

func (c *orderTestContext) aProductNamedWithSKUPriced(id, name, sku string, price float64) error {
	c.product = product.Product{
		ID:             id,
		Name:           name,
		SKU:            sku,
		Price:          price,
		Variants:       variant.Groups{},
		PriceOverrides: map[variant.Key]float64{},
		Inventory:      map[variant.Key]int{},
	}
	return nil
}

func (c *orderTestContext) theProductHasOptionWithValues(label, values string) error {
	var list []string
	for _, v := range strings.Split(values, ",") {
		list = append(list, strings.TrimSpace(v))
	}
	c.product.Variants[label] = list
	return nil
}

func (c *orderTestContext) combinationCosts(key string, price float64) error {
	c.product.PriceOverrides[variant.Key(key)] = price
	return nil
}

func (c *orderTestContext) combinationHasInStock(key string, n int) error {
	c.product.Inventory[variant.Key(key)] = n
	return nil
}

func (c *orderTestContext) theCartHoldsOfIn(qty int, id, key string) error {
	p, ok := c.lookup(id)
	if !ok {
		return fmt.Errorf("unknown product %q", id)
	}
	c.ledger.Add(cart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     product.UnitPrice(p, variant.Key(key)),
		Selection: selectionOf(key),
		Quantity:  qty,
	})
	return nil
}

func (c *orderTestContext) theOrderNotesAre(notes string) error {
	c.ledger.SetNotes(notes)
	return nil
}

// When steps

func (c *orderTestContext) theCustomerAddsOfIn(qty int, id, key string) error {
	p, ok := c.lookup(id)
	if !ok {
		return fmt.Errorf("unknown product %q", id)
	}
	c.added = cart.AddCombinations(c.ledger, p, map[variant.Key]int{variant.Key(key): qty}, nil)
	return nil
}

func (c *orderTestContext) theCartIsSubmitted() error {
	svc := order.NewService(order.NewMemoryRepository(), order.NewWhatsApp(""), metrics.NewRegistry())
	c.receipt, c.err = svc.Submit(context.Background(), "feature", c.ledger, c.lookup)
	return nil
}

// Then steps

func (c *orderTestContext) theOrderIsAccepted() error {
	if c.err != nil {
		return fmt.Errorf("expected the order to be accepted, got %v", c.err)
	}
	if c.receipt == nil || c.receipt.Reference == "" {
		return errors.New("expected a receipt with a reference")
	}
	return nil
}

func (c *orderTestContext) theMessageContains(s string) error {
	if c.receipt == nil {
		return errors.New("no receipt")
	}
	if !strings.Contains(c.receipt.Message, s) {
		return fmt.Errorf("expected message to contain %q, got %q", s, c.receipt.Message)
	}
	return nil
}

func (c *orderTestContext) theCartIsEmpty() error {
	if n := len(c.ledger.Lines()); n != 0 {
		return fmt.Errorf("expected an empty cart, got %d lines", n)
	}
	return nil
}

func (c *orderTestContext) theCartHoldsOf(qty int, key string) error {
	for _, l := range c.ledger.Lines() {
		if l.Key == variant.Key(key) {
			if l.Quantity != qty {
				return fmt.Errorf("expected %d of %s, got %d", qty, key, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no line for %s", key)
}

func (c *orderTestContext) requestsWereTrimmed(n int) error {
	if len(c.added.Trimmed) != n {
		return fmt.Errorf("expected %d trimmed requests, got %d", n, len(c.added.Trimmed))
	}
	return nil
}

func (c *orderTestContext) theOrderIsRejectedForStock() error {
	if !errors.Is(c.err, cart.ErrStockExceeded) {
		return fmt.Errorf("expected a stock error, got %v", c.err)
	}
	return nil
}

func (c *orderTestContext) theOrderIsRejectedAsEmpty() error {
	if !errors.Is(c.err, order.ErrEmptyOrder) {
		return fmt.Errorf("expected an empty order error, got %v", c.err)
	}
	return nil
}

func selectionOf(key string) variant.Selection {
	sel := variant.Selection{}
	for _, pair := range strings.Split(key, "|") {
		label, value, ok := strings.Cut(pair, ":")
		if ok {
			sel[label] = value
		}
	}
	return sel
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &orderTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a product "([^"]*)" named "([^"]*)" with SKU "([^"]*)" priced (\d+\.\d+)$`, tc.aProductNamedWithSKUPriced)
	ctx.Step(`^the product has option "([^"]*)" with values "([^"]*)"$`, tc.theProductHasOptionWithValues)
	ctx.Step(`^combination "([^"]*)" costs (\d+\.\d+)$`, tc.combinationCosts)
	ctx.Step(`^combination "([^"]*)" has (\d+) in stock$`, tc.combinationHasInStock)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)" in "([^"]*)"$`, tc.theCartHoldsOfIn)
	ctx.Step(`^the order notes are "([^"]*)"$`, tc.theOrderNotesAre)

	// When steps
	ctx.Step(`^the customer adds (\d+) of "([^"]*)" in "([^"]*)"$`, tc.theCustomerAddsOfIn)
	ctx.Step(`^the cart is submitted$`, tc.theCartIsSubmitted)

	// Then steps
	ctx.Step(`^the order is accepted$`, tc.theOrderIsAccepted)
	ctx.Step(`^the message contains "([^"]*)"$`, tc.theMessageContains)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHoldsOf)
	ctx.Step(`^(\d+) request was trimmed$`, tc.requestsWereTrimmed)
	ctx.Step(`^the order is rejected for stock$`, tc.theOrderIsRejectedForStock)
	ctx.Step(`^the order is rejected as empty$`, tc.theOrderIsRejectedAsEmpty)
}

func TestFeatures(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"order.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
