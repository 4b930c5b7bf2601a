package order

import (
	"strings"

	"odil-be/internal/cart"
	"odil-be/internal/variant"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	messageHeader  = "🛒 *Order Request*"
	messageClosing = "Please confirm availability and pricing. Thank you!"
)

var gbp = message.NewPrinter(language.BritishEnglish)

// FormatMoney renders v as pounds with grouped thousands, e.g. £1,234.50.
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + gbp.Sprintf("£%.2f", -v)
	}
	return gbp.Sprintf("£%.2f", v)
}

// BuildMessage renders the order text sent to the shop. Lines without a
// quantity are left out; the subtotal is taken as given.
func BuildMessage(lines []cart.Line, subtotal float64, notes string) string {
	var b strings.Builder
	b.WriteString(messageHeader)
	b.WriteString("\n\n")

	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		b.WriteString("• " + l.Name + " (SKU: " + l.SKU + ")\n")
		if v := variantsLine(l.Selection); v != "" {
			b.WriteString("  Variants: " + v + "\n")
		}
		b.WriteString(gbp.Sprintf("  Qty: %d × %s = %s\n\n",
			l.Quantity, FormatMoney(l.Price), FormatMoney(l.Total())))
	}

	b.WriteString("*Subtotal: " + FormatMoney(subtotal) + "*\n\n")
	if n := strings.TrimSpace(notes); n != "" {
		b.WriteString("Notes: " + n + "\n\n")
	}
	b.WriteString(messageClosing)
	return b.String()
}

func variantsLine(sel variant.Selection) string {
	sel = sel.Normalize()
	labels := make([]string, 0, len(sel))
	for label := range sel {
		labels = append(labels, label)
	}
	variant.SortStrings(labels)

	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = label + ": " + sel[label]
	}
	return strings.Join(parts, ", ")
}
