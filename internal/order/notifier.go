package order

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// DefaultWhatsAppNumber is the shop's number in E.164 form without the plus.
const DefaultWhatsAppNumber = "992935563306"

// Notifier delivers the formatted order text.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// WhatsApp hands the order to the customer as a wa.me deep link; the customer
// opens it and sends the prefilled message. Send never fails.
type WhatsApp struct {
	Number string

	mu   sync.Mutex
	last string
}

func NewWhatsApp(number string) *WhatsApp {
	return &WhatsApp{Number: number}
}

// Link returns the wa.me URL that opens a chat with text prefilled.
func (w *WhatsApp) Link(text string) string {
	number := strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, w.Number)
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + number + "?text=" + escaped
}

func (w *WhatsApp) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link := w.Link(text)

	w.mu.Lock()
	w.last = link
	w.mu.Unlock()
	return nil
}

// LastLink returns the link built by the most recent Send.
func (w *WhatsApp) LastLink() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// linker is implemented by notifiers that hand back a URL for the customer.
type linker interface {
	Link(text string) string
}
