package purchases

import (
	"context"
	"fmt"
	"strings"
)

type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailReceipts renders a purchase receipt as plain text and hands it to the
// mail sender.
type MailReceipts struct {
	sender MailSender
}

func NewMailReceipts(sender MailSender) *MailReceipts {
	return &MailReceipts{sender: sender}
}

func (m *MailReceipts) SendReceipt(ctx context.Context, to string, receipt Receipt) error {
	if m.sender == nil {
		return fmt.Errorf("mail sender is nil")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your purchase!\n\n")
	fmt.Fprintf(&b, "Order reference: %s\n\n", receipt.Reference)
	for _, item := range receipt.Items {
		fmt.Fprintf(&b, "  - %s (%s)\n", item.Title, item.FinalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal charged: %s\n", receipt.Total.StringFixed(2))
	fmt.Fprintf(&b, "\nYour downloads are available from your library for 24 hours per link.\n")

	subject := fmt.Sprintf("Your CyberShelf receipt (%s)", receipt.Reference)
	return m.sender.Send(ctx, to, subject, b.String())
}
