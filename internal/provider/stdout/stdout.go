// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/shineum/contact-form-relay/internal/email"
	"github.com/shineum/contact-form-relay/internal/provider"
)

// Provider prints email messages in a human-readable format. It is meant
// for local development where no SES account is available.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the email message and returns a receipt with a generated
// message ID. A failed write is reported as a delivery error.
func (p *Provider) Send(ctx context.Context, msg *email.Email) (*provider.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, &provider.DeliveryError{Err: err}
	}

	id := uuid.NewString()

	var b strings.Builder
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Message-ID: %s\n", id)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	if len(msg.ReplyTo) > 0 {
		fmt.Fprintf(&b, "Reply-To: %s\n", strings.Join(msg.ReplyTo, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.TextBody + "\n")
	b.WriteString("========================================\n")

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return nil, &provider.DeliveryError{Message: "failed to write message", Err: err}
	}

	return &provider.Receipt{MessageID: id}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
