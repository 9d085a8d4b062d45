// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/shineum/contact-form-relay/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// A provider makes exactly one delivery attempt per Send call.
type Provider interface {
	// Send delivers an email message through this provider and returns
	// the provider's receipt on success.
	Send(ctx context.Context, msg *email.Email) (*Receipt, error)

	// Name returns the human-readable name of this provider.
	Name() string
}

// Receipt is the success payload reported back to the form submitter.
type Receipt struct {
	MessageID string `json:"MessageId"`
}

// DeliveryError is a failed delivery. StatusCode is the status reported
// by the provider, or zero when it supplied none.
type DeliveryError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "email delivery failed"
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status to report for a delivery failure.
// It is the provider's status when one was given and is an error status,
// otherwise 500.
func StatusCode(err error) int {
	var dErr *DeliveryError
	if errors.As(err, &dErr) && dErr.StatusCode >= 400 && dErr.StatusCode <= 599 {
		return dErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Message returns the human-readable reason for a delivery failure.
func Message(err error) string {
	var dErr *DeliveryError
	if errors.As(err, &dErr) {
		return dErr.Error()
	}
	return err.Error()
}
