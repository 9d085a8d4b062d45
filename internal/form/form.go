// Package form decodes contact-form submissions and turns them into
// outbound email messages.
package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shineum/contact-form-relay/internal/email"
)

// Submission is the JSON payload posted by the contact form. Every field
// is free text supplied by the submitter; address syntax is not checked.
type Submission struct {
	SendTo     string `json:"send_to"`
	ReplyTo    string `json:"reply_to"`
	SESAddress string `json:"ses_address"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Name       string `json:"name"`

	// Honeypot is a hidden form field. It is kept raw so that bots
	// filling it with numbers or booleans are still recognised.
	Honeypot json.RawMessage `json:"honeypot,omitempty"`
}

// MalformedRequestError reports a body that could not be decoded or
// lacks a required field.
type MalformedRequestError struct {
	Reason string
	Err    error
}

func (e *MalformedRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed request: %s: %v", e.Reason, e.Err)
	}
	return "malformed request: " + e.Reason
}

func (e *MalformedRequestError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is, or wraps, a MalformedRequestError.
func IsMalformed(err error) bool {
	var m *MalformedRequestError
	return errors.As(err, &m)
}

// Parse decodes a JSON request body. It only checks syntax; call
// Validate once the honeypot and origin guards have passed.
func Parse(body string) (*Submission, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, &MalformedRequestError{Reason: "empty body"}
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, &MalformedRequestError{Reason: "body is not a JSON object"}
	}

	var sub Submission
	if err := json.Unmarshal([]byte(trimmed), &sub); err != nil {
		return nil, &MalformedRequestError{Reason: "invalid JSON", Err: err}
	}
	return &sub, nil
}

// Validate checks that the addresses needed for delivery are present.
func (s *Submission) Validate() error {
	var missing []string
	if strings.TrimSpace(s.SendTo) == "" {
		missing = append(missing, "send_to")
	}
	if strings.TrimSpace(s.ReplyTo) == "" {
		missing = append(missing, "reply_to")
	}
	if strings.TrimSpace(s.SESAddress) == "" {
		missing = append(missing, "ses_address")
	}
	if len(missing) > 0 {
		return &MalformedRequestError{Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

// IsSpam reports whether the honeypot field carries a value. JSON null,
// false, 0 and the empty string count as unset.
func (s *Submission) IsSpam() bool {
	v := bytes.TrimSpace(s.Honeypot)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`, "0":
		return false
	}
	return true
}

// BuildEmail maps a submission onto an outbound message.
func BuildEmail(s *Submission) *email.Email {
	return &email.Email{
		From:     s.SESAddress,
		ReplyTo:  []string{s.ReplyTo},
		To:       []string{s.SendTo},
		Subject:  s.Subject,
		TextBody: Body(s),
	}
}

// Body renders the plain-text body: the message, a blank line, then the
// submitter's name and address.
func Body(s *Submission) string {
	return fmt.Sprintf("%s\n\nName: %s\nEmail: %s", s.Message, s.Name, s.ReplyTo)
}
