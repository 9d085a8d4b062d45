// Package email defines the outbound message model handed to delivery providers.
package email

// Email represents an outbound message built from a form submission.
type Email struct {
	From     string
	ReplyTo  []string
	To       []string
	Subject  string
	TextBody string
}
