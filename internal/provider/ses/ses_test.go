package ses

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/shineum/contact-form-relay/internal/email"
	"github.com/shineum/contact-form-relay/internal/provider"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func testMessage() *email.Email {
	return &email.Email{
		From:     "noreply@x.com",
		ReplyTo:  []string{"b@y.com"},
		To:       []string{"a@x.com"},
		Subject:  "Hi",
		TextBody: "Hello\n\nName: Bob\nEmail: b@y.com",
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient("sender@example.com", &mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("default@example.com", mock)

	receipt, err := p.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receipt.MessageID != "test-message-id" {
		t.Errorf("MessageID: got %q, want %q", receipt.MessageID, "test-message-id")
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}

	input := mock.lastInput
	if got := *input.FromEmailAddress; got != "noreply@x.com" {
		t.Errorf("FromEmailAddress: got %q, want %q", got, "noreply@x.com")
	}
	if len(input.ReplyToAddresses) != 1 || input.ReplyToAddresses[0] != "b@y.com" {
		t.Errorf("ReplyToAddresses: got %v, want [b@y.com]", input.ReplyToAddresses)
	}
	if len(input.Destination.ToAddresses) != 1 || input.Destination.ToAddresses[0] != "a@x.com" {
		t.Errorf("ToAddresses: got %v, want [a@x.com]", input.Destination.ToAddresses)
	}
	if input.Content.Simple == nil {
		t.Fatal("expected simple email content, got nil")
	}
	if got := *input.Content.Simple.Subject.Data; got != "Hi" {
		t.Errorf("Subject: got %q, want %q", got, "Hi")
	}
	if got := *input.Content.Simple.Body.Text.Data; got != "Hello\n\nName: Bob\nEmail: b@y.com" {
		t.Errorf("TextBody: got %q", got)
	}
	if got := *input.Content.Simple.Body.Text.Charset; got != "UTF-8" {
		t.Errorf("Text charset: got %q, want %q", got, "UTF-8")
	}
	if input.Content.Simple.Body.Html != nil {
		t.Error("expected no HTML body")
	}
}

func TestSend_FallbackSender(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("default@example.com", mock)

	msg := testMessage()
	msg.From = ""

	if _, err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := *mock.lastInput.FromEmailAddress; got != "default@example.com" {
		t.Errorf("FromEmailAddress: got %q, want %q", got, "default@example.com")
	}
}

func TestSend_SingleAttemptOnError(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, errors.New("transient error")
		},
	}
	p := NewWithClient("sender@example.com", mock)

	_, err := p.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1 (no retries)", mock.callCount)
	}

	var dErr *provider.DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %T", err)
	}
	if dErr.Message != "transient error" {
		t.Errorf("Message: got %q, want %q", dErr.Message, "transient error")
	}
	if dErr.StatusCode != 0 {
		t.Errorf("StatusCode: got %d, want 0", dErr.StatusCode)
	}
}

func TestSend_APIErrorTranslated(t *testing.T) {
	t.Parallel()

	apiErr := &smithy.GenericAPIError{
		Code:    "MessageRejected",
		Message: "Email address is not verified.",
	}
	respErr := &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusBadRequest}},
		Err:      apiErr,
	}
	mock := &mockSESClient{
		sendFn: func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, &smithy.OperationError{ServiceID: "SESv2", OperationName: "SendEmail", Err: respErr}
		},
	}
	p := NewWithClient("sender@example.com", mock)

	_, err := p.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if got := provider.Message(err); got != "Email address is not verified." {
		t.Errorf("Message: got %q, want %q", got, "Email address is not verified.")
	}
	if got := provider.StatusCode(err); got != http.StatusBadRequest {
		t.Errorf("StatusCode: got %d, want %d", got, http.StatusBadRequest)
	}
	if !errors.Is(err, apiErr) {
		t.Error("expected the API error to remain in the chain")
	}
}

func TestTranslateError_CodeWithoutMessage(t *testing.T) {
	t.Parallel()

	err := translateError(&smithy.GenericAPIError{Code: "AccountSendingPausedException"})
	if got := provider.Message(err); got != "AccountSendingPausedException" {
		t.Errorf("Message: got %q, want %q", got, "AccountSendingPausedException")
	}
}

func TestSend_ContextPassedThrough(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, ctx.Err()
		},
	}
	p := NewWithClient("sender@example.com", mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Send(ctx, testMessage())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

// Verify SESProvider implements provider.Provider interface
func TestProviderInterface(t *testing.T) {
	t.Parallel()

	var _ provider.Provider = (*SESProvider)(nil)
}
