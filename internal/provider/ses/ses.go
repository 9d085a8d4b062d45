// Package ses implements a Provider that sends emails via AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/shineum/contact-form-relay/internal/email"
	"github.com/shineum/contact-form-relay/internal/provider"
)

const charset = "UTF-8"

// SESProviderConfig holds the configuration for creating a SESProvider.
type SESProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Sender is used as the From address only when a message has none.
	Sender string
}

// SESProvider sends emails via the AWS SES v2 API.
type SESProvider struct {
	sender string
	client SendEmailAPI
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new SESProvider with the given configuration. The SDK
// retryer is disabled so that every Send is a single attempt.
func New(ctx context.Context, cfg SESProviderConfig) (*SESProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESProvider{
		sender: cfg.Sender,
		client: sesv2.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClient creates a SESProvider with a custom client, used for testing.
func NewWithClient(sender string, client SendEmailAPI) *SESProvider {
	return &SESProvider{
		sender: sender,
		client: client,
	}
}

// Send delivers an email message via AWS SES v2. Failures are returned
// as *provider.DeliveryError carrying the SES message and HTTP status.
func (s *SESProvider) Send(ctx context.Context, msg *email.Email) (*provider.Receipt, error) {
	input := buildInput(s.sender, msg)

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		slog.Debug("SES API error", "error", err)
		return nil, translateError(err)
	}

	return &provider.Receipt{MessageID: aws.ToString(out.MessageId)}, nil
}

// Name returns the provider name.
func (s *SESProvider) Name() string {
	return "ses"
}

// buildInput creates a SES SendEmailInput using simple content.
func buildInput(sender string, msg *email.Email) *sesv2.SendEmailInput {
	from := msg.From
	if from == "" {
		from = sender
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		ReplyToAddresses: msg.ReplyTo,
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String(charset),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(msg.TextBody),
						Charset: aws.String(charset),
					},
				},
			},
		},
	}
}

// httpStatusError is satisfied by the SDK's transport response errors.
type httpStatusError interface {
	HTTPStatusCode() int
}

// translateError converts an SDK error into a provider.DeliveryError.
func translateError(err error) error {
	dErr := &provider.DeliveryError{Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		dErr.Message = apiErr.ErrorMessage()
		if dErr.Message == "" {
			dErr.Message = apiErr.ErrorCode()
		}
	}

	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		dErr.StatusCode = statusErr.HTTPStatusCode()
	}

	if dErr.Message == "" {
		dErr.Message = err.Error()
	}
	return dErr
}
