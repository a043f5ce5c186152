package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// ErrDelivery wraps every failure to hand a message to the mail provider.
var ErrDelivery = errors.New("email delivery failed")

type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailSender delivers outbound mail.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESEmailSender sends through Amazon SES v2.
type SESEmailSender struct {
	client    sesAPI
	fromEmail string
	fromName  string
}

func NewSESEmailSender(ctx context.Context, region, fromEmail, fromName string) (*SESEmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.GetLogger().Info("Email sender enabled",
		zap.String("provider", "ses"),
		zap.String("region", region),
		zap.String("from", fromEmail),
	)

	return &SESEmailSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

func (s *SESEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTMLBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(msg.TextBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	logger.DebugWithContext(ctx, "Email sent").
		String("message_id", aws.ToString(result.MessageId)).
		Log()

	return nil
}

// LogEmailSender stands in when no sender address is configured. It records
// the send without the body, which may hold a live reset token.
type LogEmailSender struct{}

func NewLogEmailSender() *LogEmailSender {
	logger.GetLogger().Warn("Email sender disabled: SES_FROM_EMAIL not configured")
	return &LogEmailSender{}
}

func (s *LogEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	logger.InfoWithContext(ctx, "Skipping email send (sender disabled)").
		String("subject", msg.Subject).
		Log()
	return nil
}

// NewEmailSender picks SES when a sender address is configured.
func NewEmailSender(ctx context.Context, region, fromEmail, fromName string) (EmailSender, error) {
	if fromEmail == "" {
		return NewLogEmailSender(), nil
	}
	return NewSESEmailSender(ctx, region, fromEmail, fromName)
}
