package sender

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/dispatch/internal/domain"
)

// SESSender delivers mail through AWS SES using the SDK v2.
type SESSender struct {
	client *sesv2.Client
}

// NewSESSender creates an SES sender from a resolved config. Static
// credentials from the config take precedence; with none set, the default
// AWS credential chain applies (instance profile, env vars).
func NewSESSender(cfg *domain.ResolvedConfig) (*SESSender, error) {
	region := cfg.AWSRegion
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Send delivers a single email through SES.
func (s *SESSender) Send(ctx context.Context, e *Email) error {
	from := e.FromAddress
	if e.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.FromName, e.FromAddress)
	}

	body := &types.Body{}
	if e.HTML != "" {
		body.Html = &types.Content{Data: aws.String(e.HTML), Charset: aws.String("UTF-8")}
	}
	if e.Text != "" {
		body.Text = &types.Content{Data: aws.String(e.Text), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{e.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if e.GroupID != "" {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name: aws.String("group_id"), Value: aws.String(e.GroupID),
		})
	}
	if e.RecipientID != "" {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name: aws.String("recipient_id"), Value: aws.String(e.RecipientID),
		})
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
