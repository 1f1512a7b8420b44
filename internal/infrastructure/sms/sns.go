package sms

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/oli-store-api/internal/config"
)

// SNSSender sends SMS messages via AWS SNS. Alternative to HTTPSender,
// selected with SMS_PROVIDER=sns.
type SNSSender struct {
	client   *sns.Client
	senderID string
}

func NewSNSSender(cfg *config.Config) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg), senderID: cfg.SMSSenderID}, nil
}

func (s *SNSSender) SendOTP(ctx context.Context, mobile, code string) bool {
	msg := renderMessage(code, s.senderID)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(mobile),
		Message:     aws.String(msg),
	})
	if err != nil {
		slog.Warn("sms: sns publish failed", "err", err)
		return false
	}
	return true
}
