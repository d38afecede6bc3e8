package campfire

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESNotifier mails the run summary when a long export finishes. A
// multi-day run should not require watching the console.
type SESNotifier struct {
	sesClient *ses.Client
	from      string
	to        []string
	subject   string

	logger *slog.Logger
}

func NewSESNotifier(ctx context.Context, conf *Config) (*SESNotifier, error) {
	if conf.SESFrom == "" || len(conf.SESTo) == 0 {
		return nil, fmt.Errorf("ses from and to addresses are required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	subject := conf.SESSubject
	if subject == "" {
		subject = fmt.Sprintf("Campfire export: %s", conf.Subdomain)
	}
	return &SESNotifier{
		sesClient: ses.NewFromConfig(cfg),
		from:      conf.SESFrom,
		to:        conf.SESTo,
		subject:   subject,
		logger:    conf.Logger,
	}, nil
}

func (n *SESNotifier) Notify(ctx context.Context, summary *Summary) error {
	input := &ses.SendEmailInput{
		Source:      aws.String(n.from),
		Destination: &sestypes.Destination{ToAddresses: n.to},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(n.subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(summary.Text())},
			},
		},
	}
	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		return err
	}
	n.logger.Info("run summary sent", "to", n.to)
	return nil
}
