package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"familyconnect/internal/models"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmergencyEmail is what a watcher is told when a family member raises an emergency
type EmergencyEmail struct {
	MemberName   string
	Relationship string
	Status       *models.StatusUpdate
	Location     *models.Location
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	logger     *zap.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, logger *zap.Logger) (*EmailService, error) {
	logger = logger.Named("email")

	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		logger:     logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendEmergencyEmail tells one watcher that a family member needs help
func (s *EmailService) SendEmergencyEmail(ctx context.Context, toEmail, toName string, alert EmergencyEmail) error {
	if !s.enabled {
		s.logger.Debug("skipping email send (service disabled)", zap.String("to", toEmail))
		return nil
	}

	subject := fmt.Sprintf("EMERGENCY: %s needs help", alert.MemberName)

	where := "No location has been shared yet."
	if alert.Location != nil {
		where = fmt.Sprintf("Last known location: %s, %s", alert.Location.Latitude, alert.Location.Longitude)
		if alert.Location.Address != nil {
			where += " (" + *alert.Location.Address + ")"
		}
	}

	battery := "unknown"
	if alert.Status.BatteryLevel != nil {
		battery = fmt.Sprintf("%d%%", *alert.Status.BatteryLevel)
	}

	sentAt := alert.Status.Timestamp.UTC().Format("2006-01-02 15:04 MST")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #d9363e; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #d9363e; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Emergency Alert</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p><strong>%s</strong> (your %s) pressed the emergency button at %s.</p>
			<p>%s</p>
			<p>Battery: %s</p>
			<p style="text-align: center;">
				<a href="%s/" class="button">Open FamilyConnect</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from FamilyConnect. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`,
		html.EscapeString(toName),
		html.EscapeString(alert.MemberName),
		html.EscapeString(alert.Relationship),
		sentAt,
		html.EscapeString(where),
		battery,
		s.appBaseURL,
	)

	textBody := fmt.Sprintf(`Hi %s,

%s (your %s) pressed the emergency button at %s.

%s
Battery: %s

Open FamilyConnect: %s/

---
This is an automated email from FamilyConnect. Please do not reply.
`, toName, alert.MemberName, alert.Relationship, sentAt, where, battery, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	fields := []zap.Field{zap.String("to", toEmail), zap.String("subject", subject)}
	if result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	s.logger.Info("email sent", fields...)
	return nil
}
