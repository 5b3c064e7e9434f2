// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventLeadSubmitted = "lead.submitted"

// SNSAPI is the subset of the SNS client used for publishing.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client   SNSAPI
	topicARN string
}

func NewSNSClient(ctx context.Context, region, topicARN string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg), topicARN), nil
}

func NewSNSClientWithAPI(api SNSAPI, topicARN string) *SNSClient {
	return &SNSClient{client: api, topicARN: topicARN}
}

// LeadSubmittedEvent is published after every submission that reached the lead service.
type LeadSubmittedEvent struct {
	SubmissionID  string    `json:"submissionId"`
	ProviderCode  string    `json:"providerCode"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	Accepted      bool      `json:"accepted"`
	DroppedFields int       `json:"droppedFields"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// PublishLeadSubmitted sends the event to the configured topic and returns the SNS
// message id.
func (s *SNSClient) PublishLeadSubmitted(ctx context.Context, event LeadSubmittedEvent) (string, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", EventLeadSubmitted, err)
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventLeadSubmitted),
			},
			"providerCode": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.ProviderCode),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("publish %s event: %w", EventLeadSubmitted, err)
	}
	return aws.ToString(out.MessageId), nil
}
