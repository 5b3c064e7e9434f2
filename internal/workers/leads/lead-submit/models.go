package leadsubmit

import (
	"context"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/journal"
	"lead-workers/internal/leads"
)

type Input struct {
	ProviderCode string                 `json:"providerCode,omitempty"`
	Record       leads.Record           `json:"record"`
	GroupAliases map[string]interface{} `json:"groupAliases,omitempty"`
}

type Output struct {
	LeadAccepted      bool                   `json:"leadAccepted"`
	LeadReferenceID   string                 `json:"leadReferenceId,omitempty"`
	LeadDroppedFields []journal.DroppedField `json:"leadDroppedFields"`
	LeadSubmissionID  string                 `json:"leadSubmissionId"`
	LeadResponse      map[string]interface{} `json:"leadResponse,omitempty"`
	LeadProviderCode  string                 `json:"leadProviderCode"`
}

// Journal stores submissions.
type Journal interface {
	Record(ctx context.Context, s *journal.Submission) error
}

// EventPublisher announces submissions to other systems.
type EventPublisher interface {
	PublishLeadSubmitted(ctx context.Context, event aws.LeadSubmittedEvent) (string, error)
}

type ServiceDependencies struct {
	Session       *leads.Session
	Journal       Journal
	Events        EventPublisher
	Observability *observability.Observability
	Logger        logger.Logger
}
