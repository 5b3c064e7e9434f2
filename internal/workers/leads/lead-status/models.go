package leadstatus

import (
	"context"

	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/leads"
)

type Input struct {
	ProviderCode string `json:"providerCode,omitempty"`
	ReferenceID  string `json:"referenceId"`
}

type Output struct {
	LeadStatus       map[string]interface{} `json:"leadStatus"`
	LeadStatusText   string                 `json:"leadStatusText,omitempty"`
	LeadProviderCode string                 `json:"leadProviderCode"`
	LeadJournaled    bool                   `json:"leadJournaled"`
}

// Journal stores the last known status of a submission.
type Journal interface {
	UpdateStatus(ctx context.Context, providerCode, referenceID, status string) error
}

type ServiceDependencies struct {
	Session       *leads.Session
	Journal       Journal
	Observability *observability.Observability
	Logger        logger.Logger
}
