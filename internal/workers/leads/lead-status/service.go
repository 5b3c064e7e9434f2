package leadstatus

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/journal"
	"lead-workers/internal/leads"
)

// statusKeys are the response fields read as the lead's status, in order.
var statusKeys = []string{"status", "lead_status", "request_status"}

type Service struct {
	config  *Config
	session *leads.Session
	journal Journal
	obs     *observability.Observability
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:  config,
		session: deps.Session,
		journal: deps.Journal,
		obs:     deps.Observability,
		logger:  log,
	}
}

// Execute fetches the status document of an earlier submission and records the status in
// the journal.
func (s *Service) Execute(ctx context.Context, input *Input) (output *Output, err error) {
	providerCode := input.ProviderCode
	if providerCode == "" {
		providerCode = s.config.ProviderCode
	}
	if providerCode == "" {
		providerCode = s.session.ProviderCode()
	}

	ctx, span := s.obs.StartSpan(ctx, "lead.status",
		attribute.String("provider_code", providerCode),
		attribute.String("reference_id", input.ReferenceID),
	)
	defer func() { observability.EndSpan(span, err) }()

	var opts []leads.CallOption
	if providerCode != "" {
		opts = append(opts, leads.WithProviderCode(providerCode))
	}

	result, err := s.session.GetLeadStatus(ctx, input.ReferenceID, leads.FormatMapping, opts...)
	if err != nil {
		return nil, wls.AsTransportFailure(wls.OpGetLead, err)
	}

	output = &Output{
		LeadStatus:       map[string]interface{}(result.Mapping),
		LeadStatusText:   statusText(result.Mapping),
		LeadProviderCode: providerCode,
	}

	if s.journal != nil && output.LeadStatusText != "" {
		err := s.journal.UpdateStatus(ctx, providerCode, input.ReferenceID, output.LeadStatusText)
		switch {
		case stderrors.Is(err, journal.ErrNotFound):
			s.logger.Debug("status for unjournaled lead", map[string]interface{}{
				"providerCode": providerCode,
				"referenceId":  input.ReferenceID,
			})
		case err != nil:
			return nil, errors.NewJournalWriteFailedError(fmt.Errorf("reference %s: %w", input.ReferenceID, err))
		default:
			output.LeadJournaled = true
		}
	}

	s.logger.Info("lead status fetched", map[string]interface{}{
		"providerCode": providerCode,
		"referenceId":  input.ReferenceID,
		"status":       output.LeadStatusText,
	})
	return output, nil
}

func statusText(m leads.Mapping) string {
	for _, key := range statusKeys {
		if v := m.String(key); v != "" {
			return v
		}
	}
	return ""
}
