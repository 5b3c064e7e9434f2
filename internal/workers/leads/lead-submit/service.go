package leadsubmit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/journal"
	"lead-workers/internal/leads"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Service struct {
	config  *Config
	session *leads.Session
	journal Journal
	events  EventPublisher
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
		events:  deps.Events,
		obs:     deps.Observability,
		logger:  log,
	}
}

// Execute routes and submits the record, journals the attempt and publishes an event.
// A response that does not accept the lead yields LEAD_REJECTED after journaling.
func (s *Service) Execute(ctx context.Context, input *Input) (output *Output, err error) {
	session := s.session
	if len(input.GroupAliases) > 0 {
		session, err = session.WithGroupAliases(input.GroupAliases)
		if err != nil {
			return nil, errors.NewValidationFailedError(fmt.Sprintf("groupAliases: %v", err))
		}
	}

	providerCode := input.ProviderCode
	if providerCode == "" {
		providerCode = s.config.ProviderCode
	}
	var opts []leads.CallOption
	if providerCode != "" {
		opts = append(opts, leads.WithProviderCode(providerCode))
	}

	ctx, span := s.obs.StartSpan(ctx, "lead.submit", attribute.String("provider_code", providerCode))
	defer func() { observability.EndSpan(span, err) }()

	result, err := session.SetLead(ctx, input.Record, leads.FormatXML, opts...)
	if err != nil {
		metrics.LeadSubmissions.WithLabelValues(OutcomeFailed).Inc()
		return nil, wls.AsTransportFailure(wls.OpSetLead, err)
	}

	accepted := result.Verdict.Accepted()
	referenceID, _ := leads.AsIdentifier(result.Raw)

	output = &Output{
		LeadAccepted:      accepted,
		LeadReferenceID:   referenceID,
		LeadDroppedFields: droppedFields(result.Resolutions),
		LeadSubmissionID:  uuid.New().String(),
		LeadProviderCode:  result.ProviderCode,
	}
	if mapping, decodeErr := leads.Decode(result.Raw); decodeErr == nil {
		output.LeadResponse = map[string]interface{}(mapping)
	} else {
		s.logger.Warn("lead response is not a readable document", map[string]interface{}{
			"providerCode": result.ProviderCode,
			"error":        decodeErr,
		})
	}

	s.record(ctx, output, result)
	s.publish(ctx, output)

	outcome := OutcomeAccepted
	if !accepted {
		outcome = OutcomeRejected
	}
	metrics.LeadSubmissions.WithLabelValues(outcome).Inc()
	s.obs.RecordSubmission(ctx, result.ProviderCode, accepted)

	s.logger.Info("lead submitted", map[string]interface{}{
		"providerCode":  result.ProviderCode,
		"submissionId":  output.LeadSubmissionID,
		"referenceId":   referenceID,
		"accepted":      accepted,
		"droppedFields": len(output.LeadDroppedFields),
	})

	if !accepted {
		rejected := errors.NewLeadRejectedError(fmt.Sprintf("request_status: %q", result.Verdict.Status))
		rejected.Metadata = map[string]interface{}{
			"submissionId": output.LeadSubmissionID,
			"providerCode": result.ProviderCode,
		}
		return output, rejected
	}
	return output, nil
}

// record writes the journal entry. The lead has already reached the service, so a failed
// write is logged and the job goes on.
func (s *Service) record(ctx context.Context, output *Output, result *leads.SubmitResult) {
	if s.journal == nil {
		return
	}

	err := s.journal.Record(ctx, &journal.Submission{
		ID:            output.LeadSubmissionID,
		ProviderCode:  result.ProviderCode,
		ReferenceID:   output.LeadReferenceID,
		Accepted:      output.LeadAccepted,
		Request:       result.Request,
		Response:      result.Raw,
		DroppedFields: output.LeadDroppedFields,
	})
	if err != nil {
		s.logger.Error("failed to journal lead submission", map[string]interface{}{
			"submissionId": output.LeadSubmissionID,
			"error":        errors.NewJournalWriteFailedError(err),
		})
	}
}

func (s *Service) publish(ctx context.Context, output *Output) {
	if s.events == nil {
		return
	}

	messageID, err := s.events.PublishLeadSubmitted(ctx, aws.LeadSubmittedEvent{
		SubmissionID:  output.LeadSubmissionID,
		ProviderCode:  output.LeadProviderCode,
		ReferenceID:   output.LeadReferenceID,
		Accepted:      output.LeadAccepted,
		DroppedFields: len(output.LeadDroppedFields),
		SubmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to publish lead event", map[string]interface{}{
			"submissionId": output.LeadSubmissionID,
			"error":        err,
		})
		return
	}
	s.logger.Debug("lead event published", map[string]interface{}{
		"submissionId": output.LeadSubmissionID,
		"messageId":    messageID,
	})
}

func droppedFields(resolutions []leads.Resolution) []journal.DroppedField {
	dropped := leads.Dropped(resolutions)
	out := make([]journal.DroppedField, 0, len(dropped))
	for _, r := range dropped {
		key := r.Key
		if r.Tagged && r.Field != r.Key {
			key = r.Key + "." + r.Field
		}
		out = append(out, journal.DroppedField{
			Key:    key,
			Group:  string(r.Group),
			Reason: string(r.Reason),
		})
	}
	return out
}
