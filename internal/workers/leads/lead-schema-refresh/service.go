package leadschemarefresh

import (
	"context"

	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/leads"
)

type Service struct {
	config  *Config
	session *leads.Session
	logger  logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{config: config, session: deps.Session, logger: log}
}

// Execute fetches the schema again, replacing the cached copy on success. A failed fetch
// keeps the previous schema.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	opts := []leads.CallOption{leads.WithRefresh()}
	providerCode := input.ProviderCode
	if providerCode == "" {
		providerCode = s.config.ProviderCode
	}
	if providerCode != "" {
		opts = append(opts, leads.WithProviderCode(providerCode))
	}

	loaded, err := s.session.Schema(ctx, opts...)
	if err != nil {
		return nil, wls.AsTransportFailure(wls.OpGetLeadHeaders, err)
	}

	output := &Output{
		LeadProviderCode: loaded.ProviderCode,
		LeadFields:       fieldNames(loaded.Schema, leads.GroupLead),
		CustomerFields:   fieldNames(loaded.Schema, leads.GroupCustomer),
		SchemaLoadedAt:   loaded.LoadedAt,
	}
	output.LeadFieldCount = len(output.LeadFields)
	output.CustomerFieldCount = len(output.CustomerFields)

	s.logger.Info("lead schema refreshed", map[string]interface{}{
		"providerCode":   loaded.ProviderCode,
		"leadFields":     output.LeadFieldCount,
		"customerFields": output.CustomerFieldCount,
	})
	return output, nil
}

func fieldNames(schema *leads.Schema, g leads.Group) []string {
	specs := schema.Fields(g)
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}
