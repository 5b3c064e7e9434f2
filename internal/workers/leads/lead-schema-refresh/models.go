package leadschemarefresh

import (
	"time"

	"lead-workers/internal/common/logger"
	"lead-workers/internal/leads"
)

type Input struct {
	ProviderCode string `json:"providerCode,omitempty"`
}

type Output struct {
	LeadProviderCode   string    `json:"leadProviderCode"`
	LeadFieldCount     int       `json:"leadFieldCount"`
	CustomerFieldCount int       `json:"customerFieldCount"`
	LeadFields         []string  `json:"leadFields"`
	CustomerFields     []string  `json:"customerFields"`
	SchemaLoadedAt     time.Time `json:"schemaLoadedAt"`
}

type ServiceDependencies struct {
	Session *leads.Session
	Logger  logger.Logger
}
