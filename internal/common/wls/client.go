// Package wls is a SOAP client for the Websolve automotive leads service.
package wls

import (
	"context"
	"fmt"
	"time"

	httpclient "lead-workers/internal/common/http"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
)

const (
	LiveEndpoint = "https://websolve.nl/webservices/automotiveLeads.php"
	DevEndpoint  = "http://websolve-dev.nl/webservices/automotiveLeads.php"

	EnvironmentLive = "live"

	DefaultNamespace = "urn:automotiveLeads"
	DefaultTimeout   = 30 * time.Second
)

// Remote operations.
const (
	OpGetLeadHeaders = "getLeadHeaders"
	OpGetLead        = "getLead"
	OpSetLead        = "setLead"
)

// EndpointFor returns the service URL for an environment. Anything other than "live"
// selects the development service.
func EndpointFor(environment string) string {
	if environment == EnvironmentLive {
		return LiveEndpoint
	}
	return DevEndpoint
}

type Config struct {
	Environment string
	// EndpointURL overrides the environment endpoint.
	EndpointURL string
	Namespace   string
	Login       string
	Password    string
	UserAgent   string
	Timeout     time.Duration
}

type Client struct {
	http      *httpclient.Client
	endpoint  string
	namespace string
	logger    logger.Logger
}

func NewClient(cfg Config, log logger.Logger, opts ...httpclient.Option) *Client {
	endpoint := cfg.EndpointURL
	if endpoint == "" {
		endpoint = EndpointFor(cfg.Environment)
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	httpOpts := []httpclient.Option{httpclient.WithUserAgent(cfg.UserAgent)}
	if cfg.Login != "" {
		httpOpts = append(httpOpts, httpclient.WithBasicAuth(cfg.Login, cfg.Password))
	}
	httpOpts = append(httpOpts, opts...)

	return &Client{
		http:      httpclient.NewClient(timeout, httpOpts...),
		endpoint:  endpoint,
		namespace: namespace,
		logger:    log,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchSchema calls getLeadHeaders.
func (c *Client) FetchSchema(ctx context.Context, providerCode string) (string, error) {
	return c.Call(ctx, OpGetLeadHeaders, providerCode)
}

// Submit calls setLead with an encoded lead document.
func (c *Client) Submit(ctx context.Context, providerCode, document string) (string, error) {
	return c.Call(ctx, OpSetLead, providerCode, document)
}

// FetchLeadStatus calls getLead for an earlier submission.
func (c *Client) FetchLeadStatus(ctx context.Context, providerCode, referenceID string) (string, error) {
	return c.Call(ctx, OpGetLead, providerCode, referenceID)
}

// Call performs one SOAP round trip and returns the operation's string result. Faults are
// returned as *FaultError and HTTP error statuses as *RemoteError.
func (c *Client) Call(ctx context.Context, operation string, params ...string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.WLSRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	payload, err := buildEnvelope(c.namespace, operation, params...)
	if err != nil {
		return "", err
	}

	headers := map[string]string{
		"SOAPAction": fmt.Sprintf("%q", c.namespace+"#"+operation),
	}
	resp, err := c.http.Post(ctx, c.endpoint, "text/xml; charset=utf-8", headers, payload)
	if err != nil {
		c.logger.Warn("lead service call failed", map[string]interface{}{
			"operation": operation,
			"error":     err,
		})
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	result, fault, parseErr := parseEnvelope(resp.Body)
	if fault != nil {
		fault.Operation = operation
		fault.StatusCode = resp.StatusCode
		return "", fault
	}
	if resp.StatusCode >= 400 {
		return "", &RemoteError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(resp.Body), 512),
		}
	}
	if parseErr != nil {
		return "", fmt.Errorf("%s: %w", operation, parseErr)
	}

	c.logger.Debug("lead service call completed", map[string]interface{}{
		"operation":  operation,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
