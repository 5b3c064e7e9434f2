package leads

import (
	"context"
	"time"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
)

// Remote is the lead service as seen by a Session. Errors are returned to callers as is.
type Remote interface {
	FetchSchema(ctx context.Context, providerCode string) (string, error)
	Submit(ctx context.Context, providerCode, document string) (string, error)
	FetchLeadStatus(ctx context.Context, providerCode, referenceID string) (string, error)
}

// Session binds a Remote to a default provider code, group aliases and a schema index.
// A Session is safe for concurrent use; its settings never change after construction.
type Session struct {
	remote       Remote
	index        *SchemaIndex
	providerCode string
	aliases      GroupAliases
	location     *time.Location
	logger       logger.Logger
}

type SessionOption func(*Session)

func WithDefaultProviderCode(code string) SessionOption {
	return func(s *Session) {
		s.providerCode = code
	}
}

func WithAliases(aliases GroupAliases) SessionOption {
	return func(s *Session) {
		s.aliases = aliases.Clone()
	}
}

// WithSchemaIndex shares an index between sessions.
func WithSchemaIndex(index *SchemaIndex) SessionOption {
	return func(s *Session) {
		s.index = index
	}
}

// WithTimezone sets the zone DATE and DATETIME fields are sent in.
func WithTimezone(loc *time.Location) SessionOption {
	return func(s *Session) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

func NewSession(remote Remote, opts ...SessionOption) *Session {
	s := &Session{
		remote:  remote,
		aliases:  DefaultGroupAliases(),
		location: DefaultLocation,
		logger:   logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = NewSchemaIndex(WithIndexLogger(s.logger))
	}
	return s
}

func (s *Session) ProviderCode() string {
	return s.providerCode
}

func (s *Session) Location() *time.Location {
	return s.location
}

func (s *Session) Aliases() GroupAliases {
	return s.aliases.Clone()
}

func (s *Session) Index() *SchemaIndex {
	return s.index
}

// ForProvider returns a copy of s with a different default provider code. The schema
// index is shared.
func (s *Session) ForProvider(code string) *Session {
	c := *s
	c.providerCode = code
	return &c
}

// WithGroupAliases returns a copy of s with overrides merged into its aliases.
func (s *Session) WithGroupAliases(overrides map[string]interface{}) (*Session, error) {
	merged, err := MergeGroupAliases(s.aliases, overrides)
	if err != nil {
		return nil, err
	}
	c := *s
	c.aliases = merged
	return &c, nil
}

type callOptions struct {
	providerCode string
	refresh      bool
}

// CallOption adjusts a single Session call.
type CallOption func(*callOptions)

// WithProviderCode overrides the session's provider code for one call.
func WithProviderCode(code string) CallOption {
	return func(o *callOptions) {
		o.providerCode = code
	}
}

// WithRefresh bypasses the cached schema and fetches it again.
func WithRefresh() CallOption {
	return func(o *callOptions) {
		o.refresh = true
	}
}

func (s *Session) resolve(opts []CallOption) (callOptions, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	if co.providerCode == "" {
		co.providerCode = s.providerCode
	}
	if co.providerCode == "" {
		return co, errors.NewMissingProviderCodeError()
	}
	return co, nil
}

// Result is a service response in the requested output format.
type Result struct {
	Format        OutputFormat
	Raw           string
	Mapping       Mapping
	Accepted      bool
	Identifier    string
	HasIdentifier bool
}

// Value returns the response in the shape selected by Format.
func (r *Result) Value() interface{} {
	switch r.Format {
	case FormatMapping:
		return r.Mapping
	case FormatBoolean:
		return r.Accepted
	case FormatIdentifier:
		if !r.HasIdentifier {
			return nil
		}
		return r.Identifier
	default:
		return r.Raw
	}
}

func render(format OutputFormat, raw string) (*Result, error) {
	r := &Result{Format: format, Raw: raw}
	switch format {
	case FormatMapping:
		m, err := Decode(raw)
		if err != nil {
			return nil, err
		}
		r.Mapping = m
	case FormatBoolean:
		r.Accepted = AsBoolean(raw)
	case FormatIdentifier:
		r.Identifier, r.HasIdentifier = AsIdentifier(raw)
	}
	return r, nil
}

// Schema loads the schema for the resolved provider code.
func (s *Session) Schema(ctx context.Context, opts ...CallOption) (*LoadedSchema, error) {
	co, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	return s.index.Load(ctx, co.providerCode, s.remote.FetchSchema, co.refresh)
}

// GetLeadHeaders returns the schema document. Supports xml and array formats.
func (s *Session) GetLeadHeaders(ctx context.Context, format OutputFormat, opts ...CallOption) (*Result, error) {
	if err := checkFormat(format, opGetLeadHeaders); err != nil {
		return nil, err
	}
	loaded, err := s.Schema(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return render(format, loaded.Raw)
}

// GetLeadStatus returns the service's document for an earlier submission. Supports xml and
// array formats.
func (s *Session) GetLeadStatus(ctx context.Context, referenceID string, format OutputFormat, opts ...CallOption) (*Result, error) {
	if err := checkFormat(format, opGetLeadStatus); err != nil {
		return nil, err
	}
	co, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	raw, err := s.remote.FetchLeadStatus(ctx, co.providerCode, referenceID)
	if err != nil {
		return nil, err
	}
	return render(format, raw)
}

// Prepared is a routed and encoded request that has not been sent.
type Prepared struct {
	ProviderCode string
	Request      string
	Fields       *FieldSet
	Resolutions  []Resolution
}

// Prepare loads the schema, routes record and encodes the request document.
func (s *Session) Prepare(ctx context.Context, record Record, opts ...CallOption) (*Prepared, error) {
	co, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	loaded, err := s.index.Load(ctx, co.providerCode, s.remote.FetchSchema, co.refresh)
	if err != nil {
		return nil, err
	}

	fields, resolutions, err := Route(record, loaded.Schema, s.aliases, RouteIn(s.location))
	if err != nil {
		return nil, err
	}
	s.reportDropped(co.providerCode, resolutions)

	request, err := Encode(fields)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		ProviderCode: co.providerCode,
		Request:      request,
		Fields:       fields,
		Resolutions:  resolutions,
	}, nil
}

// SubmitResult is the outcome of SetLead.
type SubmitResult struct {
	Result
	ProviderCode string
	Request      string
	Resolutions  []Resolution
	Verdict      Verdict
}

// SetLead routes, encodes and submits record. All four output formats are supported. A
// response that cannot be read fails the call only for the array format.
func (s *Session) SetLead(ctx context.Context, record Record, format OutputFormat, opts ...CallOption) (*SubmitResult, error) {
	if err := checkFormat(format, opSetLead); err != nil {
		return nil, err
	}

	prepared, err := s.Prepare(ctx, record, opts...)
	if err != nil {
		return nil, err
	}

	raw, err := s.remote.Submit(ctx, prepared.ProviderCode, prepared.Request)
	if err != nil {
		return nil, err
	}

	result, err := render(format, raw)
	if err != nil {
		return nil, err
	}

	verdict, err := Interpret(raw)
	if err != nil {
		s.logger.Warn("lead response could not be interpreted", map[string]interface{}{
			"providerCode": prepared.ProviderCode,
			"error":        err,
		})
	}

	return &SubmitResult{
		Result:       *result,
		ProviderCode: prepared.ProviderCode,
		Request:      prepared.Request,
		Resolutions:  prepared.Resolutions,
		Verdict:      verdict,
	}, nil
}

// ClearSchemaCache drops the cached schema of the resolved provider code. Without any
// provider code every in-memory schema is dropped.
func (s *Session) ClearSchemaCache(ctx context.Context, opts ...CallOption) error {
	co, err := s.resolve(opts)
	if err != nil {
		s.index.Clear()
		return nil
	}
	return s.index.Invalidate(ctx, co.providerCode)
}

func (s *Session) reportDropped(providerCode string, resolutions []Resolution) {
	for _, r := range Dropped(resolutions) {
		group := string(r.Group)
		if group == "" {
			group = "none"
		}
		metrics.LeadFieldsDropped.WithLabelValues(group, string(r.Reason)).Inc()
		s.logger.Debug("lead field dropped", map[string]interface{}{
			"providerCode": providerCode,
			"key":          r.Key,
			"field":        r.Field,
			"group":        group,
			"reason":       string(r.Reason),
		})
	}
}
