package leads

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/metrics"
)

// Schema load sources.
const (
	SourceMemory = "memory"
	SourceStore  = "store"
	SourceRemote = "remote"
)

// SchemaFetcher retrieves the raw schema document for a provider code.
type SchemaFetcher func(ctx context.Context, providerCode string) (string, error)

// RawSchemaStore persists raw schema documents between processes.
type RawSchemaStore interface {
	Get(ctx context.Context, providerCode string) (string, bool, error)
	Set(ctx context.Context, providerCode, raw string) error
	Delete(ctx context.Context, providerCode string) error
}

// LoadedSchema is a parsed schema together with the document it came from.
type LoadedSchema struct {
	ProviderCode string
	Raw          string
	Schema       *Schema
	Source       string
	LoadedAt     time.Time
}

// SchemaIndex caches parsed schemas per provider code. Concurrent loads of the same code
// share one remote fetch.
type SchemaIndex struct {
	store  RawSchemaStore
	logger logger.Logger

	mu      sync.RWMutex
	entries map[string]*LoadedSchema
	flight  singleflight.Group
}

type IndexOption func(*SchemaIndex)

// WithRawSchemaStore adds a second cache level consulted before the remote service.
func WithRawSchemaStore(store RawSchemaStore) IndexOption {
	return func(x *SchemaIndex) {
		x.store = store
	}
}

func WithIndexLogger(l logger.Logger) IndexOption {
	return func(x *SchemaIndex) {
		x.logger = l
	}
}

func NewSchemaIndex(opts ...IndexOption) *SchemaIndex {
	x := &SchemaIndex{
		logger:  logger.NewNoOpLogger(),
		entries: make(map[string]*LoadedSchema),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Load returns the schema for providerCode. Unless refresh is set a cached entry is
// returned; otherwise the schema is fetched, parsed and cached. Fetch and parse failures
// are reported as SCHEMA_UNAVAILABLE and leave the cache untouched.
func (x *SchemaIndex) Load(ctx context.Context, providerCode string, fetch SchemaFetcher, refresh bool) (*LoadedSchema, error) {
	if !refresh {
		if entry := x.cached(providerCode); entry != nil {
			metrics.LeadSchemaLoads.WithLabelValues(SourceMemory).Inc()
			return entry, nil
		}
	}

	key := providerCode
	if refresh {
		key = "refresh:" + providerCode
	}

	v, err, _ := x.flight.Do(key, func() (interface{}, error) {
		if !refresh {
			if entry := x.cached(providerCode); entry != nil {
				return entry, nil
			}
			if entry := x.fromStore(ctx, providerCode); entry != nil {
				return entry, nil
			}
		}
		return x.fromRemote(ctx, providerCode, fetch)
	})
	if err != nil {
		return nil, err
	}

	entry := v.(*LoadedSchema)
	metrics.LeadSchemaLoads.WithLabelValues(entry.Source).Inc()
	return entry, nil
}

func (x *SchemaIndex) fromStore(ctx context.Context, providerCode string) *LoadedSchema {
	if x.store == nil {
		return nil
	}

	raw, ok, err := x.store.Get(ctx, providerCode)
	if err != nil {
		x.logger.Warn("schema store read failed", map[string]interface{}{
			"providerCode": providerCode,
			"error":        err,
		})
		return nil
	}
	if !ok {
		return nil
	}

	schema, err := ParseSchema([]byte(raw))
	if err != nil {
		x.logger.Warn("discarding unreadable stored schema", map[string]interface{}{
			"providerCode": providerCode,
			"error":        err,
		})
		return nil
	}

	entry := &LoadedSchema{
		ProviderCode: providerCode,
		Raw:          raw,
		Schema:       schema,
		Source:       SourceStore,
		LoadedAt:     time.Now(),
	}
	x.put(entry)
	return entry
}

func (x *SchemaIndex) fromRemote(ctx context.Context, providerCode string, fetch SchemaFetcher) (*LoadedSchema, error) {
	raw, err := fetch(ctx, providerCode)
	if err != nil {
		return nil, errors.NewSchemaUnavailableError(providerCode, err)
	}

	schema, err := ParseSchema([]byte(raw))
	if err != nil {
		return nil, errors.NewSchemaUnavailableError(providerCode, err)
	}

	entry := &LoadedSchema{
		ProviderCode: providerCode,
		Raw:          raw,
		Schema:       schema,
		Source:       SourceRemote,
		LoadedAt:     time.Now(),
	}
	x.put(entry)

	if x.store != nil {
		if err := x.store.Set(ctx, providerCode, raw); err != nil {
			x.logger.Warn("schema store write failed", map[string]interface{}{
				"providerCode": providerCode,
				"error":        err,
			})
		}
	}

	x.logger.Info("lead schema loaded", map[string]interface{}{
		"providerCode":   providerCode,
		"leadFields":     len(schema.Fields(GroupLead)),
		"customerFields": len(schema.Fields(GroupCustomer)),
	})
	return entry, nil
}

func (x *SchemaIndex) cached(providerCode string) *LoadedSchema {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.entries[providerCode]
}

func (x *SchemaIndex) put(entry *LoadedSchema) {
	x.mu.Lock()
	x.entries[entry.ProviderCode] = entry
	x.mu.Unlock()
}

// Invalidate drops the cached schema for providerCode from memory and from the store.
func (x *SchemaIndex) Invalidate(ctx context.Context, providerCode string) error {
	x.mu.Lock()
	delete(x.entries, providerCode)
	x.mu.Unlock()

	if x.store != nil {
		return x.store.Delete(ctx, providerCode)
	}
	return nil
}

// Clear drops every in-memory entry. The store is left as is.
func (x *SchemaIndex) Clear() {
	x.mu.Lock()
	x.entries = make(map[string]*LoadedSchema)
	x.mu.Unlock()
}

// Cached reports whether a schema for providerCode is held in memory.
func (x *SchemaIndex) Cached(providerCode string) bool {
	return x.cached(providerCode) != nil
}
