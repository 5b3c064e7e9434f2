package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"lead-workers/internal/common/validation"
	"lead-workers/internal/leads"
)

// offlineProvider is the provider code used for dry runs against a saved schema.
const offlineProvider = "offline"

var recordSchema = validation.MustCompile(validation.LeadRecordSchema)

// savedSchema serves a schema document from disk. It never submits anything.
type savedSchema struct {
	raw string
}

func (s savedSchema) FetchSchema(ctx context.Context, providerCode string) (string, error) {
	return s.raw, nil
}

func (s savedSchema) Submit(ctx context.Context, providerCode, document string) (string, error) {
	return "", fmt.Errorf("submit is not available offline")
}

func (s savedSchema) FetchLeadStatus(ctx context.Context, providerCode, referenceID string) (string, error) {
	return "", fmt.Errorf("status is not available offline")
}

func runEncode(ctx context.Context, out io.Writer, schemaPath, recordPath string) error {
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	record, err := readRecord(recordPath)
	if err != nil {
		return err
	}

	session := leads.NewSession(savedSchema{raw: string(raw)}, leads.WithDefaultProviderCode(offlineProvider))
	prepared, err := session.Prepare(ctx, record)
	if err != nil {
		return err
	}

	printDropped(out, prepared.Resolutions)
	_, err = fmt.Fprintln(out, prepared.Request)
	return err
}

// readRecord loads a JSON lead record from path, or stdin for "-".
func readRecord(path string) (leads.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	if result := recordSchema.ValidateJSON(data); !result.Valid {
		return nil, fmt.Errorf("invalid record: %s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return leads.ParseRecordJSON(data)
}
