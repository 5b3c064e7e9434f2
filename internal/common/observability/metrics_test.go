package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"lead-workers/internal/common/logger"
)

func TestObservability_Recorders(t *testing.T) {
	o := New("lead-workers-test", logger.NewTestLogger(t))
	defer o.Shutdown()

	ctx := context.Background()
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "completed")
		o.RecordJobDuration(ctx, 25*time.Millisecond, "completed")
		o.RecordSubmission(ctx, "ACME", true)
	})
}

func TestObservability_StartSpan(t *testing.T) {
	o := &Observability{}

	ctx, span := o.StartSpan(context.Background(), "wls.setLead")
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })

	_, span = o.StartSpan(context.Background(), "wls.getLead")
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}

func TestObservability_SpansReachProcessors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	o := New("lead-workers-spans", logger.NewNoOpLogger(), recorder)
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "wls.setLead", attribute.String("provider_code", "ACME"))
	assert.True(t, span.SpanContext().IsValid())
	_, child := o.StartSpan(ctx, "leads.route")
	EndSpan(child, nil)
	EndSpan(span, errors.New("connection refused"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "leads.route", ended[0].Name())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())

	assert.Equal(t, "wls.setLead", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "connection refused", ended[1].Status().Description)
	assert.Contains(t, ended[1].Attributes(), attribute.String("provider_code", "ACME"))
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	o := &Observability{}
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(context.Background(), "failed")
		o.RecordSubmission(context.Background(), "ACME", false)
		o.Shutdown()
	})
}
