package leadstatus

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/common/errors"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/journal"
	"lead-workers/internal/leads"
)

const statusResponse = `<lead><status>in behandeling</status><dealer><name>Autohuis</name></dealer></lead>`

// ==========================
// Mock Implementations
// ==========================

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) FetchSchema(ctx context.Context, providerCode string) (string, error) {
	args := m.Called(ctx, providerCode)
	return args.String(0), args.Error(1)
}

func (m *MockRemote) Submit(ctx context.Context, providerCode, document string) (string, error) {
	args := m.Called(ctx, providerCode, document)
	return args.String(0), args.Error(1)
}

func (m *MockRemote) FetchLeadStatus(ctx context.Context, providerCode, referenceID string) (string, error) {
	args := m.Called(ctx, providerCode, referenceID)
	return args.String(0), args.Error(1)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) UpdateStatus(ctx context.Context, providerCode, referenceID, status string) error {
	args := m.Called(ctx, providerCode, referenceID, status)
	return args.Error(0)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "test-process",
		ElementId:          "Activity_LeadStatus",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          variables,
	}}
}

func createValidConfig() *Config {
	return &Config{Enabled: true, MaxJobsActive: 5, Timeout: 30 * time.Second, ProviderCode: "ACME"}
}

func newHandler(t *testing.T, remote *MockRemote, j Journal) *Handler {
	deps := ServiceDependencies{Session: leads.NewSession(remote)}
	if j != nil {
		deps.Journal = j
	}
	handler, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Dependencies: deps,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return handler
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := newHandler(t, &MockRemote{}, nil)

	tests := []struct {
		name      string
		variables string
		wantRef   string
		wantCode  errors.ErrorCode
	}{
		{name: "string reference", variables: `{"referenceId": "42"}`, wantRef: "42"},
		{name: "numeric reference", variables: `{"referenceId": 1234567890123, "providerCode": "X"}`, wantRef: "1234567890123"},
		{name: "missing reference", variables: `{}`, wantCode: errors.ErrCodeValidationFailed},
		{name: "non numeric reference", variables: `{"referenceId": "abc"}`, wantCode: errors.ErrCodeValidationFailed},
		{name: "zero reference", variables: `{"referenceId": 0}`, wantCode: errors.ErrCodeValidationFailed},
		{name: "broken json", variables: `{"referenceId"`, wantCode: errors.ErrCodeInputParsingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := handler.parseInput(createMockJob(1, tt.variables))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, input.ReferenceID)
		})
	}
}

// ==========================
// Execution Tests
// ==========================

func TestService_Execute(t *testing.T) {
	remote := &MockRemote{}
	j := &MockJournal{}
	remote.On("FetchLeadStatus", mock.Anything, "ACME", "42").Return(statusResponse, nil).Once()
	j.On("UpdateStatus", mock.Anything, "ACME", "42", "in behandeling").Return(nil).Once()

	output, err := newHandler(t, remote, j).service.Execute(context.Background(), &Input{ReferenceID: "42"})
	require.NoError(t, err)

	assert.Equal(t, "in behandeling", output.LeadStatusText)
	assert.Equal(t, "ACME", output.LeadProviderCode)
	assert.True(t, output.LeadJournaled)
	assert.Equal(t, "Autohuis", leads.Mapping(output.LeadStatus).Sub("dealer").String("name"))

	remote.AssertExpectations(t)
	j.AssertExpectations(t)
}

func TestService_Execute_UnjournaledLead(t *testing.T) {
	remote := &MockRemote{}
	j := &MockJournal{}
	remote.On("FetchLeadStatus", mock.Anything, "OTHER", "7").Return(statusResponse, nil).Once()
	j.On("UpdateStatus", mock.Anything, "OTHER", "7", "in behandeling").Return(journal.ErrNotFound).Once()

	output, err := newHandler(t, remote, j).service.Execute(context.Background(), &Input{ProviderCode: "OTHER", ReferenceID: "7"})
	require.NoError(t, err)
	assert.False(t, output.LeadJournaled)
}

func TestService_Execute_JournalFailure(t *testing.T) {
	remote := &MockRemote{}
	j := &MockJournal{}
	remote.On("FetchLeadStatus", mock.Anything, "ACME", "42").Return(statusResponse, nil).Once()
	j.On("UpdateStatus", mock.Anything, "ACME", "42", mock.Anything).Return(stderrors.New("deadlock")).Once()

	_, err := newHandler(t, remote, j).service.Execute(context.Background(), &Input{ReferenceID: "42"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeJournalWriteFailed))
	assert.True(t, errors.Normalize(err).Retryable)
}

func TestService_Execute_NoStatusField(t *testing.T) {
	remote := &MockRemote{}
	j := &MockJournal{}
	remote.On("FetchLeadStatus", mock.Anything, "ACME", "42").Return(`<lead><dealer>x</dealer></lead>`, nil).Once()

	output, err := newHandler(t, remote, j).service.Execute(context.Background(), &Input{ReferenceID: "42"})
	require.NoError(t, err)
	assert.Empty(t, output.LeadStatusText)
	j.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Execute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		wantCode errors.ErrorCode
	}{
		{name: "malformed document", response: "<lead><status>", wantCode: errors.ErrCodeMalformedResponseDocument},
		{name: "fault", err: &wls.FaultError{Code: "SOAP-ENV:Client", Message: "unknown lead"}, wantCode: errors.ErrCodeTransportFailure},
		{name: "http error", err: &wls.RemoteError{StatusCode: 502}, wantCode: errors.ErrCodeTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &MockRemote{}
			remote.On("FetchLeadStatus", mock.Anything, "ACME", "42").Return(tt.response, tt.err).Once()

			_, err := newHandler(t, remote, nil).service.Execute(context.Background(), &Input{ReferenceID: "42"})
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}
