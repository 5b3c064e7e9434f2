package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/leads"
)

// ==========================
// Offline Encode Tests
// ==========================

func TestRunEncode(t *testing.T) {
	var out bytes.Buffer
	err := runEncode(context.Background(), &out, "testdata/headers.xml", "testdata/record.json")
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "# dropped color (unknown_field)")
	assert.Contains(t, got, "# dropped interest (invalid_value)")
	assert.Contains(t, got, "<automotive_leads><email>jan@example.nl</email></automotive_leads>")
	assert.Contains(t, got, "<automotive_leads_info_customer><lastname>Jansen</lastname></automotive_leads_info_customer>")
}

func TestRunEncode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		record  string
		wantErr string
	}{
		{"missing schema", "testdata/nope.xml", "testdata/record.json", "read schema"},
		{"missing record", "testdata/headers.xml", "testdata/nope.json", "read record"},
		{"record not an object", "testdata/headers.xml", "testdata/invalid.json", "invalid record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runEncode(context.Background(), &bytes.Buffer{}, tt.schema, tt.record)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSavedSchema_RejectsRemoteCalls(t *testing.T) {
	s := savedSchema{raw: "<headers/>"}

	_, err := s.Submit(context.Background(), offlineProvider, "<lead/>")
	assert.Error(t, err)
	_, err = s.FetchLeadStatus(context.Background(), offlineProvider, "1")
	assert.Error(t, err)
}

// ==========================
// Online Command Tests
// ==========================

func testConn(endpoint, format string) *connFlags {
	env, provider, login, password := "dev", "ACME", "svc", "secret"
	timeout := 2 * time.Second
	verbose := false
	return &connFlags{
		environment:  &env,
		endpoint:     &endpoint,
		providerCode: &provider,
		login:        &login,
		password:     &password,
		timeout:      &timeout,
		format:       &format,
		verbose:      &verbose,
	}
}

func TestRunStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write([]byte(`<Envelope><Body><getLeadResponse><return>&lt;lead&gt;&lt;status&gt;open&lt;/status&gt;&lt;/lead&gt;</return></getLeadResponse></Body></Envelope>`))
	}))
	defer server.Close()

	var out bytes.Buffer
	require.NoError(t, runStatus(context.Background(), &out, testConn(server.URL, "array"), "42"))
	assert.JSONEq(t, `{"status":"open"}`, out.String())
}

func TestRunStatus_UnsupportedFormat(t *testing.T) {
	err := runStatus(context.Background(), &bytes.Buffer{}, testConn("http://localhost:1", "boolean"), "42")
	require.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printResult(&out, &leads.Result{Format: leads.FormatXML, Raw: "<ok/>"}))
	assert.Equal(t, "<ok/>\n", out.String())

	out.Reset()
	require.NoError(t, printResult(&out, &leads.Result{Format: leads.FormatIdentifier, Identifier: "7", HasIdentifier: true}))
	assert.Equal(t, "\"7\"\n", out.String())
}
