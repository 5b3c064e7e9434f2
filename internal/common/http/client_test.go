package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestClient_Post(t *testing.T) {
	var gotAuthUser, gotAuthPass, gotUA, gotType, gotAction, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		gotUA = r.Header.Get("User-Agent")
		gotType = r.Header.Get("Content-Type")
		gotAction = r.Header.Get("SOAPAction")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<fault/>"))
	}))
	defer server.Close()

	client := NewClient(2*time.Second, WithBasicAuth("user", "secret"), WithUserAgent("lead-workers/test"))

	resp, err := client.Post(context.Background(), server.URL, "text/xml", map[string]string{"SOAPAction": "setLead"}, []byte("<x/>"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "<fault/>", string(resp.Body))
	assert.Equal(t, "user", gotAuthUser)
	assert.Equal(t, "secret", gotAuthPass)
	assert.Equal(t, "lead-workers/test", gotUA)
	assert.Equal(t, "text/xml", gotType)
	assert.Equal(t, "setLead", gotAction)
	assert.Equal(t, "<x/>", gotBody)
}

func TestClient_PostTransportError(t *testing.T) {
	client := NewClient(time.Second, WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})))

	_, err := client.Post(context.Background(), "http://leads.invalid", "text/xml", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestClient_PostCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).Post(ctx, "http://leads.invalid", "text/xml", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
