package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport_RetriesIdempotentRequests(t *testing.T) {
	calls := 0
	tr := &Transport{
		RetryMax: 2,
		Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection reset")
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid/a", nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestTransport_DoesNotRetryPost(t *testing.T) {
	calls := 0
	tr := &Transport{
		RetryMax: 2,
		Base: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("boom")
		}),
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/a", strings.NewReader("{}"))
	require.NoError(t, err)

	_, err = tr.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewClient_SetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, defaultUserAgent, got)
	assert.Equal(t, 5*time.Second, c.Timeout)
}
