package outbound

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 30*time.Second, ParseRetryAfter("30", now))
	require.Equal(t, DefaultRetryAfter, ParseRetryAfter("", now))
	require.Equal(t, DefaultRetryAfter, ParseRetryAfter("soon", now))
	require.Equal(t, 90*time.Second, ParseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
}

func TestCheck_ClassifiesResponses(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "5")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("upstream says no"))
	}))
	defer server.Close()

	client := NewClient(nil)
	ctx := context.Background()
	do := func() error {
		resp, err := client.R().SetContext(ctx).Post(server.URL)
		return Check(ctx, resp, err, true)
	}

	require.NoError(t, do())

	status = http.StatusServiceUnavailable
	err := do()
	require.EqualError(t, err, "HTTP 503: upstream says no")
	require.True(t, IsRetryable(err))

	status = http.StatusTooManyRequests
	err = do()
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, 5*time.Second, statusErr.RetryAfter())
	require.True(t, IsRetryable(err))

	status = http.StatusBadRequest
	err = do()
	require.False(t, IsRetryable(err))
}

func TestCheck_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	resp, err := NewClient(nil).R().SetContext(ctx).Get(server.URL)

	err = Check(ctx, resp, err, false)
	require.ErrorIs(t, err, ErrTimeout)
	require.True(t, IsRetryable(err))
}

func TestRedactEndpoint(t *testing.T) {
	require.Equal(t, "https://hooks.example.com", RedactEndpoint("https://hooks.example.com/services/T000/B000/secret"))
	require.Empty(t, RedactEndpoint("not a url"))
	require.True(t, IsHTTPURL("http://localhost:8080/hook"))
	require.False(t, IsHTTPURL("ftp://example.com"))
}
