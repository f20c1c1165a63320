package attribution_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkowl/linkowl-go/pkg/attribution"
	"github.com/linkowl/linkowl-go/pkg/config"
	"github.com/linkowl/linkowl-go/pkg/fingerprint"
)

const testAPIKey = "lo_live_test"

func newConfig(baseURL string) *config.Config {
	cfg := config.New()
	cfg.Configure(testAPIKey, baseURL)
	return cfg
}

func newClient(baseURL string, opts ...attribution.Option) *attribution.Client {
	opts = append([]attribution.Option{attribution.WithRetryDelay(10 * time.Millisecond)}, opts...)
	return attribution.NewClient(newConfig(baseURL), opts...)
}

func testFingerprint() fingerprint.Fingerprint {
	return fingerprint.NewCollector(
		fingerprint.WithLocale("en_GB"),
		fingerprint.WithTimezone("Europe/London"),
	).Collect()
}

// roundTripFunc lets tests replace the transport.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_TrackInstall_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/installs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, testAPIKey, r.Header.Get("X-API-Key"))
		assert.Equal(t, attribution.DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get(attribution.RequestIDHeader))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testAPIKey, body["api_key"])
		fp, ok := body["fingerprint"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "en-GB", fp["locale"])
		assert.Equal(t, "Europe/London", fp["timezone"])
		assert.Contains(t, fp, "os_version")
		assert.Contains(t, fp, "screen_width")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"install_id":"abc"}`))
	}))
	defer server.Close()

	id, err := newClient(server.URL).TrackInstall(context.Background(), testFingerprint())
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestClient_TrackInstall_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	var (
		calls      atomic.Int32
		mu         sync.Mutex
		requestIDs []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestIDs = append(requestIDs, r.Header.Get(attribution.RequestIDHeader))
		mu.Unlock()

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"install_id":"second"}`))
	}))
	defer server.Close()

	id, err := newClient(server.URL).TrackInstall(context.Background(), testFingerprint())
	require.NoError(t, err)
	assert.Equal(t, "second", id)
	assert.Equal(t, int32(2), calls.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requestIDs, 2)
	assert.Equal(t, requestIDs[0], requestIDs[1], "retry reuses the request id")
}

func TestClient_TrackInstall_BothAttemptsFail(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream\nunavailable"))
	}))
	defer server.Close()

	id, err := newClient(server.URL).TrackInstall(context.Background(), testFingerprint())
	assert.Empty(t, id)
	assert.ErrorIs(t, err, attribution.ErrDeliveryFailed)
	assert.ErrorIs(t, err, attribution.ErrStatus)
	assert.True(t, attribution.IsRetryable(err))

	var se *attribution.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "upstream unavailable", se.Body)
	assert.Equal(t, int32(2), calls.Load(), "one initial attempt plus one retry")
}

func TestClient_ClientErrorsAreRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := newClient(server.URL).TrackPurchase(context.Background(), attribution.Purchase{TransactionID: "t1", Revenue: 1, Currency: "USD"})
	assert.ErrorIs(t, err, attribution.ErrStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_TrackInstall_DecodeFailure(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"malformed json": `{"install_id":`,
		"missing field":  `{"id":"abc"}`,
		"empty id":       `{"install_id":""}`,
		"wrong type":     `{"install_id":42}`,
		"empty body":     ``,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			id, err := newClient(server.URL).TrackInstall(context.Background(), testFingerprint())
			assert.Empty(t, id)
			assert.ErrorIs(t, err, attribution.ErrDecode)
			assert.False(t, attribution.IsRetryable(err))
			assert.Equal(t, int32(1), calls.Load(), "decode failures are not retried")
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	hang := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	client := newClient("https://linkowl.test",
		attribution.WithHTTPClient(&http.Client{Transport: hang}),
		attribution.WithTimeout(30*time.Millisecond),
	)

	done := make(chan error, 1)
	go func() {
		_, err := client.TrackInstall(context.Background(), testFingerprint())
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, attribution.ErrTimeout)
		assert.ErrorIs(t, err, attribution.ErrDeliveryFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CallerCancellationIsNotRetried(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	cancelling := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		cancel()
		return nil, r.Context().Err()
	})

	client := newClient("https://linkowl.test", attribution.WithHTTPClient(&http.Client{Transport: cancelling}))
	err := client.TrackPurchase(ctx, attribution.Purchase{TransactionID: "t1", Revenue: 1, Currency: "USD"})

	assert.ErrorIs(t, err, attribution.ErrDeliveryFailed)
	assert.ErrorIs(t, err, attribution.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, attribution.IsRetryable(attribution.ErrCanceled))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	broken := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection reset")
	})

	client := newClient("https://linkowl.test", attribution.WithHTTPClient(&http.Client{Transport: broken}))
	err := client.SetUserID(context.Background(), "user", "inst")

	assert.ErrorIs(t, err, attribution.ErrTransport)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_EncodeFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	err := newClient(server.URL).TrackPurchase(context.Background(), attribution.Purchase{
		TransactionID: "t1",
		Revenue:       math.NaN(),
		Currency:      "USD",
	})

	assert.ErrorIs(t, err, attribution.ErrEncode)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_NotConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counting := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("unexpected")
	})
	client := attribution.NewClient(config.New(), attribution.WithHTTPClient(&http.Client{Transport: counting}))
	ctx := context.Background()

	_, err := client.TrackInstall(ctx, testFingerprint())
	assert.ErrorIs(t, err, attribution.ErrNotConfigured)
	assert.ErrorIs(t, client.SetUserID(ctx, "u", "i"), attribution.ErrNotConfigured)
	assert.ErrorIs(t, client.TrackPurchase(ctx, attribution.Purchase{}), attribution.ErrNotConfigured)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_SetUserID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/installs/inst%2F1", r.URL.EscapedPath())
		assert.Equal(t, testAPIKey, r.Header.Get("X-API-Key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"rc_user_id":"rc_user_abc"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newClient(server.URL + "/")
	require.NoError(t, client.SetUserID(context.Background(), "rc_user_abc", "inst/1"))
	assert.ErrorIs(t, client.SetUserID(context.Background(), "rc_user_abc", ""), attribution.ErrMissingInstall)
}

func TestClient_TrackPurchase(t *testing.T) {
	t.Parallel()

	bodies := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/purchases", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		bodies <- string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newClient(server.URL)
	ctx := context.Background()

	require.NoError(t, client.TrackPurchase(ctx, attribution.Purchase{InstallID: "abc", TransactionID: "t1", Revenue: 4.99, Currency: "GBP"}))
	assert.JSONEq(t, `{"install_id":"abc","transaction_id":"t1","revenue":4.99,"currency":"GBP"}`, <-bodies)

	require.NoError(t, client.TrackPurchase(ctx, attribution.Purchase{TransactionID: "t2", Revenue: 10, Currency: "USD"}))
	assert.JSONEq(t, `{"transaction_id":"t2","revenue":10,"currency":"USD"}`, <-bodies)
}

func TestClient_OnAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var attempts []attribution.Attempt
	client := newClient(server.URL, attribution.WithOnAttempt(func(a attribution.Attempt) {
		attempts = append(attempts, a)
	}))

	require.NoError(t, client.TrackPurchase(context.Background(), attribution.Purchase{TransactionID: "t", Currency: "USD"}))
	require.Len(t, attempts, 2)

	assert.Equal(t, attribution.OpPurchase, attempts[0].Operation)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].StatusCode)
	assert.False(t, attempts[0].Success())

	assert.Equal(t, 2, attempts[1].Attempt)
	assert.Equal(t, http.StatusOK, attempts[1].StatusCode)
	assert.True(t, attempts[1].Success())
}

func TestClient_RetryDelay(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newClient(server.URL, attribution.WithRetryDelay(150*time.Millisecond))

	start := time.Now()
	err := client.TrackPurchase(context.Background(), attribution.Purchase{TransactionID: "t", Currency: "USD"})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestClient_NoRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newClient(server.URL, attribution.WithMaxRetries(0)).TrackPurchase(context.Background(), attribution.Purchase{TransactionID: "t", Currency: "USD"})
	assert.ErrorIs(t, err, attribution.ErrDeliveryFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()

	b := attribution.FixedBackoff{Interval: attribution.DefaultRetryDelay}
	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, 2*time.Second, b.NextInterval(1))
	assert.Equal(t, 2*time.Second, b.NextInterval(5))
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10*time.Second, attribution.DefaultTimeout)
	assert.Equal(t, 1, attribution.DefaultMaxRetries)
	assert.Equal(t, 2*time.Second, attribution.DefaultRetryDelay)
}

func TestLogRequestID(t *testing.T) {
	t.Parallel()

	_, ok := attribution.LogRequestID(context.Background())
	assert.False(t, ok)
	assert.Empty(t, attribution.RequestIDFromContext(context.Background()))
}
