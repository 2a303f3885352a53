package activityclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activityboard/logging"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
		errMsg  string
	}{
		{name: "valid http", baseURL: "http://localhost:8000"},
		{name: "trailing slash", baseURL: "https://api.example.com/"},
		{name: "missing scheme", baseURL: "api.example.com", wantErr: true, errMsg: "must include scheme"},
		{name: "invalid url", baseURL: "http://:invalid", wantErr: true, errMsg: "invalid base URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.baseURL, WithLogger(testLogger()))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(client.BaseURL, "/"))
			assert.NotNil(t, client.Logger)
		})
	}
}

func TestWithTimeout_OptionOrder(t *testing.T) {
	tests := []struct {
		name  string
		order func(hc *http.Client) []Option
	}{
		{
			name: "timeout first",
			order: func(hc *http.Client) []Option {
				return []Option{WithTimeout(time.Second), WithHTTPClient(hc)}
			},
		},
		{
			name: "client first",
			order: func(hc *http.Client) []Option {
				return []Option{WithHTTPClient(hc), WithTimeout(time.Second)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{}
			client, err := New("http://localhost:8000", tt.order(shared)...)
			require.NoError(t, err)

			assert.Equal(t, time.Second, client.client.Timeout)
			assert.Zero(t, shared.Timeout, "caller's client is not modified")
		})
	}
}

func TestActivities(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantNames  []string
		wantErrIs  error
		wantStatus int
	}{
		{
			name:      "success keeps order",
			status:    http.StatusOK,
			body:      `{"Chess Club":{"description":"d","schedule":"Mon","max_participants":10,"participants":["a@x.com"]},"Art":{"description":"d","schedule":"Tue","max_participants":5,"participants":[]}}`,
			wantNames: []string{"Chess Club", "Art"},
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `{"detail":"boom"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:      "malformed body",
			status:    http.StatusOK,
			body:      `<html>`,
			wantErrIs: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/activities", r.URL.Path)
				assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client, err := New(ts.URL, WithLogger(testLogger()))
			require.NoError(t, err)

			dir, err := client.Activities(context.Background())
			switch {
			case tt.wantErrIs != nil:
				assert.ErrorIs(t, err, tt.wantErrIs)
			case tt.wantStatus != 0:
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantNames, dir.Names())
			}
		})
	}
}

func TestSignup(t *testing.T) {
	var gotPath, gotEmail, gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.EscapedPath()
		gotEmail = r.URL.Query().Get("email")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Signed up a+b@x.com for Chess Club"}`))
	}))
	defer ts.Close()

	client, err := New(ts.URL, WithLogger(testLogger()))
	require.NoError(t, err)

	msg, err := client.Signup(context.Background(), "Chess Club", "a+b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Signed up a+b@x.com for Chess Club", msg)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/activities/Chess%20Club/signup", gotPath)
	assert.Equal(t, "a+b@x.com", gotEmail)
}

func TestUnregister(t *testing.T) {
	var gotPath, gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"message":"Unregistered a@x.com from Gym Class"}`))
	}))
	defer ts.Close()

	client, err := New(ts.URL, WithLogger(testLogger()))
	require.NoError(t, err)

	msg, err := client.Unregister(context.Background(), "Gym Class", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Unregistered a@x.com from Gym Class", msg)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/activities/Gym Class/participants", gotPath)
}

func TestMutationErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "detail", status: http.StatusBadRequest, body: `{"detail":"Student already signed up"}`, wantDetail: "Student already signed up"},
		{name: "message fallback", status: http.StatusNotFound, body: `{"message":"Activity not found"}`, wantDetail: "Activity not found"},
		{name: "no body", status: http.StatusBadGateway, body: ``, wantDetail: ""},
		{name: "structured detail", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["query","email"]}]}`, wantDetail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client, err := New(ts.URL, WithLogger(testLogger()))
			require.NoError(t, err)

			_, err = client.Signup(context.Background(), "Chess Club", "a@x.com")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestTransportError(t *testing.T) {
	client, err := New("http://example.com", WithLogger(testLogger()), WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	}))
	require.NoError(t, err)

	_, err = client.Activities(context.Background())
	assert.ErrorIs(t, err, ErrTransport)

	_, err = client.Unregister(context.Background(), "Gym", "a@x.com")
	assert.ErrorIs(t, err, ErrTransport)
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("read error")
}

func (e *errorReader) Close() error {
	return nil
}

func TestReadError(t *testing.T) {
	client, err := New("http://example.com", WithLogger(testLogger()), WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: &errorReader{}}, nil
		}),
	}))
	require.NoError(t, err)

	_, err = client.Activities(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "reading response body")
}

func TestMalformedMutationResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	client, err := New(ts.URL, WithLogger(testLogger()))
	require.NoError(t, err)

	_, err = client.Signup(context.Background(), "Chess Club", "a@x.com")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestRequestIDFromContext(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get(RequestIDHeader))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithLogger(testLogger()))
	require.NoError(t, err)

	_, err = client.Activities(logging.WithRequestID(context.Background(), "req-42"))
	require.NoError(t, err)
	_, err = client.Activities(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "req-42", got[0])
	assert.NotEmpty(t, got[1])
	assert.NotEqual(t, "req-42", got[1])
}
