package activityapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/directory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewHandler(NewMemoryStore(DefaultActivities()), logger))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, rawURL string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, rawURL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func activitiesPath(srv *httptest.Server, activity, action, email string) string {
	return srv.URL + "/activities/" + url.PathEscape(activity) + "/" + action + "?email=" + url.QueryEscape(email)
}

func participants(t *testing.T, srv *httptest.Server, activity string) []any {
	t.Helper()
	status, body := do(t, http.MethodGet, srv.URL+"/activities")
	require.Equal(t, http.StatusOK, status)
	info, ok := body[activity].(map[string]any)
	require.True(t, ok, "activity %q missing", activity)
	list, _ := info["participants"].([]any)
	return list
}

func TestGetActivities(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/activities")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	d, err := directory.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultActivities().Names(), d.Names(), "order is preserved")

	chess, ok := d.Get("Chess Club")
	require.True(t, ok)
	assert.NotEmpty(t, chess.Participants)
}

func TestSignupAndUnregisterFlow(t *testing.T) {
	srv := newTestServer(t)
	activity, email := "Basketball Team", "test_user@example.com"

	assert.NotContains(t, participants(t, srv, activity), email)

	status, body := do(t, http.MethodPost, activitiesPath(srv, activity, "signup", email))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Signed up test_user@example.com for Basketball Team", body["message"])
	assert.Contains(t, participants(t, srv, activity), email)

	status, body = do(t, http.MethodDelete, activitiesPath(srv, activity, "participants", email))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Unregistered test_user@example.com from Basketball Team", body["message"])
	assert.NotContains(t, participants(t, srv, activity), email)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		activity   string
		action     string
		email      string
		wantStatus int
		wantDetail string
	}{
		{
			name:   "already signed up",
			method: http.MethodPost, activity: "Chess Club", action: "signup", email: "michael@mergington.edu",
			wantStatus: http.StatusBadRequest, wantDetail: "Student already signed up",
		},
		{
			name:   "signup unknown activity",
			method: http.MethodPost, activity: "Knitting", action: "signup", email: "a@x.com",
			wantStatus: http.StatusNotFound, wantDetail: "Activity not found",
		},
		{
			name:   "signup without email",
			method: http.MethodPost, activity: "Chess Club", action: "signup", email: "",
			wantStatus: http.StatusBadRequest, wantDetail: "Email is required",
		},
		{
			name:   "unregister not registered",
			method: http.MethodDelete, activity: "Gym Class", action: "participants", email: "nonexistent@example.com",
			wantStatus: http.StatusNotFound, wantDetail: "Student not registered",
		},
		{
			name:   "unregister unknown activity",
			method: http.MethodDelete, activity: "Knitting", action: "participants", email: "a@x.com",
			wantStatus: http.StatusNotFound, wantDetail: "Activity not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			status, body := do(t, tt.method, activitiesPath(srv, tt.activity, tt.action, tt.email))
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestActivityFull(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewMemoryStore(directory.New(directory.Activity{Name: "Tiny", MaxParticipants: 1, Participants: []string{"a@x.com"}}))
	srv := httptest.NewServer(NewHandler(store, logger))
	defer srv.Close()

	status, body := do(t, http.MethodPost, activitiesPath(srv, "Tiny", "signup", "b@x.com"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Activity is full", body["detail"])
}

func TestWithActivityClient(t *testing.T) {
	srv := newTestServer(t)
	client, err := activityclient.New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	msg, err := client.Signup(ctx, "Chess Club", "new@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, "Signed up new@mergington.edu for Chess Club", msg)

	_, err = client.Signup(ctx, "Chess Club", "new@mergington.edu")
	var apiErr *activityclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Student already signed up", apiErr.Detail)

	d, err := client.Activities(ctx)
	require.NoError(t, err)
	chess, _ := d.Get("Chess Club")
	assert.Contains(t, chess.Participants, "new@mergington.edu")

	msg, err = client.Unregister(ctx, "Chess Club", "new@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, "Unregistered new@mergington.edu from Chess Club", msg)
}
