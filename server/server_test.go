package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activityboard/activityapi"
	"github.com/nomis52/activityboard/clients/activityclient"
	"github.com/nomis52/activityboard/server/cron"
	"github.com/nomis52/activityboard/server/types"
)

// upstream runs the reference activities API and records request ids.
type upstream struct {
	*httptest.Server
	mu  sync.Mutex
	ids []string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	api := activityapi.NewHandler(activityapi.NewMemoryStore(activityapi.DefaultActivities()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.ids = append(u.ids, r.Header.Get(activityclient.RequestIDHeader))
		u.mu.Unlock()
		api.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) requestIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.ids...)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

type fixture struct {
	srv  *Server
	ts   *httptest.Server
	path string
	api  *upstream
}

func newTestServer(t *testing.T, extra string) fixture {
	t.Helper()
	api := newUpstream(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "api:\n  url: \""+api.URL+"\"\n"+extra)

	srv, err := New(path, WithLogWriter(io.Discard))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return fixture{srv: srv, ts: ts, path: path, api: api}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_BoardPage(t *testing.T) {
	ts := newTestServer(t, "").ts

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Chess Club")
	assert.Contains(t, body, "Capacity: 2 / 12")
	assert.NotEmpty(t, resp.Header.Get(activityclient.RequestIDHeader))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestServer_NotFound(t *testing.T) {
	ts := newTestServer(t, "").ts

	resp, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Static(t *testing.T) {
	ts := newTestServer(t, "").ts

	resp, body := get(t, ts.URL+"/static/styles.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
}

func TestServer_SignupFlow(t *testing.T) {
	ts := newTestServer(t, "").ts
	client := noRedirectClient()

	form := url.Values{"activity": {"Chess Club"}, "email": {"new@mergington.edu"}}
	resp, err := client.PostForm(ts.URL+"/signup", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := get(t, ts.URL+"/api/view")
	assert.Contains(t, body, "new@mergington.edu")
	assert.Contains(t, body, "Signed up new@mergington.edu for Chess Club")

	resp, err = client.PostForm(ts.URL+"/signup", form)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(page), "Student already signed up")

	resp, err = client.PostForm(ts.URL+"/unregister", url.Values{
		"activity": {"Chess Club"},
		"email":    {"new@mergington.edu"},
		"confirm":  {"yes"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = get(t, ts.URL+"/api/view")
	assert.NotContains(t, body, `"email":"new@mergington.edu"`)
}

func TestServer_RequestIDIsForwarded(t *testing.T) {
	f := newTestServer(t, "")
	ts := f.ts

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/refresh", nil)
	require.NoError(t, err)
	req.Header.Set(activityclient.RequestIDHeader, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(activityclient.RequestIDHeader))
	assert.Contains(t, f.api.requestIDs(), "req-123")
}

func TestServer_Status(t *testing.T) {
	f := newTestServer(t, "board:\n  refresh_schedule: \"*/5 * * * *\"\n")
	srv, ts := f.srv, f.ts
	require.NoError(t, srv.board.Load(context.Background()))

	resp, body := get(t, ts.URL+"/api/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status types.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, srv.Config().API.URL, status.APIURL)
	assert.Equal(t, uint64(1), status.Board.Version)
	assert.Equal(t, 8, status.Board.Activities)
	assert.NotNil(t, status.NextRefresh)
	assert.Equal(t, "dev", status.Server.Build.Version)
}

func TestServer_Metrics(t *testing.T) {
	f := newTestServer(t, "")
	srv, ts := f.srv, f.ts
	require.NoError(t, srv.board.Load(context.Background()))

	resp, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `board_fetches_total{outcome="ok"} 1`)
	assert.Contains(t, body, "board_activities 8")
}

func TestServer_Reload(t *testing.T) {
	f := newTestServer(t, "")
	srv, ts, path := f.srv, f.ts, f.path
	require.NoError(t, srv.board.Load(context.Background()))
	before := srv.board.Status().Version

	other := newUpstream(t)
	writeConfig(t, path, "api:\n  url: \""+other.URL+"\"\nlog_level: debug\n")

	resp, err := http.Post(ts.URL+"/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, other.URL, srv.Config().API.URL)
	assert.Equal(t, slog.LevelDebug, srv.logger.Level())
	assert.Equal(t, before, srv.board.Status().Version, "reload keeps the snapshot")

	require.NoError(t, srv.board.Load(context.Background()))
	assert.NotEmpty(t, other.requestIDs())
}

func TestServer_ReloadInvalidConfigKeepsDeps(t *testing.T) {
	f := newTestServer(t, "")
	srv, ts, path := f.srv, f.ts, f.path
	apiURL := srv.Config().API.URL

	writeConfig(t, path, "listener:\n  addr: \":9999\"\n")

	resp, err := http.Post(ts.URL+"/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apiURL, srv.Config().API.URL)
}

func TestServer_Config(t *testing.T) {
	ts := newTestServer(t, "csrf:\n  key: \"0123456789abcdef0123456789abcdef\"\n").ts

	resp, body := get(t, ts.URL+"/config")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "[REDACTED]")
	assert.NotContains(t, body, "0123456789abcdef")
}

func TestServer_CSRF(t *testing.T) {
	ts := newTestServer(t, "csrf:\n  key: \"0123456789abcdef0123456789abcdef\"\n").ts

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, "gorilla.csrf.Token")

	resp, err := noRedirectClient().PostForm(ts.URL+"/signup", url.Values{
		"activity": {"Chess Club"},
		"email":    {"new@mergington.edu"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/refresh", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_InvalidSchedule(t *testing.T) {
	api := newUpstream(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "api:\n  url: \""+api.URL+"\"\nboard:\n  refresh_schedule: \"not a schedule\"\n")

	_, err := New(path, WithLogWriter(io.Discard))
	assert.ErrorIs(t, err, cron.ErrInvalidCronSpec)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
