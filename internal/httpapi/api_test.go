package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/francesco74/sonde/internal/repository"
	"github.com/francesco74/sonde/internal/service"
	"github.com/francesco74/sonde/internal/session"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiFixture is a complete in-memory stack behind a test server.
type apiFixture struct {
	server    *httptest.Server
	users     *repository.MemoryUsersRepository
	practices *repository.MemoryPracticesRepository
	readings  *repository.MemoryReadingsRepository
	auth      service.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	users := repository.NewMemoryUsersRepository()
	practices := repository.NewMemoryPracticesRepository()
	readings := repository.NewMemoryReadingsRepository()
	sessions := session.NewMemoryStore("test-secret", time.Hour)

	auth := service.NewAuthService(users, users, logger)
	tree := service.NewTreeService(practices, logger)
	series := service.NewSeriesService(practices, readings, logger)

	router := NewRouter(logger)
	cookies := CookieOptions{Secure: false, SameSite: http.SameSiteLaxMode}
	router.Register(
		NewAuthHandler(auth, sessions, cookies, logger),
		NewDataHandler(tree, series, logger),
		sessions,
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{
		server:    server,
		users:     users,
		practices: practices,
		readings:  readings,
		auth:      auth,
	}
}

// client returns an HTTP client with a cookie jar, so the session cookie
// set by /login is carried on subsequent requests.
func (f *apiFixture) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (f *apiFixture) postJSON(t *testing.T, client *http.Client, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (f *apiFixture) login(t *testing.T, client *http.Client, username, password string) *http.Response {
	t.Helper()
	return f.postJSON(t, client, "/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

// seedUser registers an account and returns its id.
func (f *apiFixture) seedUser(t *testing.T, username, password string) int64 {
	t.Helper()
	require.NoError(t, f.auth.CreateUser(context.Background(), username, password))
	u, err := f.users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return u.ID
}

func TestLogin_MissingFields(t *testing.T) {
	f := newAPIFixture(t)
	client := f.client(t)

	resp := f.postJSON(t, client, "/login", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "Username and password are required.", body["result"])
}

func TestLogin_WrongAndUnknownLookAlike(t *testing.T) {
	f := newAPIFixture(t)
	f.seedUser(t, "alice", "s3cret")
	client := f.client(t)

	respUnknown := f.login(t, client, "nobody", "whatever")
	require.Equal(t, http.StatusUnauthorized, respUnknown.StatusCode)
	bodyUnknown := decodeEnvelope(t, respUnknown)

	respWrong := f.login(t, client, "alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
	bodyWrong := decodeEnvelope(t, respWrong)

	require.Equal(t, bodyUnknown, bodyWrong)
	require.Equal(t, "Invalid credentials.", bodyWrong["result"])
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	f := newAPIFixture(t)
	f.seedUser(t, "alice", "s3cret")
	client := f.client(t)

	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "Authentication successful.", body["result"])

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			found = true
			require.True(t, c.HttpOnly)
		}
	}
	require.True(t, found, "session cookie not set")
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	f := newAPIFixture(t)
	client := f.client(t)

	for _, path := range []string{"/get_tree", "/get_latest_data?practice_id=x", "/get_data"} {
		resp, err := client.Get(f.server.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		body := decodeEnvelope(t, resp)
		require.Equal(t, "Authorization required.", body["result"], path)
	}
}

func TestLogout_DestroysSession(t *testing.T) {
	f := newAPIFixture(t)
	f.seedUser(t, "alice", "s3cret")
	client := f.client(t)

	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.postJSON(t, client, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "Logout successful.", body["result"])

	resp, err := client.Get(f.server.URL + "/get_tree")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLogout_WithoutSessionSucceeds(t *testing.T) {
	f := newAPIFixture(t)
	client := f.client(t)

	resp := f.postJSON(t, client, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateUser_Conflict(t *testing.T) {
	f := newAPIFixture(t)
	client := f.client(t)

	resp := f.postJSON(t, client, "/create_user", map[string]string{
		"username": "alice", "password": "one",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "User alice created", body["result"])

	resp = f.postJSON(t, client, "/create_user", map[string]string{
		"username": "alice", "password": "two",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeEnvelope(t, resp)
	require.Equal(t, "This username already exists.", body["result"])
}

func TestGetTree_ScopedToPracticeGrant(t *testing.T) {
	f := newAPIFixture(t)

	toscana := f.practices.AddMacrogroup("Toscana")
	emilia := f.practices.AddMacrogroup("Emilia")
	lu01 := f.practices.AddPractice("Sonda-LU-01", "Lucca nord", 43.85, 10.50, toscana)
	f.practices.AddPractice("Sonda-LU-02", "Lucca sud", 43.82, 10.49, toscana)
	f.practices.AddPractice("Sonda-BO-01", "Bologna", 44.49, 11.34, emilia)

	aliceID := f.seedUser(t, "alice", "s3cret")
	f.users.GrantPractice(aliceID, lu01)

	client := f.client(t)
	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Get(f.server.URL + "/get_tree")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "ok", body["status"])

	tree, ok := body["result"].([]any)
	require.True(t, ok, "result is not a list: %v", body["result"])
	require.Len(t, tree, 1)

	entry := tree[0].(map[string]any)
	require.Equal(t, "Toscana", entry["macrogroup_name"])
	probes := entry["probes"].([]any)
	require.Len(t, probes, 1)
	require.Equal(t, "Sonda-LU-01", probes[0].(map[string]any)["name"])
}

func TestGetTree_NoGrantsIsEmptyList(t *testing.T) {
	f := newAPIFixture(t)
	f.seedUser(t, "bob", "pw")

	client := f.client(t)
	resp := f.login(t, client, "bob", "pw")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Get(f.server.URL + "/get_tree")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, []any{}, body["result"])
}

func TestGetData_FullFlow(t *testing.T) {
	f := newAPIFixture(t)

	toscana := f.practices.AddMacrogroup("Toscana")
	lu01 := f.practices.AddPractice("Sonda-LU-01", "", 43.85, 10.50, toscana)
	f.practices.AddPractice("Sonda-LU-02", "", 43.82, 10.49, toscana)

	ctx := context.Background()
	tx, err := f.readings.BeginImport(ctx)
	require.NoError(t, err)
	sensorID, err := tx.GetOrCreateSensor(ctx, lu01, "TEMP")
	require.NoError(t, err)
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, tx.UpsertReading(ctx, sensorID, ts, 21.5))
	require.NoError(t, tx.Commit())

	aliceID := f.seedUser(t, "alice", "s3cret")
	f.users.GrantPractice(aliceID, lu01)

	client := f.client(t)
	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	url := fmt.Sprintf("%s/get_data?practice_id=%s&start_date=%s&end_date=%s",
		f.server.URL, "Sonda-LU-01", "2024-01-01", "2024-01-02")
	resp, err = client.Get(url)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "ok", body["status"])

	series := body["data"].([]any)
	require.Len(t, series, 1)
	sensor := series[0].(map[string]any)
	require.Equal(t, "TEMP", sensor["name"])
	values := sensor["values"].([]any)
	require.Len(t, values, 1)
	point := values[0].(map[string]any)
	require.Equal(t, float64(ts.Unix()), point["timestamp"])
	require.Equal(t, 21.5, point["value"])
}

func TestGetData_ErrorStatuses(t *testing.T) {
	f := newAPIFixture(t)

	toscana := f.practices.AddMacrogroup("Toscana")
	lu01 := f.practices.AddPractice("Sonda-LU-01", "", 43.85, 10.50, toscana)
	f.practices.AddPractice("Sonda-LU-02", "", 43.82, 10.49, toscana)

	aliceID := f.seedUser(t, "alice", "s3cret")
	f.users.GrantPractice(aliceID, lu01)

	client := f.client(t)
	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	cases := []struct {
		name       string
		query      string
		wantStatus int
		wantMsg    string
	}{
		{"missing params", "practice_id=Sonda-LU-01", http.StatusBadRequest, "Missing parameters."},
		{"unknown practice", "practice_id=nope&start_date=2024-01-01&end_date=2024-01-02", http.StatusNotFound, "Practice not found."},
		{"no permission", "practice_id=Sonda-LU-02&start_date=2024-01-01&end_date=2024-01-02", http.StatusForbidden, "Permission denied for this practice."},
		{"bad date", "practice_id=Sonda-LU-01&start_date=01-01-2024&end_date=2024-01-02", http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := client.Get(f.server.URL + "/get_data?" + tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, resp.StatusCode)
			body := decodeEnvelope(t, resp)
			require.Equal(t, "error", body["status"])
			require.Equal(t, tc.wantMsg, body["result"])
		})
	}
}

func TestGetLatestData_MissingPracticeID(t *testing.T) {
	f := newAPIFixture(t)
	f.seedUser(t, "alice", "s3cret")

	client := f.client(t)
	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Get(f.server.URL + "/get_latest_data")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "Missing 'practice_id' parameter.", body["result"])
}

func TestGetLatestData_ResponseShape(t *testing.T) {
	f := newAPIFixture(t)

	toscana := f.practices.AddMacrogroup("Toscana")
	lu01 := f.practices.AddPractice("Sonda-LU-01", "", 43.85, 10.50, toscana)

	aliceID := f.seedUser(t, "alice", "s3cret")
	f.users.GrantMacrogroup(aliceID, toscana)
	_ = lu01

	client := f.client(t)
	resp := f.login(t, client, "alice", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Get(f.server.URL + "/get_latest_data?practice_id=Sonda-LU-01")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Equal(t, "ok", body["status"])

	data := body["data"].(map[string]any)
	require.NotEmpty(t, data["startDate"])
	require.NotEmpty(t, data["endDate"])
	require.Equal(t, []any{}, data["series"])
}

func TestWrongMethodIs405(t *testing.T) {
	f := newAPIFixture(t)
	client := f.client(t)

	resp, err := client.Get(f.server.URL + "/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()

	resp = f.postJSON(t, client, "/get_tree", nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}
