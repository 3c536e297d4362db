package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	*httptest.Server
	token string

	mu        sync.Mutex
	statsAuth []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  now.Add(2 * time.Hour).Unix(),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	b := &fakeBackend{token: token}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":400,"message":"Invalid username or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    200,
			"message": "Login successful",
			"data": map[string]string{
				"token":    token,
				"type":     "Bearer",
				"username": req.Username,
				"email":    req.Username + "@vsl.example",
				"role":     "ADMIN",
			},
		})
	})
	mux.HandleFunc("GET /api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		b.mu.Lock()
		b.statsAuth = append(b.statsAuth, auth)
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if auth != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":200,"message":"Dashboard statistics retrieved","data":{"totalUsers":1500,"totalWords":42000,"pendingContributions":7}}`))
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) lastStatsAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.statsAuth) == 0 {
		return ""
	}
	return b.statsAuth[len(b.statsAuth)-1]
}

// isolate points every file and env lookup at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("VSLADMIN_HOME", dir)
	for _, key := range []string{"VSLADMIN_SERVER", "VSLADMIN_TOKEN", "VSLADMIN_LOCALE", "VSLADMIN_LOG_LEVEL", "VSLADMIN_LISTEN", "VSLADMIN_TIMEOUT", "VSLADMIN_SYSTEM_UPTIME"} {
		t.Setenv(key, "")
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func login(t *testing.T, b *fakeBackend) {
	t.Helper()
	_, stderr, err := runCLI(t, "secret\n", "login", "--server", b.URL, "--username", "admin")
	require.NoError(t, err)
	require.Contains(t, stderr, "✓ Logged in as admin")
}

func TestLoginSavesToken(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)
	login(t, b)

	path := filepath.Join(dir, "token")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), b.token)
	assert.Contains(t, string(raw), `"role":"ADMIN"`)
}

func TestLoginRejected(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)

	_, _, err := runCLI(t, "wrong\n", "login", "--server", b.URL, "--username", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password")

	_, _, err = runCLI(t, "", "status")
	assert.Error(t, err, "failed login must not store a token")
}

func TestLoginEmptyPassword(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	_, _, err := runCLI(t, "\n", "login", "--server", b.URL, "--username", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")
}

func TestDashboardPlain(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b)

	stdout, _, err := runCLI(t, "", "dashboard", "--server", b.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+b.token, b.lastStatsAuth())

	assert.True(t, strings.HasPrefix(stdout, "> DASHBOARD_OVERVIEW\n"))
	for _, want := range []string{"TOTAL USERS", "1,500", "42,000", "awaiting review", "99.9%"} {
		assert.Contains(t, stdout, want)
	}
}

func TestDashboardJSON(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b)

	stdout, _, err := runCLI(t, "", "dashboard", "--server", b.URL, "-o", "json")
	require.NoError(t, err)

	var report struct {
		Loading bool   `json:"loading"`
		Outcome string `json:"outcome"`
		Stats   struct {
			TotalUsers   int64   `json:"totalUsers"`
			SystemUptime float64 `json:"systemUptime"`
		} `json:"stats"`
		Cards []struct{ Label string } `json:"cards"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.False(t, report.Loading)
	assert.Equal(t, "loaded", report.Outcome)
	assert.Equal(t, int64(1500), report.Stats.TotalUsers)
	assert.Equal(t, 99.9, report.Stats.SystemUptime)
	assert.Len(t, report.Cards, 4)
}

func TestDashboardWithoutLoginShowsDefaults(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)

	stdout, _, err := runCLI(t, "", "dashboard", "--server", b.URL, "-o", "json")
	require.NoError(t, err, "a rejected fetch is not a command failure")
	assert.Contains(t, []string{"Bearer", "Bearer "}, b.lastStatsAuth())
	assert.Contains(t, stdout, `"outcome": "rejected"`)
	assert.Contains(t, stdout, `"totalUsers": 0`)
	assert.NotContains(t, stdout, `"reason"`)
}

func TestDashboardEnvTokenWins(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b)
	t.Setenv("VSLADMIN_TOKEN", "from-env")

	_, _, err := runCLI(t, "", "dashboard", "--server", b.URL, "--plain")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-env", b.lastStatsAuth())
}

func TestDashboardShowFetchErrors(t *testing.T) {
	dir := isolate(t)
	b := newFakeBackend(t)
	cfgPath := filepath.Join(dir, "custom.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server = \""+b.URL+"\"\nshow_fetch_errors = true\nsystem_uptime = 98.5\n"), 0o600))

	stdout, _, err := runCLI(t, "", "--config", cfgPath, "dashboard", "--plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "98.5%")
	assert.Contains(t, stdout, "stats unavailable (backend answered 401), showing defaults")
}

func TestDashboardRejectsUnknownOutput(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "", "dashboard", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported output "yaml"`)
}

func TestStatusAndLogout(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b)

	stdout, _, err := runCLI(t, "", "status", "--server", b.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, "User:")
	assert.Contains(t, stdout, "admin")
	assert.Contains(t, stdout, "ADMIN")
	assert.Contains(t, stdout, "(in ")
	assert.NotContains(t, stdout, "Note:")

	stdout, _, err = runCLI(t, "", "status", "--server", "http://elsewhere:9999")
	require.NoError(t, err)
	assert.Contains(t, stdout, "configured server is http://elsewhere:9999")

	_, stderr, err := runCLI(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Logged out")

	_, _, err = runCLI(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestDoctor(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	login(t, b)

	stdout, stderr, err := runCLI(t, "", "doctor", "--server", b.URL)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "statistics readable")
	assert.Contains(t, stdout, "logged in as admin")
	assert.NotContains(t, stdout, "✗")
	assert.Contains(t, stderr, "All checks passed")
}

func TestDoctorNotLoggedIn(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)

	stdout, _, err := runCLI(t, "", "doctor", "--server", b.URL)
	require.Error(t, err)
	assert.Equal(t, "health check failed", err.Error())
	assert.Contains(t, stdout, "not logged in")
	assert.Contains(t, stdout, "skipped (no token)")
}

func TestDoctorUnreachable(t *testing.T) {
	isolate(t)
	t.Setenv("VSLADMIN_TOKEN", "tok")
	_, _, err := runCLI(t, "", "doctor", "--server", "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestVersionIgnoresConfig(t *testing.T) {
	isolate(t)
	stdout, _, err := runCLI(t, "", "--config", "/does/not/exist.hcl", "version")
	require.NoError(t, err)
	assert.Equal(t, "vsladmin version dev\n", stdout)
}

func TestMissingExplicitConfigFails(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "", "--config", "/does/not/exist.hcl", "status")
	require.Error(t, err)
}

func TestServe(t *testing.T) {
	isolate(t)
	b := newFakeBackend(t)
	t.Setenv("VSLADMIN_SERVER", b.URL)

	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(""), out: &out, errOut: &errOut, logLevel: "error"}
	require.NoError(t, a.setup(nil, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, base+"/admin/stats.json", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "vsl_token", Value: b.token})
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	resp.Body.Close()
	assert.Equal(t, "loaded", report["outcome"])
	assert.Equal(t, "Bearer "+b.token, b.lastStatsAuth())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
