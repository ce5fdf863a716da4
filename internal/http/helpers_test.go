package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"marketplace/internal/config"
	"marketplace/internal/domain"
	"marketplace/internal/http/handlers"
	applog "marketplace/internal/log"
	"marketplace/internal/payments/paymentstest"
	"marketplace/internal/repos"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	fake *paymentstest.Fake
	csrf string
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:          ":memory:",
		AppURL:         "https://shop.test",
		CORSOrigins:    "*",
		RateLimit:      1000,
		LoginRateLimit: 100,
		RecheckPrices:  true,

		PlatformFeePercentage: decimal.NewFromInt(10),
	}
}

// newTestApp builds the full router over a seeded in-memory database.
func newTestApp(t *testing.T, tweak func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fake := paymentstest.New()
	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, fake, nil))
	return &testApp{app: app, db: db, fake: fake}
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// token fetches a csrf token with a safe request.
func (ta *testApp) token(t *testing.T) string {
	t.Helper()
	if ta.csrf != "" {
		return ta.csrf
	}
	resp, err := ta.app.Test(httptest.NewRequest("GET", "/api/auth/session", nil))
	if err != nil {
		t.Fatal(err)
	}
	ta.csrf = cookie(resp, "csrf_")
	if ta.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return ta.csrf
}

// signIn binds a fresh session to the seeded user with the given email.
func (ta *testApp) signIn(t *testing.T, email string) string {
	t.Helper()
	users := repos.NewUserRepo(ta.db)
	u, err := users.ByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("user %s: %v", email, err)
	}
	sid := "sid-" + u.Username
	if err := users.BindSession(context.Background(), sid, u.ID); err != nil {
		t.Fatal(err)
	}
	return sid
}

type call struct {
	method string
	path   string
	body   any
	sid    string
	csrf   bool
	header map[string]string
}

func (ta *testApp) do(t *testing.T, c call) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := c.body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	}
	if c.csrf {
		tok := ta.token(t)
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
		req.Header.Set("X-Csrf-Token", tok)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
	return v
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectError(t *testing.T, resp *http.Response, body []byte, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected %d, got %d body=%s", status, resp.StatusCode, string(body))
	}
	if got := decode[apiError](t, body).Error.Code; got != code {
		t.Fatalf("expected code %s, got %s", code, got)
	}
}

func (ta *testApp) productID(t *testing.T, name string) string {
	t.Helper()
	var id string
	if err := ta.db.Get(&id, `SELECT id FROM products WHERE name = ?`, name); err != nil {
		t.Fatalf("product %q: %v", name, err)
	}
	return id
}

type pageBody struct {
	Docs        []domain.Product `json:"docs"`
	TotalDocs   int              `json:"totalDocs"`
	Page        int              `json:"page"`
	HasNextPage bool             `json:"hasNextPage"`
	NextPage    *int             `json:"nextPage"`
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs redirects the application logger while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	defer restore()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
