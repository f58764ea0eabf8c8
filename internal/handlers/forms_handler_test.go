package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-formflow/internal/catalog"
	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/guard"
	"github.com/imrishuroy/go-formflow/internal/intake"
	"github.com/imrishuroy/go-formflow/internal/notify"
	"github.com/imrishuroy/go-formflow/internal/session"
)

type memAppender struct {
	mu   sync.Mutex
	rows map[string][][]string
}

func (m *memAppender) Append(kind string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[kind] = append(m.rows[kind], row)
	return nil
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) Notify(ctx context.Context, sub forms.Submission) notify.Result {
	n.calls++
	return notify.Result{AdminSent: true, UserSent: true}
}

type testServer struct {
	router   *gin.Engine
	store    *memAppender
	notifier *countingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(&bytes.Buffer{}, "", 0)
	sessions := session.NewMemoryStore(time.Hour)
	ts := &testServer{
		router:   gin.New(),
		store:    &memAppender{rows: map[string][][]string{}},
		notifier: &countingNotifier{},
	}
	pipeline := intake.New(intake.Deps{
		Definitions: forms.Definitions(),
		Guard:       guard.New(sessions, guard.DefaultMinElapsed, logger),
		Catalog:     cat,
		Store:       ts.store,
		Notifier:    ts.notifier,
		Logger:      logger,
		BaseURL:     "https://example.com",
	})
	RegisterFormRoutes(ts.router, HandlerConfig{
		Pipeline: pipeline,
		Sessions: sessions,
		Logger:   logger,
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "test-agent")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func (ts *testServer) fetchToken(t *testing.T, cookies ...*http.Cookie) (string, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/csrf-token", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := ts.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("csrf-token status %d", w.Code)
	}
	var body struct {
		CSRF string `json:"csrf"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return body.CSRF, w.Result().Cookies()
}

func TestCSRFToken_StableWithinSession(t *testing.T) {
	ts := newTestServer(t)

	first, cookies := ts.fetchToken(t)
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %q", first)
	}
	if len(cookies) != 1 || cookies[0].Name != DefaultCookieName || !cookies[0].HttpOnly {
		t.Fatalf("expected one http-only session cookie, got %+v", cookies)
	}

	second, again := ts.fetchToken(t, cookies...)
	if second != first {
		t.Fatalf("token changed within session: %s != %s", first, second)
	}
	if len(again) != 0 {
		t.Fatalf("existing session should not get a new cookie: %+v", again)
	}

	other, _ := ts.fetchToken(t)
	if other == first {
		t.Fatal("distinct sessions should get distinct tokens")
	}
}

func TestSubmit_NonPostReturns405(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/forms/contact", "/forms/newsletter", "/forms/download"} {
		w := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, w.Code)
		}
		if w.Header().Get("Allow") != http.MethodPost {
			t.Fatalf("%s: missing Allow header", path)
		}
	}
	if len(ts.store.rows) != 0 {
		t.Fatal("non-POST must not write")
	}
}

func TestSubmit_ContactRedirects(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(postForm("/forms/contact", url.Values{
		"name":    {"Jane"},
		"email":   {"jane@x.com"},
		"message": {"Hello"},
	}))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/thank-you.html" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Header().Get("Location"))
	}
	row := ts.store.rows["contact"][0]
	if row[1] != "Jane" || row[4] != "contact form" || row[5] != "192.0.2.1" {
		t.Fatalf("unexpected row %q", row)
	}
	if ts.notifier.calls != 1 {
		t.Fatalf("expected one notify call, got %d", ts.notifier.calls)
	}
}

func TestSubmit_NewsletterValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(postForm("/forms/newsletter", url.Values{"name": {"Jane"}, "email": {"nope"}}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if w.Body.String() != "Please provide a name and a valid email." {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestSubmit_DownloadWithSessionToken(t *testing.T) {
	ts := newTestServer(t)
	token, cookies := ts.fetchToken(t)

	form := url.Values{
		"name":     {"Jane"},
		"email":    {"jane@x.com"},
		"resource": {"echoes_ch1_pdf"},
		"csrf":     {token},
		"ts":       {"0"},
	}
	w := ts.do(postForm("/forms/download", form, cookies...))
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/dl-thank-you.html?file=echoes_ch1_pdf" {
		t.Fatalf("unexpected location %q", loc)
	}
	row := ts.store.rows["download"][0]
	if row[5] != "test-agent" || row[6] != "site_download" || row[7] != "download_form" {
		t.Fatalf("unexpected row %q", row)
	}
}

func TestSubmit_DownloadRejectsBadToken(t *testing.T) {
	ts := newTestServer(t)
	_, cookies := ts.fetchToken(t)

	form := url.Values{
		"name":     {"Jane"},
		"email":    {"jane@x.com"},
		"resource": {"echoes_ch1_pdf"},
		"csrf":     {"ffffffffffffffffffffffffffffffff"},
	}
	for _, jar := range [][]*http.Cookie{cookies, nil} {
		w := ts.do(postForm("/forms/download", form, jar...))
		if w.Code != http.StatusBadRequest || w.Body.String() != "Invalid submission" {
			t.Fatalf("expected 400 Invalid submission, got %d %q", w.Code, w.Body.String())
		}
	}
	if ts.notifier.calls != 0 || len(ts.store.rows) != 0 {
		t.Fatal("rejected downloads must have no side effects")
	}
}

func TestSubmit_HoneypotRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(postForm("/forms/contact", url.Values{
		"name":               {"Jane"},
		"email":              {"jane@x.com"},
		"message":            {"Hello"},
		"middle_initial_alt": {"Q"},
	}))
	if w.Code != http.StatusBadRequest || w.Body.String() != "Bad bot" {
		t.Fatalf("expected 400 Bad bot, got %d %q", w.Code, w.Body.String())
	}
	if ts.notifier.calls != 0 {
		t.Fatal("honeypot trip must not send mail")
	}
}
