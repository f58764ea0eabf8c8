package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-formflow/internal/config"
	"github.com/imrishuroy/go-formflow/internal/forms"
)

func TestStoreSchemas(t *testing.T) {
	schemas := storeSchemas(forms.Definitions())
	if schemas["download"].File != "leads.csv" || len(schemas["download"].Header) != 8 {
		t.Fatalf("unexpected download schema: %+v", schemas["download"])
	}
	if schemas["contact"].File != "contact.csv" || schemas["newsletter"].File != "newsletter.csv" {
		t.Fatalf("unexpected schemas: %+v", schemas)
	}
}

func TestRouter_LocalStack(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.AdminTo = "info@example.com"
	cfg.From = "noreply@example.com"
	cfg.BaseURL = "https://example.com"
	cfg.StorageDir = t.TempDir()
	cfg.TimeTrap = 0
	cfg.Mail.Transport = config.TransportLog

	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)
	hcfg, err := buildHandlerConfig(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("buildHandlerConfig: %v", err)
	}
	r, err := setupRouter(hcfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	form := url.Values{"name": {"Jane"}, "email": {"jane@x.com"}}
	req := httptest.NewRequest(http.MethodPost, "/forms/newsletter", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/nl-thank-you.html" {
		t.Fatalf("newsletter: %d %q", w.Code, w.Header().Get("Location"))
	}

	data, err := os.ReadFile(filepath.Join(cfg.StorageDir, "newsletter.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "date,name,email,source,ip\n") {
		t.Fatalf("unexpected file: %q", data)
	}
	if !strings.Contains(logs.String(), "mail (log transport) to=info@example.com") {
		t.Fatalf("admin mail not routed through log transport: %s", logs.String())
	}
}

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.AdminTo = "info@example.com"
	cfg.From = "noreply@example.com"
	cfg.BaseURL = "https://example.com"
	cfg.StorageDir = t.TempDir()
	cfg.Mail.Transport = config.TransportLog
	return cfg
}

// postContact submits a contact form from remoteAddr with a client-supplied
// X-Forwarded-For and returns the stored ip column.
func postContact(t *testing.T, trusted []string, remoteAddr string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := localConfig(t)
	cfg.TrustedProxies = trusted
	var logs bytes.Buffer
	hcfg, err := buildHandlerConfig(context.Background(), cfg, log.New(&logs, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	r, err := setupRouter(hcfg, cfg.TrustedProxies)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{"name": {"Jane"}, "email": {"jane@x.com"}, "message": {"Hello"}, "middle_initial_alt": {"x"}}
	bot := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(form.Encode()))
	bot.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	bot.Header.Set("X-Forwarded-For", "1.2.3.4")
	bot.RemoteAddr = remoteAddr
	r.ServeHTTP(httptest.NewRecorder(), bot)

	form.Del("middle_initial_alt")
	req := httptest.NewRequest(http.MethodPost, "/forms/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("contact: %d %s", w.Code, w.Body.String())
	}

	f, err := os.Open(filepath.Join(cfg.StorageDir, "contact.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	return rows[1][5], logs.String()
}

func TestRouter_IgnoresForwardedForByDefault(t *testing.T) {
	ip, logs := postContact(t, nil, "198.51.100.7:5555")
	if ip != "198.51.100.7" {
		t.Fatalf("stored ip %q, want the socket peer", ip)
	}
	if !strings.Contains(logs, "IP=198.51.100.7") || strings.Contains(logs, "1.2.3.4") {
		t.Fatalf("abuse log should carry the peer address: %s", logs)
	}
}

func TestRouter_HonoursForwardedForFromTrustedProxy(t *testing.T) {
	ip, _ := postContact(t, []string{"10.0.0.0/8"}, "10.1.2.3:443")
	if ip != "1.2.3.4" {
		t.Fatalf("stored ip %q, want the forwarded client", ip)
	}

	ip, _ = postContact(t, []string{"10.0.0.0/8"}, "198.51.100.7:5555")
	if ip != "198.51.100.7" {
		t.Fatalf("untrusted peer must not set the ip, got %q", ip)
	}
}
