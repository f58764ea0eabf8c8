package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-formflow/internal/forms"
	"github.com/imrishuroy/go-formflow/internal/intake"
	"github.com/imrishuroy/go-formflow/internal/session"
	"github.com/imrishuroy/go-formflow/internal/validation"
)

// DefaultCookieName is the session cookie used when HandlerConfig leaves it empty.
const DefaultCookieName = "formflow_session"

// Submitter runs one submission to a terminal outcome (intake.Pipeline).
type Submitter interface {
	Handle(ctx context.Context, req intake.Request) intake.Outcome
}

// HandlerConfig groups dependencies for the form routes.
type HandlerConfig struct {
	Pipeline     Submitter
	Sessions     session.TokenStore
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	Logger       *log.Logger
}

// RegisterFormRoutes registers the submit endpoints and the CSRF token endpoint.
func RegisterFormRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	for _, kind := range []forms.Kind{forms.Contact, forms.Newsletter, forms.Download} {
		r.Any("/forms/"+string(kind), submitHandler(kind, cfg))
	}

	r.GET("/csrf-token", func(c *gin.Context) {
		sid := sessionID(c, cfg.CookieName)
		if sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sid, int(cfg.SessionTTL/time.Second), "/", "", cfg.CookieSecure, true)
		}

		token, err := cfg.Sessions.IssueToken(c.Request.Context(), sid)
		if err != nil {
			cfg.Logger.Printf("[csrf] token issue failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token_unavailable"})
			return
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{"csrf": token})
	})
}

func submitHandler(kind forms.Kind, cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := intake.Request{
			Kind:   kind,
			Method: c.Request.Method,
			Client: intake.Client{
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				SessionID: sessionID(c, cfg.CookieName),
			},
		}

		// Only POST bodies are read; everything else is refused by the pipeline.
		if req.Method == http.MethodPost {
			if err := validation.Bind(c, &req.Form); err != nil {
				// An unreadable body behaves like an empty form and fails validation.
				cfg.Logger.Printf("[%s] bind: %v", kind, err)
				req.Form = validation.FormRequest{}
			}
		}

		out := cfg.Pipeline.Handle(c.Request.Context(), req)
		if out.Status == http.StatusMethodNotAllowed {
			c.Header("Allow", http.MethodPost)
		}
		if out.State == intake.StateRedirected {
			c.Redirect(out.Status, out.Location)
			return
		}
		c.String(out.Status, out.Body)
	}
}

func sessionID(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
